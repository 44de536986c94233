package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/john-wilkinson/pym/pkg/manifest"
)

// Prompt styles
var (
	promptLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(13)
	promptActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	promptValueStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	promptDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InitModel - Interactive manifest fields
// =============================================================================

// promptField is one editable manifest field.
type promptField struct {
	Label string
	Value string
}

// Field order in InitModel.Fields.
const (
	fieldName = iota
	fieldVersion
	fieldDescription
	fieldSrc
	fieldLicense
)

// InitModel is the bubbletea model that asks for the fields of a new
// pym.json. Enter moves to the next field and accepts on the last one.
type InitModel struct {
	Fields    []promptField
	Cursor    int
	Done      bool
	Cancelled bool
}

// NewInitModel creates a prompt prefilled from m.
func NewInitModel(m *manifest.Manifest) InitModel {
	return InitModel{
		Fields: []promptField{
			fieldName:        {Label: "name", Value: m.Name},
			fieldVersion:     {Label: "version", Value: m.Version},
			fieldDescription: {Label: "description", Value: m.Description},
			fieldSrc:         {Label: "src", Value: m.Src},
			fieldLicense:     {Label: "license", Value: m.License},
		},
	}
}

func (m InitModel) Init() tea.Cmd {
	return nil
}

func (m InitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	field := &m.Fields[m.Cursor]
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		if m.Cursor == len(m.Fields)-1 {
			m.Done = true
			return m, tea.Quit
		}
		m.Cursor++
	case tea.KeyUp, tea.KeyShiftTab:
		if m.Cursor > 0 {
			m.Cursor--
		}
	case tea.KeyDown, tea.KeyTab:
		if m.Cursor < len(m.Fields)-1 {
			m.Cursor++
		}
	case tea.KeyBackspace:
		if r := []rune(field.Value); len(r) > 0 {
			field.Value = string(r[:len(r)-1])
		}
	case tea.KeyCtrlU:
		field.Value = ""
	case tea.KeySpace:
		field.Value += " "
	case tea.KeyRunes:
		field.Value += string(key.Runes)
	}
	return m, nil
}

func (m InitModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Create pym.json"))
	b.WriteString("\n")
	b.WriteString(promptDimStyle.Render("⏎ next  ↑/↓ move  ctrl+u clear  esc cancel"))
	b.WriteString("\n\n")

	for i, f := range m.Fields {
		cursor := "  "
		label := promptLabelStyle.Render(f.Label)
		value := promptValueStyle.Render(f.Value)
		if i == m.Cursor {
			cursor = promptActiveStyle.Render("▸ ")
			label = promptActiveStyle.Width(13).Render(f.Label)
			value += promptActiveStyle.Render("█")
		}
		b.WriteString(cursor + label + value + "\n")
	}

	b.WriteString("\n")
	b.WriteString(promptDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Fields))))
	return b.String()
}

// Apply copies the prompted values into mf. Surrounding spaces are trimmed.
func (m InitModel) Apply(mf *manifest.Manifest) {
	v := func(i int) string { return strings.TrimSpace(m.Fields[i].Value) }
	mf.Name = v(fieldName)
	mf.Version = v(fieldVersion)
	mf.Description = v(fieldDescription)
	mf.Src = v(fieldSrc)
	mf.License = v(fieldLicense)
}
