package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/john-wilkinson/pym/pkg/loader"
)

// whichCommand creates the which command.
func (c *CLI) whichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "which <module>",
		Short: "Print the file an import resolves to",
		Long: `Print the file that "import <module>" loads from pym_packages. The first
dotted segment names the installed package; the rest is a path under the
package's source directory.`,
		Example: `  pym which tornado
  pym which tornado.web`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := loader.Resolve(c.installDir(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}
}

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed packages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loader.Index(c.installDir())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No packages installed")
				printNextStep("Install dependencies", "pym install")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Name, e.Version, e.Root})
			}
			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Package", "Version", "Import root").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == -1: // header
						return headerStyle
					case col == 0:
						return StyleHighlight
					case col == 2:
						return StyleDim
					}
					return lipgloss.NewStyle()
				})
			fmt.Fprintln(stdout, t.Render())
			return nil
		},
	}
}
