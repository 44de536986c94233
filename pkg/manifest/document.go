package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// document holds the fields pym understands, in on-disk order.
type document struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Description     string   `json:"description,omitempty"`
	Src             string   `json:"src,omitempty"`
	License         string   `json:"license,omitempty"`
	Resolved        string   `json:"resolved,omitempty"`
	InstallLocation string   `json:"install_location,omitempty"`
	Dependencies    depNames `json:"dependencies"`
}

// knownKeys lists the document fields in the order new manifests use.
var knownKeys = []string{
	"name", "version", "description", "src", "license",
	"resolved", "install_location", "dependencies",
}

// member is a top-level field pym does not interpret. It is written back
// verbatim.
type member struct {
	Key   string
	Value json.RawMessage
}

// layout records the top-level keys of a decoded document in order, and the
// raw values of the ones pym does not interpret.
type layout struct {
	keys  []string
	extra []member
}

func (l *layout) has(key string) bool {
	return slices.Contains(l.keys, key)
}

func (l *layout) lookup(key string) (json.RawMessage, bool) {
	for _, m := range l.extra {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// decodeLayout walks the top-level object of data. A repeated key keeps its
// first position and its last value, as encoding/json does.
func decodeLayout(data []byte) (layout, error) {
	var l layout
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return l, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return l, fmt.Errorf("manifest is not a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return l, err
		}
		key, ok := tok.(string)
		if !ok {
			return l, fmt.Errorf("key %v is not a string", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return l, fmt.Errorf("field %q: %w", key, err)
		}
		if !l.has(key) {
			l.keys = append(l.keys, key)
		}
		if slices.Contains(knownKeys, key) {
			continue
		}
		if i := slices.IndexFunc(l.extra, func(m member) bool { return m.Key == key }); i >= 0 {
			l.extra[i].Value = raw
		} else {
			l.extra = append(l.extra, member{Key: key, Value: raw})
		}
	}
	if _, err := dec.Token(); err != nil {
		return l, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return l, fmt.Errorf("unexpected data after manifest object")
	}
	return l, nil
}

// order returns the keys to write. Keys from the decoded document keep their
// positions; known fields the document lacked are slotted in before the next
// known field that follows them in knownKeys.
func (l *layout) order() []string {
	if len(l.keys) == 0 {
		return knownKeys
	}
	var out []string
	next := 0
	for _, key := range l.keys {
		if i := slices.Index(knownKeys, key); i >= next {
			for ; next < i; next++ {
				if !l.has(knownKeys[next]) {
					out = append(out, knownKeys[next])
				}
			}
			next = i + 1
		}
		out = append(out, key)
	}
	for ; next < len(knownKeys); next++ {
		if !l.has(knownKeys[next]) {
			out = append(out, knownKeys[next])
		}
	}
	return out
}

// field returns the encoded value of key in m. Optional fields that are
// empty are skipped unless the decoded document carried them.
func (m *Manifest) field(key string) (json.RawMessage, bool, error) {
	optional := func(v string) (json.RawMessage, bool, error) {
		if v == "" && !m.layout.has(key) {
			return nil, false, nil
		}
		raw, err := encodeValue(v)
		return raw, true, err
	}
	switch key {
	case "name":
		raw, err := encodeValue(m.Name)
		return raw, true, err
	case "version":
		raw, err := encodeValue(m.Version)
		return raw, true, err
	case "description":
		return optional(m.Description)
	case "src":
		return optional(m.Src)
	case "license":
		return optional(m.License)
	case "resolved":
		return optional(m.Resolved)
	case "install_location":
		return optional(m.InstallLocation)
	case "dependencies":
		names := make([]string, 0, len(m.Dependencies))
		for _, d := range m.Dependencies {
			names = append(names, d.Text())
		}
		raw, err := encodeValue(names)
		return raw, true, err
	}
	raw, ok := m.layout.lookup(key)
	return raw, ok, nil
}

// encodeDocument writes m as a four-space indented object with a trailing
// newline, the same shape json.Encoder.SetIndent produces.
func encodeDocument(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	n := 0
	for _, key := range m.layout.order() {
		raw, ok, err := m.field(key)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		if !ok {
			continue
		}
		name, err := encodeValue(key)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		buf.Write(name)
		buf.WriteString(": ")
		if err := json.Indent(&buf, raw, "    ", "    "); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		n++
	}
	if n > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func encodeValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
