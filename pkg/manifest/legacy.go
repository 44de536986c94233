package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// depNames is the dependency list as stored on disk.
//
// Older manifests store dependencies as an object mapping names to version
// ranges ({"tornado": "4.5.2"}). Those are read in document order and
// converted to "name@range" specifiers; an empty range or "*" means latest.
type depNames []string

func (d *depNames) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = nil
		return nil
	case len(data) > 0 && data[0] == '{':
		return d.unmarshalObject(data)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*d = list
	return nil
}

func (d *depNames) unmarshalObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out depNames
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("dependency key %v is not a string", tok)
		}
		var rng string
		if err := dec.Decode(&rng); err != nil {
			return fmt.Errorf("dependency %q: %w", name, err)
		}
		if rng == "" || rng == "*" {
			out = append(out, name)
		} else {
			out = append(out, name+"@"+rng)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}
