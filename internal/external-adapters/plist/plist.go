// Package plist provides a partial reader for XML property lists:
// just enough to pull flat string values (CFBundleExecutable and
// friends) out of a bundle's Info.plist.
package plist

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// ReadFile parses the plist at path into a flat key/value map.
func ReadFile(path string) (map[string]string, error) {
	//nolint:gosec // G304: path is the bundle's Info.plist
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plist: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads every <key> element and pairs it with the character data
// of the value element that follows it. Nested containers contribute
// their scalar entries to the same flat map; the keys this tool reads
// live at the top level, so collisions are not a concern.
func Parse(r io.Reader) (map[string]string, error) {
	dec := xml.NewDecoder(r)
	values := make(map[string]string)

	var pendingKey string
	var inKey, inValue bool
	var text string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse plist: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			text = ""
			switch t.Name.Local {
			case "key":
				inKey = true
			case "string", "integer", "real", "date":
				inValue = pendingKey != ""
			case "true", "false":
				if pendingKey != "" {
					values[pendingKey] = t.Name.Local
					pendingKey = ""
				}
			}
		case xml.CharData:
			if inKey || inValue {
				text += string(t)
			}
		case xml.EndElement:
			switch {
			case inKey && t.Name.Local == "key":
				pendingKey = text
				inKey = false
			case inValue:
				values[pendingKey] = text
				pendingKey = ""
				inValue = false
			}
		}
	}

	return values, nil
}
