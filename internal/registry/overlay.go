// internal/registry/overlay.go
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overlay file format:
//
//	groups:
//	  heat_pump:
//	    - name: compressor_power
//	      address: 0x0120
//	      length: 1
//	      kind: unsigned
//	      scale: 1
//	      unit: W
//
// length defaults to 1, scale to 1, kind to unsigned.
type overlayFile struct {
	Groups map[string][]overlayDef `yaml:"groups"`
}

type overlayDef struct {
	Name         string  `yaml:"name"`
	Address      uint16  `yaml:"address"`
	Length       uint16  `yaml:"length"`
	Kind         string  `yaml:"kind"`
	Scale        float64 `yaml:"scale"`
	Offset       float64 `yaml:"offset"`
	Unit         string  `yaml:"unit"`
	Topic        string  `yaml:"topic"`
	LowWordFirst bool    `yaml:"low_word_first"`
}

// LoadOverlay extends a built-in catalogue with groups read from a YAML
// file. The result passes the same validation as the built-ins.
func LoadOverlay(m *Map, path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: overlay %s: %w", path, err)
	}

	var file overlayFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("registry: overlay %s: %w", path, err)
	}

	groups := make(map[string][]Definition, len(file.Groups))
	for name, defs := range file.Groups {
		out := make([]Definition, 0, len(defs))
		for _, d := range defs {
			kind, err := parseKind(d.Kind)
			if err != nil {
				return nil, fmt.Errorf("registry: overlay %s: group %q: %s: %w", path, name, d.Name, err)
			}
			if d.Length == 0 {
				d.Length = 1
			}
			if d.Scale == 0 && kind != Bitflags {
				d.Scale = 1
			}
			out = append(out, Definition{
				Name:         d.Name,
				Address:      d.Address,
				Length:       d.Length,
				Kind:         kind,
				Scale:        d.Scale,
				Offset:       d.Offset,
				Unit:         d.Unit,
				Topic:        d.Topic,
				LowWordFirst: d.LowWordFirst,
			})
		}
		groups[name] = out
	}

	return m.Extend(groups)
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "", "unsigned":
		return Unsigned, nil
	case "signed":
		return Signed, nil
	case "signed_magnitude":
		return SignedMagnitude, nil
	case "bitflags":
		return Bitflags, nil
	default:
		return 0, fmt.Errorf("unknown register kind %q", s)
	}
}
