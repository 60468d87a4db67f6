// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownGroup is returned when a metric group is not in the catalogue.
var ErrUnknownGroup = errors.New("registry: unknown metric group")

// Known inverter families.
const (
	FamilyString = "string"
	FamilyMicro  = "micro"
	FamilyHybrid = "hybrid"
)

// Map is the immutable register catalogue for one inverter family.
// It is built once at startup and read-only afterwards; callers must not
// modify the returned definition slices.
type Map struct {
	family string
	groups map[string][]Definition
}

// New builds a validated Map. Validation failures are fatal to the caller:
// the process must not start with a malformed catalogue.
func New(family string, groups map[string][]Definition) (*Map, error) {
	m := &Map{
		family: family,
		groups: make(map[string][]Definition, len(groups)),
	}
	for name, defs := range groups {
		if err := validateGroup(name, defs); err != nil {
			return nil, err
		}
		cp := make([]Definition, len(defs))
		copy(cp, defs)
		m.groups[name] = cp
	}
	return m, nil
}

// Builtin returns the built-in catalogue for an inverter family.
func Builtin(family string) (*Map, error) {
	switch family {
	case FamilyString:
		return New(family, stringGroups)
	case FamilyMicro:
		return New(family, microGroups)
	case FamilyHybrid:
		return New(family, hybridGroups)
	default:
		return nil, fmt.Errorf("registry: unknown inverter family %q", family)
	}
}

// Family is the inverter family this catalogue was built for.
func (m *Map) Family() string {
	return m.family
}

// Group returns the definitions of one metric group in load order.
func (m *Map) Group(name string) ([]Definition, error) {
	defs, ok := m.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (family %s)", ErrUnknownGroup, name, m.family)
	}
	return defs, nil
}

// Groups lists the registered group names, sorted.
func (m *Map) Groups() []string {
	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extend returns a new Map with the extra groups added. A group name that
// already exists replaces the built-in definition set.
func (m *Map) Extend(groups map[string][]Definition) (*Map, error) {
	merged := make(map[string][]Definition, len(m.groups)+len(groups))
	for name, defs := range m.groups {
		merged[name] = defs
	}
	for name, defs := range groups {
		merged[name] = defs
	}
	return New(m.family, merged)
}

// validateGroup enforces the catalogue invariants:
// names present, length 1 or 2, non-zero scale for numeric kinds, and no
// address-range overlap between definitions of the same group.
func validateGroup(group string, defs []Definition) error {
	type span struct {
		start uint16
		end   uint16
		name  string
	}

	if len(defs) == 0 {
		return fmt.Errorf("registry: group %q has no definitions", group)
	}

	spans := make([]span, 0, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("registry: group %q: definition at 0x%04x has no name", group, d.Address)
		}
		if d.Length != 1 && d.Length != 2 {
			return fmt.Errorf("registry: group %q: %s has length %d, want 1 or 2", group, d.Name, d.Length)
		}
		if d.Kind != Bitflags && d.Scale == 0 {
			return fmt.Errorf("registry: group %q: %s has zero scale", group, d.Name)
		}

		start, end := d.Address, d.End()
		for _, s := range spans {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"registry: group %q: %s range 0x%04x-0x%04x overlaps %s range 0x%04x-0x%04x",
					group, d.Name, start, end, s.name, s.start, s.end,
				)
			}
		}
		spans = append(spans, span{start: start, end: end, name: d.Name})
	}

	return nil
}
