// internal/registry/registry_test.go
package registry

import (
	"errors"
	"testing"
)

func TestGroup_OrderPreserved(t *testing.T) {
	defs := []Definition{
		{Name: "c", Address: 0x30, Length: 1, Kind: Unsigned, Scale: 1},
		{Name: "a", Address: 0x10, Length: 2, Kind: Unsigned, Scale: 1},
		{Name: "b", Address: 0x20, Length: 1, Kind: Signed, Scale: 0.1},
	}

	m, err := New("test", map[string][]Definition{"g": defs})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	got, err := m.Group("g")
	if err != nil {
		t.Fatalf("Group() err=%v", err)
	}
	for i, want := range []string{"c", "a", "b"} {
		if got[i].Name != want {
			t.Fatalf("definition %d: got %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestGroup_Unknown(t *testing.T) {
	m, err := Builtin(FamilyString)
	if err != nil {
		t.Fatalf("Builtin() err=%v", err)
	}
	if _, err := m.Group("nope"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected ErrUnknownGroup, got %v", err)
	}
}

func TestNew_RejectsOverlap(t *testing.T) {
	cases := map[string][]Definition{
		"double overlaps next": {
			{Name: "a", Address: 0x10, Length: 2, Kind: Unsigned, Scale: 1},
			{Name: "b", Address: 0x11, Length: 1, Kind: Unsigned, Scale: 1},
		},
		"same address": {
			{Name: "a", Address: 0x10, Length: 1, Kind: Unsigned, Scale: 1},
			{Name: "b", Address: 0x10, Length: 1, Kind: Signed, Scale: 1},
		},
	}

	for name, defs := range cases {
		if _, err := New("test", map[string][]Definition{"g": defs}); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestNew_RejectsBadDefinitions(t *testing.T) {
	cases := map[string]Definition{
		"zero scale":  {Name: "a", Address: 0x10, Length: 1, Kind: Unsigned, Scale: 0},
		"bad length":  {Name: "a", Address: 0x10, Length: 3, Kind: Unsigned, Scale: 1},
		"zero length": {Name: "a", Address: 0x10, Length: 0, Kind: Unsigned, Scale: 1},
		"no name":     {Address: 0x10, Length: 1, Kind: Unsigned, Scale: 1},
	}

	for name, def := range cases {
		if _, err := New("test", map[string][]Definition{"g": {def}}); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestNew_BitflagsNeedNoScale(t *testing.T) {
	defs := []Definition{{Name: "flags", Address: 0x10, Length: 2, Kind: Bitflags}}
	if _, err := New("test", map[string][]Definition{"g": defs}); err != nil {
		t.Fatalf("New() err=%v", err)
	}
}

func TestBuiltin_AllFamiliesValidate(t *testing.T) {
	for _, family := range []string{FamilyString, FamilyMicro, FamilyHybrid} {
		m, err := Builtin(family)
		if err != nil {
			t.Fatalf("Builtin(%s) err=%v", family, err)
		}
		if len(m.Groups()) == 0 {
			t.Fatalf("Builtin(%s): no groups", family)
		}
	}
	if _, err := Builtin("toaster"); err == nil {
		t.Fatal("expected error for unknown family")
	}
}

func TestSpan(t *testing.T) {
	defs := []Definition{
		{Name: "b", Address: 0x20, Length: 2, Kind: Unsigned, Scale: 1},
		{Name: "a", Address: 0x10, Length: 1, Kind: Unsigned, Scale: 1},
	}
	start, count := Span(defs)
	if start != 0x10 || count != 0x12 {
		t.Fatalf("Span() = (0x%04x, %d), want (0x0010, 18)", start, count)
	}

	if _, count := Span(nil); count != 0 {
		t.Fatalf("Span(nil) count=%d, want 0", count)
	}
}

func TestExtend_ReplacesAndValidates(t *testing.T) {
	m, err := Builtin(FamilyMicro)
	if err != nil {
		t.Fatalf("Builtin() err=%v", err)
	}

	ext, err := m.Extend(map[string][]Definition{
		"extra": {{Name: "x", Address: 0x0100, Length: 1, Kind: Unsigned, Scale: 1}},
	})
	if err != nil {
		t.Fatalf("Extend() err=%v", err)
	}
	if _, err := ext.Group("extra"); err != nil {
		t.Fatalf("Group(extra) err=%v", err)
	}
	// original untouched
	if _, err := m.Group("extra"); err == nil {
		t.Fatal("Extend mutated the source map")
	}

	_, err = m.Extend(map[string][]Definition{
		"bad": {{Name: "x", Address: 0x0100, Length: 1, Kind: Unsigned, Scale: 0}},
	})
	if err == nil {
		t.Fatal("expected validation error from Extend")
	}
}
