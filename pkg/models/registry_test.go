package models

import (
	"sort"
	"testing"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		builder, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if builder.Name() != name {
			t.Errorf("ByName(%q) returned builder named %q", name, builder.Name())
		}
	}

	if _, err := ByName("no_such_model"); err == nil {
		t.Error("expected error for unknown model name")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != 4 {
		t.Fatalf("expected 4 registered variants, got %d: %v", len(names), names)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Names() not sorted: %v", names)
	}
}
