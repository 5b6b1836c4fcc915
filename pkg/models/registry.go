package models

import (
	"fmt"
	"sort"

	"github.com/oufit/oufit/pkg/engine"
)

var registry = map[string]engine.ModelBuilder{
	OUDA{}.Name():                OUDA{},
	OUBA{}.Name():                OUBA{},
	LangevinPlusNoiseIG{}.Name(): LangevinPlusNoiseIG{},
	LangevinIG2{}.Name():         LangevinIG2{},
}

// ByName returns the model variant with the given name.
func ByName(name string) (engine.ModelBuilder, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (available: %v)", name, Names())
	}
	return m, nil
}

// Names lists the registered variant names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
