package scale

import (
	"fmt"
	"time"

	"github.com/opentrickler/trickle2go/internal/units"
	"github.com/shopspring/decimal"
)

// Model describes one supported scale model: its frame grammar, unit and
// resolution maps, status maps and serial defaults.
type Model struct {
	Name string

	// DefaultBaudRate and DefaultTimeout are the serial settings recommended
	// by the vendor documentation. The config can override both.
	DefaultBaudRate int
	DefaultTimeout  time.Duration

	// HasStabilityFlag is true when the scale reports stability in every
	// frame. Models without it rely on the stability inferencer.
	HasStabilityFlag bool

	// SupportsUnitChange is true when the unit can be switched over RS232.
	SupportsUnitChange bool

	// UnitMap maps the unit code on the wire to a Unit.
	UnitMap map[string]units.Unit

	// ResolutionMap maps each unit to the smallest weight increment the
	// model can represent in that unit.
	ResolutionMap map[units.Unit]decimal.Decimal

	statusMaps map[int]statusMap
	parse      func(m *Model, status statusMap, line string, now time.Time) (Reading, error)
}

var modelRegistry = map[string]*Model{
	"and": {
		Name:               "and",
		DefaultBaudRate:    19200,
		DefaultTimeout:     100 * time.Millisecond,
		HasStabilityFlag:   true,
		SupportsUnitChange: true,
		UnitMap: map[string]units.Unit{
			"GN": units.Grains,
			"g":  units.Grams,
		},
		ResolutionMap: map[units.Unit]decimal.Decimal{
			units.Grains: decimal.RequireFromString("0.02"),
			units.Grams:  decimal.RequireFromString("0.0001"),
		},
		statusMaps: andStatusMaps,
		parse:      parseANDFrame,
	},
	"creedmoor": {
		Name:               "creedmoor",
		DefaultBaudRate:    9600,
		DefaultTimeout:     100 * time.Millisecond,
		HasStabilityFlag:   false,
		SupportsUnitChange: true,
		UnitMap: map[string]units.Unit{
			"GN": units.Grains,
			"g":  units.Grams,
		},
		ResolutionMap: map[units.Unit]decimal.Decimal{
			units.Grains: decimal.RequireFromString("0.01"),
			units.Grams:  decimal.RequireFromString("0.0001"),
		},
		statusMaps: map[int]statusMap{1: signStatusMap},
		parse:      parseSignFrame(8, 9, 11),
	},
	"ussolid": {
		Name:               "ussolid",
		DefaultBaudRate:    9600,
		DefaultTimeout:     100 * time.Millisecond,
		HasStabilityFlag:   false,
		SupportsUnitChange: false,
		UnitMap: map[string]units.Unit{
			"gn": units.Grains,
			"g":  units.Grams,
		},
		ResolutionMap: map[units.Unit]decimal.Decimal{
			units.Grains: decimal.RequireFromString("0.001"),
			units.Grams:  decimal.RequireFromString("0.001"),
		},
		statusMaps: map[int]statusMap{1: signStatusMap},
		parse:      parseSignFrame(9, 9, 11),
	},
}

// modelAliases keeps config files from earlier deployments working.
var modelAliases = map[string]string{
	"and-fx120": "and",
}

// GetModel resolves a model name from the configuration to its Model.
func GetModel(name string) (*Model, error) {
	if alias, ok := modelAliases[name]; ok {
		name = alias
	}
	model, ok := modelRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported scale model: %q", name)
	}
	return model, nil
}

// ModelNames returns the names of all supported models, aliases excluded.
func ModelNames() []string {
	names := make([]string, 0, len(modelRegistry))
	for name := range modelRegistry {
		names = append(names, name)
	}
	return names
}

// StatusMapVersions returns the status map versions available for the model.
func (m *Model) StatusMapVersions() []int {
	versions := make([]int, 0, len(m.statusMaps))
	for v := range m.statusMaps {
		versions = append(versions, v)
	}
	return versions
}

// HasStatusMapVersion reports whether the given status map version exists.
func (m *Model) HasStatusMapVersion(version int) bool {
	_, ok := m.statusMaps[version]
	return ok
}

// ReverseUnitMap maps each Unit back to its wire code.
func (m *Model) ReverseUnitMap() map[units.Unit]string {
	reversed := make(map[units.Unit]string, len(m.UnitMap))
	for code, unit := range m.UnitMap {
		reversed[unit] = code
	}
	return reversed
}

// StatusMap returns the selected status map for publication to front ends,
// keyed by status name rather than wire code.
func (m *Model) StatusMap(version int) map[string]int {
	result := map[string]int{}
	for _, status := range m.statusMaps[version] {
		result[status.String()] = int(status)
	}
	return result
}
