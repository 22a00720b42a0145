package units

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit is a unit of weight supported by the trickler.
type Unit int

const (
	Grains Unit = 0
	Grams  Unit = 1
)

// gramsPerGrain is exact by definition (1 gn = 64.79891 mg).
var gramsPerGrain = decimal.RequireFromString("0.06479891")

var displayResolution = map[Unit]decimal.Decimal{
	Grains: decimal.RequireFromString("0.01"),
	Grams:  decimal.RequireFromString("0.001"),
}

func (u Unit) String() string {
	switch u {
	case Grains:
		return "GRAINS"
	case Grams:
		return "GRAMS"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Symbol returns the short unit code used on the wire and in the REST API.
func (u Unit) Symbol() string {
	switch u {
	case Grains:
		return "gn"
	case Grams:
		return "g"
	}
	return "?"
}

// Resolution returns the display resolution of the unit, the smallest
// increment shown to a user when no scale-specific resolution applies.
func (u Unit) Resolution() decimal.Decimal {
	return displayResolution[u]
}

// Parse maps a unit symbol to a Unit. Both the REST ("g", "gn") and the
// scale protocol ("g", "GN") spellings are accepted.
func Parse(symbol string) (Unit, error) {
	switch symbol {
	case "gn", "GN", "grains", "GRAINS":
		return Grains, nil
	case "g", "grams", "GRAMS":
		return Grams, nil
	}
	return Grains, fmt.Errorf("unknown weight unit: %q", symbol)
}

// Convert converts a weight value between the supported units. The result is
// quantized to the resolution of the target unit. Converting a value to its
// own unit returns the value unchanged.
func Convert(value decimal.Decimal, from Unit, to Unit) decimal.Decimal {
	if from == to {
		return value
	}

	var converted decimal.Decimal
	switch {
	case from == Grains && to == Grams:
		converted = value.Mul(gramsPerGrain)
	case from == Grams && to == Grains:
		converted = value.Div(gramsPerGrain)
	default:
		return value
	}

	return Quantize(converted, to.Resolution())
}

// Quantize rounds the given value to the nearest multiple of the given
// resolution step.
func Quantize(value decimal.Decimal, resolution decimal.Decimal) decimal.Decimal {
	if resolution.IsZero() {
		return value
	}
	return value.Div(resolution).Round(0).Mul(resolution)
}

// All returns all supported units in a stable order.
func All() []Unit {
	return []Unit{Grains, Grams}
}
