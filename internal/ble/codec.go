package ble

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/units"
)

// Characteristic payload codecs. Booleans and enums travel as a single
// byte, weights as the bytes of their decimal string so that no precision
// is lost on the way to the companion app.

func encodeBool(value bool) []byte {
	if value {
		return []byte{0x01}
	}
	return []byte{0x00}
}

func decodeBool(data []byte) (bool, error) {
	if len(data) != 1 {
		return false, fmt.Errorf("boolean payload must be 1 byte, got %d", len(data))
	}
	switch data[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean payload: %#x", data[0])
}

func encodeStatus(status scale.Status) []byte {
	return []byte{byte(status)}
}

func encodeUnit(unit units.Unit) []byte {
	return []byte{byte(unit)}
}

func decodeUnit(data []byte) (units.Unit, error) {
	if len(data) != 1 {
		return units.Grains, fmt.Errorf("unit payload must be 1 byte, got %d", len(data))
	}
	switch data[0] {
	case byte(units.Grains):
		return units.Grains, nil
	case byte(units.Grams):
		return units.Grams, nil
	}
	return units.Grains, fmt.Errorf("invalid unit payload: %#x", data[0])
}

func encodeDecimal(value decimal.Decimal) []byte {
	return []byte(value.String())
}

func decodeDecimal(data []byte) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(string(data))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal payload %q: %w", string(data), err)
	}
	return value, nil
}
