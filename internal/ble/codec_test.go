package ble

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/units"
)

func TestBoolCodec(t *testing.T) {
	assert.Equal(t, []byte{0x01}, encodeBool(true))
	assert.Equal(t, []byte{0x00}, encodeBool(false))

	value, err := decodeBool([]byte{0x01})
	assert.NoError(t, err)
	assert.True(t, value)

	value, err = decodeBool([]byte{0x00})
	assert.NoError(t, err)
	assert.False(t, value)

	_, err = decodeBool([]byte{0x02})
	assert.Error(t, err)

	_, err = decodeBool([]byte{0x01, 0x00})
	assert.Error(t, err)
}

func TestUnitCodec(t *testing.T) {
	for _, unit := range units.All() {
		decoded, err := decodeUnit(encodeUnit(unit))
		assert.NoError(t, err)
		assert.Equal(t, unit, decoded)
	}

	_, err := decodeUnit([]byte{0xff})
	assert.Error(t, err)
}

func TestStatusCodec(t *testing.T) {
	assert.Equal(t, []byte{0x00}, encodeStatus(scale.StatusStable))
	assert.Equal(t, []byte{0x01}, encodeStatus(scale.StatusUnstable))
}

func TestDecimalCodec(t *testing.T) {
	value := decimal.RequireFromString("25.42")
	decoded, err := decodeDecimal(encodeDecimal(value))
	assert.NoError(t, err)
	assert.True(t, value.Equal(decoded))

	_, err = decodeDecimal([]byte("not a number"))
	assert.Error(t, err)
}
