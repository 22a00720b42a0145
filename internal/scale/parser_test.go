package scale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/opentrickler/trickle2go/internal/units"
)

func newTestParser(t *testing.T, modelName string) *Parser {
	t.Helper()
	model, err := GetModel(modelName)
	assert.NoError(t, err)
	parser, err := NewParser(model, 1)
	assert.NoError(t, err)
	return parser
}

func TestParseANDStableGrainsFrame(t *testing.T) {
	// GIVEN
	parser := newTestParser(t, "and")
	now := time.Now()

	// WHEN
	reading, err := parser.ParseFrame("ST,+00012.34 GN\r\n", now)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, StatusStable, reading.Status)
	assert.True(t, reading.Stable)
	assert.True(t, reading.Weight.Equal(decimal.RequireFromString("12.34")))
	assert.Equal(t, units.Grains, reading.Unit)
	assert.True(t, reading.Resolution.Equal(decimal.RequireFromString("0.02")))
	assert.Equal(t, now, reading.Timestamp)
}

func TestParseANDUnstableGramsFrame(t *testing.T) {
	// GIVEN
	parser := newTestParser(t, "and")

	// WHEN
	reading, err := parser.ParseFrame("US,+001.2345  g\r\n", time.Now())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, StatusUnstable, reading.Status)
	assert.False(t, reading.Stable)
	assert.True(t, reading.Weight.Equal(decimal.RequireFromString("1.2345")))
	assert.Equal(t, units.Grams, reading.Unit)
}

func TestParseANDNegativeWeight(t *testing.T) {
	// GIVEN: pan lifted off the scale
	parser := newTestParser(t, "and")

	// WHEN
	reading, err := parser.ParseFrame("US,-00120.50 GN\r\n", time.Now())

	// THEN
	assert.NoError(t, err)
	assert.True(t, reading.Weight.IsNegative())
}

func TestParseANDStatusOnlyFrames(t *testing.T) {
	// GIVEN
	parser := newTestParser(t, "and")

	cases := map[string]Status{
		"OL": StatusOverload,
		"EC": StatusError,
		"AK": StatusAcknowledge,
	}
	for frame, expected := range cases {
		// WHEN
		reading, err := parser.ParseFrame(frame+"\r\n", time.Now())

		// THEN
		assert.NoError(t, err)
		assert.Equal(t, expected, reading.Status)
		assert.False(t, reading.HasWeight())
	}
}

func TestParseANDGarbledFrame(t *testing.T) {
	// GIVEN
	parser := newTestParser(t, "and")

	for _, frame := range []string{
		"XX12garbage\r\n",
		"ST,garbage12 GN\r\n",
		"ST,+00012.34 XX\r\n",
		"ST,+0001\r\n",
		"\r\n",
	} {
		// WHEN
		_, err := parser.ParseFrame(frame, time.Now())

		// THEN: a recoverable parse error, never a crash or a bogus reading
		assert.Error(t, err, "frame %q must fail", frame)
		assert.True(t, IsParseError(err), "frame %q must yield a parse error", frame)
	}
}

func TestParseCreedmoorFrame(t *testing.T) {
	// GIVEN
	parser := newTestParser(t, "creedmoor")

	// WHEN
	reading, err := parser.ParseFrame("+0012.34 GN\r\n", time.Now())

	// THEN: no native stability, the frame is never stable by itself
	assert.NoError(t, err)
	assert.Equal(t, StatusUnstable, reading.Status)
	assert.False(t, reading.Stable)
	assert.True(t, reading.Weight.Equal(decimal.RequireFromString("12.34")))
	assert.Equal(t, units.Grains, reading.Unit)
}

func TestParseUSSolidFrame(t *testing.T) {
	// GIVEN
	parser := newTestParser(t, "ussolid")

	// WHEN: the weight field pads with spaces instead of zeros
	reading, err := parser.ParseFrame("+  12.345 g\r\n", time.Now())

	// THEN
	assert.NoError(t, err)
	assert.True(t, reading.Weight.Equal(decimal.RequireFromString("12.345")))
	assert.Equal(t, units.Grams, reading.Unit)
	assert.False(t, reading.Stable)
}

func TestNewParserUnknownStatusMapVersion(t *testing.T) {
	// GIVEN
	model, err := GetModel("and")
	assert.NoError(t, err)

	// WHEN
	_, err = NewParser(model, 99)

	// THEN
	assert.Error(t, err)
}

func TestModelAlias(t *testing.T) {
	// WHEN
	model, err := GetModel("and-fx120")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, "and", model.Name)
}
