package persistence

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/units"
)

func testPersistence(t *testing.T) Persistence {
	t.Helper()
	p := NewPersistence(filepath.Join(t.TempDir(), "trickle2go.db"))
	assert.NoError(t, p.Init())
	return p
}

func TestSaveAndLoadSettings(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	settings := state.Settings{
		AutoMode:     true,
		TargetWeight: decimal.RequireFromString("25.40"),
		TargetUnit:   units.Grains,
	}

	// WHEN
	err := p.SaveSettings(settings)
	assert.NoError(t, err)
	loaded, err := p.LoadSettings()

	// THEN
	assert.NoError(t, err)
	assert.True(t, loaded.AutoMode)
	assert.True(t, loaded.TargetWeight.Equal(settings.TargetWeight))
	assert.Equal(t, units.Grains, loaded.TargetUnit)
}

func TestLoadSettingsFreshDatabase(t *testing.T) {
	// GIVEN
	p := testPersistence(t)

	// WHEN
	_, err := p.LoadSettings()

	// THEN
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveSettingsOverwrites(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	assert.NoError(t, p.SaveSettings(state.Settings{
		TargetWeight: decimal.RequireFromString("10.00"),
	}))

	// WHEN
	assert.NoError(t, p.SaveSettings(state.Settings{
		TargetWeight: decimal.RequireFromString("42.00"),
	}))

	// THEN
	loaded, err := p.LoadSettings()
	assert.NoError(t, err)
	assert.True(t, loaded.TargetWeight.Equal(decimal.RequireFromString("42")))
}
