package configuration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validConfig() Configuration {
	return Configuration{
		DbPath: "/tmp/trickle2go.db",
		Scale: ScaleConfig{
			Model:               "and",
			Port:                "/dev/ttyUSB0",
			StableReadingLength: 5,
			StatusMapVersion:    1,
		},
		Motor: MotorConfig{
			PwmChannelPath: "/sys/class/pwm/pwmchip0/pwm0",
			PwmPeriod:      100 * time.Microsecond,
			MinPwm:         15,
			MaxPwm:         100,
		},
		PID: PidConfig{
			P:              10.0,
			I:              2.0,
			D:              1.0,
			StallThreshold: 5.0,
		},
		Controller: ControllerConfig{
			Tolerance:  decimal.Zero,
			StartDelay: 1 * time.Second,
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	// GIVEN
	config := validConfig()

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}

func TestValidateUnknownScaleModel(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Scale.Model = "acme9000"

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model")
}

func TestValidateUnknownStatusMapVersion(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Scale.StatusMapVersion = 42

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateMissingScalePort(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Scale.Port = ""

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateMotorBounds(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Motor.MinPwm = 80
	config.Motor.MaxPwm = 20

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateAllPidConstantsZero(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.PID.P = 0
	config.PID.I = 0
	config.PID.D = 0

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateTunerModeRequiresLogPath(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.PID.TunerMode = true
	config.PID.TunerLogPath = ""

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateNegativeTolerance(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Controller.Tolerance = decimal.RequireFromString("-0.1")

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}
