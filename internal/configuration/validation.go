package configuration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opentrickler/trickle2go/internal/scale"
	"golang.org/x/exp/slices"
)

// Validate checks the loaded configuration. Any error returned here is fatal
// at startup: the daemon must not run with an invalid configuration.
func Validate() error {
	return validateConfig(&CurrentConfig)
}

func validateConfig(config *Configuration) error {
	if err := validateScale(&config.Scale); err != nil {
		return err
	}
	if err := validateMotor(&config.Motor); err != nil {
		return err
	}
	if err := validatePid(&config.PID); err != nil {
		return err
	}
	return validateController(&config.Controller)
}

func validateScale(config *ScaleConfig) error {
	model, err := scale.GetModel(config.Model)
	if err != nil {
		names := scale.ModelNames()
		slices.Sort(names)
		return fmt.Errorf("scale: unsupported model %q, use one of: %s", config.Model, strings.Join(names, " | "))
	}

	if !model.HasStatusMapVersion(config.StatusMapVersion) {
		versions := model.StatusMapVersions()
		slices.Sort(versions)
		return fmt.Errorf("scale: model %q has no status map version %d, available: %v", model.Name, config.StatusMapVersion, versions)
	}

	if len(config.Port) <= 0 {
		return errors.New("scale: no serial port configured")
	}

	if config.StableReadingLength < 1 {
		return fmt.Errorf("scale: stableReadingLength must be >= 1, got %d", config.StableReadingLength)
	}

	return nil
}

func validateMotor(config *MotorConfig) error {
	if len(config.PwmChannelPath) <= 0 {
		return errors.New("motor: no pwm channel path configured")
	}

	if config.MinPwm < 0 || config.MaxPwm > 100 {
		return fmt.Errorf("motor: pwm bounds [%d, %d] outside of [0, 100]", config.MinPwm, config.MaxPwm)
	}

	if config.MinPwm >= config.MaxPwm {
		return fmt.Errorf("motor: minPwm (%d) must be below maxPwm (%d)", config.MinPwm, config.MaxPwm)
	}

	if config.PwmPeriod <= 0 {
		return errors.New("motor: pwm period must be positive")
	}

	return nil
}

func validatePid(config *PidConfig) error {
	if config.P == 0 && config.I == 0 && config.D == 0 {
		return errors.New("pid: all PID constants are zero")
	}

	if config.P < 0 || config.I < 0 || config.D < 0 {
		return errors.New("pid: PID constants must not be negative")
	}

	if config.StallThreshold < 0 {
		return errors.New("pid: stall threshold must not be negative")
	}

	if config.TunerMode && len(config.TunerLogPath) <= 0 {
		return errors.New("pid: tuner mode enabled but no tuner log path configured")
	}

	return nil
}

func validateController(config *ControllerConfig) error {
	if config.Tolerance.IsNegative() {
		return errors.New("controller: tolerance must not be negative")
	}

	return nil
}
