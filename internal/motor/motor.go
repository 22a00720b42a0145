package motor

import (
	"errors"
	"fmt"
)

const (
	MaxPwmValue = 100
	MinPwmValue = 0
)

// ErrPwmOutOfRange indicates a commanded speed outside [0, 100]. The PID
// controller already clamps its output, so hitting this error means a
// programming or configuration defect. It is never silently corrected at
// this boundary: the motor is stopped and the error surfaced.
var ErrPwmOutOfRange = errors.New("pwm value out of range")

// Motor drives the trickler vibration motor through a PWM signal with a duty
// cycle between 0 and 100 percent.
type Motor interface {
	// GetPwm returns the last applied duty cycle.
	GetPwm() int

	// SetPwm applies the given duty cycle. Fails with ErrPwmOutOfRange for
	// values outside [0, 100], stopping the motor in the process.
	SetPwm(pwm int) error

	// Stop turns the motor off. It is idempotent and safe to call from any
	// fault or teardown path at any time.
	Stop() error
}

func outOfRange(pwm int) error {
	return fmt.Errorf("%w: %d not in [%d, %d]", ErrPwmOutOfRange, pwm, MinPwmValue, MaxPwmValue)
}
