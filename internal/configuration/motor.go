package configuration

import "time"

type MotorConfig struct {
	// PwmChannelPath is the sysfs directory of the exported PWM channel
	// driving the trickler motor.
	PwmChannelPath string `json:"pwmChannelPath"`

	// PwmPeriod is the PWM signal period.
	PwmPeriod time.Duration `json:"pwmPeriod"`

	// MinPwm is the lowest duty cycle (in percent) at which the motor still
	// turns. Values below it would stall the motor and burn the winding.
	MinPwm int `json:"minPwm"`

	// MaxPwm is the highest duty cycle (in percent) the motor may be driven
	// at.
	MaxPwm int `json:"maxPwm"`
}
