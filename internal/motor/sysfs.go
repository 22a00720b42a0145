package motor

import (
	"path/filepath"
	"sync"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/ui"
	"github.com/opentrickler/trickle2go/internal/util"
)

// SysfsMotor drives the motor through an exported sysfs PWM channel, the
// same mechanism the kernel exposes for the hardware PWM pins of the Pi.
type SysfsMotor struct {
	channelPath string
	periodNs    int

	mu  sync.Mutex
	pwm int
}

// NewSysfsMotor configures the PWM channel (period, zero duty, enabled) and
// returns the motor handle.
func NewSysfsMotor(config configuration.MotorConfig) (*SysfsMotor, error) {
	m := &SysfsMotor{
		channelPath: config.PwmChannelPath,
		periodNs:    int(config.PwmPeriod.Nanoseconds()),
	}

	if duty, err := util.ReadIntFromFile(m.file("duty_cycle")); err == nil && duty > 0 {
		ui.Warning("Motor was still running (duty %dns), stopping it", duty)
	}

	if err := util.WriteIntToFile(m.periodNs, m.file("period")); err != nil {
		return nil, err
	}
	if err := util.WriteIntToFile(0, m.file("duty_cycle")); err != nil {
		return nil, err
	}
	if err := util.WriteIntToFile(1, m.file("enable")); err != nil {
		return nil, err
	}

	ui.Debug("Created pwm motor on channel %s with period %dns", m.channelPath, m.periodNs)
	return m, nil
}

func (m *SysfsMotor) GetPwm() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pwm
}

func (m *SysfsMotor) SetPwm(pwm int) error {
	if pwm < MinPwmValue || pwm > MaxPwmValue {
		// last line of defense before physical actuation
		_ = m.Stop()
		return outOfRange(pwm)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if pwm == m.pwm {
		return nil
	}

	duty := m.periodNs / MaxPwmValue * pwm
	if err := util.WriteIntToFile(duty, m.file("duty_cycle")); err != nil {
		return err
	}
	m.pwm = pwm
	return nil
}

func (m *SysfsMotor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := util.WriteIntToFile(0, m.file("duty_cycle")); err != nil {
		return err
	}
	m.pwm = 0
	return nil
}

func (m *SysfsMotor) file(name string) string {
	return filepath.Join(m.channelPath, name)
}
