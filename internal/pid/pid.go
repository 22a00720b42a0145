package pid

import (
	"math"
	"sync"
	"time"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/util"
)

// Controller is a PID loop mapping the remaining weight error to a motor
// duty cycle. Output is always either exactly 0 or within [minPwm, maxPwm];
// raw outputs at or below the stall threshold collapse to 0 because the
// motor would only hum without moving powder at such duty cycles.
type Controller struct {
	p float64
	i float64
	d float64

	minPwm         int
	maxPwm         int
	stallThreshold float64

	mu        sync.Mutex
	integral  float64
	lastError float64
	lastTime  time.Time
	lastRaw   float64
}

func NewController(config configuration.PidConfig, motorConfig configuration.MotorConfig) *Controller {
	return &Controller{
		p:              config.P,
		i:              config.I,
		d:              config.D,
		minPwm:         motorConfig.MinPwm,
		maxPwm:         motorConfig.MaxPwm,
		stallThreshold: config.StallThreshold,
	}
}

// Compute advances the loop by one measurement and returns the duty cycle to
// apply. target and current are weights in the same unit.
func (c *Controller) Compute(target float64, current float64, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := target - current

	dt := 1.0
	if !c.lastTime.IsZero() {
		dt = now.Sub(c.lastTime).Seconds()
	}
	if dt <= 0 {
		dt = 1.0
	}

	c.integral += err * dt
	derivative := (err - c.lastError) / dt

	raw := c.p*err + c.i*c.integral + c.d*derivative
	c.lastRaw = raw
	c.lastError = err
	c.lastTime = now

	// anti-windup: keep the integral from accumulating past what the
	// output clamp can express
	if c.i > 0 {
		limit := float64(c.maxPwm) / c.i
		c.integral = util.Coerce(c.integral, -limit, limit)
	}

	return c.clamp(raw)
}

// clamp maps a raw loop output to an applicable duty cycle. The mapping is
// unconditional, tuner mode only records telemetry on top of it.
func (c *Controller) clamp(raw float64) int {
	if raw <= c.stallThreshold {
		return 0
	}
	coerced := util.Coerce(raw, float64(c.minPwm), float64(c.maxPwm))
	return int(math.Round(coerced))
}

// LastRaw returns the unclamped output of the most recent Compute call.
func (c *Controller) LastRaw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRaw
}

// Reset clears all accumulated loop state. Must be called whenever the
// target changes or an automatic trickle ends, so that stale integral and
// derivative terms cannot leak into the next run.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integral = 0
	c.lastError = 0
	c.lastTime = time.Time{}
	c.lastRaw = 0
}
