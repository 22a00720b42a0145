package controller

import (
	"context"
	"errors"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/shopspring/decimal"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/controller/mode"
	"github.com/opentrickler/trickle2go/internal/motor"
	"github.com/opentrickler/trickle2go/internal/pid"
	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/ui"
	"github.com/opentrickler/trickle2go/internal/util"
)

// trickleRateWindowSize is the number of cycles the trickle rate telemetry
// averages over.
const trickleRateWindowSize = 20

// TricklerController runs the closed control loop: poll the scale, derive
// stability, walk the state machine and drive the motor. It is the only
// writer of dynamic state in the store.
type TricklerController struct {
	scale      scale.Scale
	motor      motor.Motor
	pid        *pid.Controller
	inferencer *scale.Inferencer
	store      *state.Store
	config     configuration.ControllerConfig

	tunerLog *pid.TunerLog

	mode       mode.Mode
	lastTarget decimal.Decimal
	readySince time.Time

	lastWeight    decimal.Decimal
	lastWeightAt  time.Time
	hasLastWeight bool
	rateWindow    *rolling.PointPolicy
}

func NewTricklerController(
	sc scale.Scale,
	mt motor.Motor,
	pidController *pid.Controller,
	inferencer *scale.Inferencer,
	store *state.Store,
	config configuration.ControllerConfig,
	tunerLog *pid.TunerLog,
) *TricklerController {
	return &TricklerController{
		scale:      sc,
		motor:      mt,
		pid:        pidController,
		inferencer: inferencer,
		store:      store,
		config:     config,
		tunerLog:   tunerLog,
		mode:       mode.Idle,
		rateWindow: util.CreateRollingWindow(trickleRateWindowSize),
	}
}

// Run executes the control loop until the context is cancelled. The motor is
// guaranteed to be stopped when Run returns.
func (c *TricklerController) Run(ctx context.Context) error {
	defer func() {
		if err := c.motor.Stop(); err != nil {
			ui.Error("Cannot stop motor on shutdown: %v", err)
		}
		if c.tunerLog != nil {
			if err := c.tunerLog.Flush(); err != nil {
				ui.Warning("Cannot flush tuner log: %v", err)
			}
		}
	}()

	ui.Info("Starting trickle control loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := c.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// cycle runs exactly one loop iteration.
func (c *TricklerController) cycle(ctx context.Context) error {
	reading, err := c.scale.Poll(ctx)
	if err != nil {
		return c.handlePollError(ctx, err)
	}

	stable := c.inferencer.Update(reading)
	settings := c.store.Settings()

	if !settings.TargetWeight.Equal(c.lastTarget) {
		// a new target invalidates accumulated loop state and any pending
		// completion acknowledgement
		c.pid.Reset()
		c.lastTarget = settings.TargetWeight
		c.readySince = time.Time{}
		if c.mode == mode.Done {
			c.mode = mode.Idle
		}
	}

	if reading.HasWeight() {
		c.updateTrickleRate(reading)
	}

	c.step(reading, stable, settings)

	c.publish(reading, stable, settings)
	return nil
}

// handlePollError decides between skipping a cycle and failing safe. A
// garbled frame only costs one cycle; anything else means the scale link is
// gone and the motor must not keep running on stale data.
func (c *TricklerController) handlePollError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if scale.IsParseError(err) {
		ui.Debug("Skipping garbled scale frame: %v", err)
		return nil
	}

	if errors.Is(err, scale.ErrTimeout) {
		ui.Warning("Scale timed out, stopping motor")
	} else {
		ui.Error("Scale poll failed, stopping motor: %v", err)
	}

	c.failSafe()
	return nil
}

// failSafe stops the motor and drops the loop back to Idle.
func (c *TricklerController) failSafe() {
	if err := c.motor.Stop(); err != nil {
		ui.Error("Cannot stop motor: %v", err)
	}
	c.mode = mode.Idle
	c.readySince = time.Time{}
	c.pid.Reset()
	c.inferencer.Reset()
	c.hasLastWeight = false

	snapshot := c.store.Snapshot()
	snapshot.Mode = c.mode
	snapshot.Status = scale.StatusError
	snapshot.Stable = false
	snapshot.MotorSpeed = 0
	snapshot.Timestamp = time.Now()
	c.store.PublishSnapshot(snapshot)
}

// step advances the state machine by one cycle.
func (c *TricklerController) step(reading scale.Reading, stable bool, settings state.Settings) {
	switch c.mode {
	case mode.Idle:
		c.stepIdle(reading, stable, settings)
	case mode.Auto:
		c.stepAuto(reading, stable, settings)
	case mode.Manual:
		c.stepManual(settings)
	case mode.Done:
		c.stepDone(settings)
	}
}

func (c *TricklerController) stepIdle(reading scale.Reading, stable bool, settings state.Settings) {
	// A unit mismatch is resolved regardless of arming state, so switching
	// units from a front end takes effect on the scale right away.
	if reading.HasWeight() && reading.Unit != settings.TargetUnit {
		c.readySince = time.Time{}
		ui.Info("Scale reports %s but target is %s, requesting unit change", reading.Unit, settings.TargetUnit)
		if err := c.scale.ChangeUnit(); err != nil {
			ui.Warning("Cannot change scale unit: %v", err)
		}
		return
	}

	if !settings.AutoMode && settings.ManualSpeed > 0 {
		c.enterManual(settings)
		return
	}

	if !settings.AutoMode || settings.TargetWeight.LessThanOrEqual(decimal.Zero) {
		c.readySince = time.Time{}
		return
	}

	if !reading.HasWeight() {
		c.readySince = time.Time{}
		return
	}

	if !stable {
		c.readySince = time.Time{}
		return
	}

	// an empty or part-filled pan must settle for the start delay before
	// trickling begins, so that bumping the bench does not start the motor
	if c.readySince.IsZero() {
		c.readySince = reading.Timestamp
		return
	}
	if reading.Timestamp.Sub(c.readySince) < c.config.StartDelay {
		return
	}

	ui.Info("Starting automatic trickle towards %s %s", settings.TargetWeight, settings.TargetUnit.Symbol())
	c.pid.Reset()
	c.mode = mode.Auto
	c.readySince = time.Time{}
}

func (c *TricklerController) stepAuto(reading scale.Reading, stable bool, settings state.Settings) {
	if !settings.AutoMode {
		ui.Info("Automatic mode disabled, stopping trickle")
		c.exitAuto()
		return
	}

	if !reading.HasWeight() {
		// overload, underload or status-only frame mid-run
		ui.Warning("Scale reports %s during trickle, stopping motor", reading.Status)
		c.exitAuto()
		return
	}

	if reading.Weight.IsNegative() {
		// negative weight means the pan was lifted off the scale
		ui.Info("Pan removed, stopping trickle")
		c.exitAuto()
		return
	}

	if reading.Unit != settings.TargetUnit {
		ui.Warning("Scale unit changed to %s during trickle, stopping motor", reading.Unit)
		c.exitAuto()
		return
	}

	remainder := settings.TargetWeight.Sub(reading.Weight)
	if remainder.LessThanOrEqual(c.config.Tolerance) && stable {
		ui.Info("Target weight %s %s reached at %s", settings.TargetWeight, settings.TargetUnit.Symbol(), reading.Weight)
		c.exitAuto()
		c.mode = mode.Done
		return
	}

	target, _ := settings.TargetWeight.Float64()
	current, _ := reading.Weight.Float64()
	pwm := c.pid.Compute(target, current, reading.Timestamp)
	if c.tunerLog != nil {
		c.tunerLog.Record(reading.Timestamp, target, current, c.pid.LastRaw(), pwm)
		ui.Debug("pidtune: weight=%.4f raw=%.4f pwm=%d", current, c.pid.LastRaw(), pwm)
	}
	if err := c.motor.SetPwm(pwm); err != nil {
		ui.Error("Cannot set motor speed, stopping trickle: %v", err)
		c.exitAuto()
	}
}

func (c *TricklerController) stepManual(settings state.Settings) {
	if settings.AutoMode || settings.ManualSpeed <= 0 {
		if err := c.motor.Stop(); err != nil {
			ui.Error("Cannot stop motor: %v", err)
		}
		c.mode = mode.Idle
		return
	}
	if err := c.motor.SetPwm(settings.ManualSpeed); err != nil {
		ui.Error("Cannot set manual motor speed: %v", err)
		c.mode = mode.Idle
	}
}

func (c *TricklerController) stepDone(settings state.Settings) {
	// Done is left either through a target change (handled in cycle) or by
	// switching automatic mode off and on again.
	if !settings.AutoMode {
		c.mode = mode.Idle
	}
}

func (c *TricklerController) enterManual(settings state.Settings) {
	if err := c.motor.SetPwm(settings.ManualSpeed); err != nil {
		ui.Error("Cannot set manual motor speed: %v", err)
		return
	}
	ui.Info("Manual mode, motor at %d%%", settings.ManualSpeed)
	c.mode = mode.Manual
}

// exitAuto stops the motor and clears all loop state of the finished or
// aborted run. The caller decides the follow-up mode, default is Idle.
func (c *TricklerController) exitAuto() {
	if err := c.motor.Stop(); err != nil {
		ui.Error("Cannot stop motor: %v", err)
	}
	c.pid.Reset()
	c.mode = mode.Idle
	if c.tunerLog != nil {
		if err := c.tunerLog.Flush(); err != nil {
			ui.Warning("Cannot flush tuner log: %v", err)
		}
	}
}

// updateTrickleRate tracks the observed powder flow in weight units per
// second over a rolling window. Telemetry only, the loop never acts on it.
func (c *TricklerController) updateTrickleRate(reading scale.Reading) {
	if c.hasLastWeight {
		elapsed := reading.Timestamp.Sub(c.lastWeightAt).Seconds()
		if elapsed > 0 {
			delta, _ := reading.Weight.Sub(c.lastWeight).Float64()
			c.rateWindow.Append(delta / elapsed)
		}
	}
	c.lastWeight = reading.Weight
	c.lastWeightAt = reading.Timestamp
	c.hasLastWeight = true
}

// TrickleRate returns the average observed flow over the telemetry window.
func (c *TricklerController) TrickleRate() float64 {
	return util.GetWindowAvg(c.rateWindow)
}

func (c *TricklerController) publish(reading scale.Reading, stable bool, settings state.Settings) {
	snapshot := state.Snapshot{
		Mode:         c.mode,
		AutoMode:     settings.AutoMode,
		TargetWeight: settings.TargetWeight,
		TargetUnit:   settings.TargetUnit,
		Weight:       reading.Weight,
		Unit:         reading.Unit,
		Resolution:   reading.Resolution,
		Stable:       stable,
		Status:       reading.Status,
		MotorSpeed:   c.motor.GetPwm(),
		Timestamp:    reading.Timestamp,
	}
	c.store.PublishSnapshot(snapshot)
}
