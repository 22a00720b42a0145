package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/controller/mode"
	"github.com/opentrickler/trickle2go/internal/pid"
	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/units"
)

type pollResult struct {
	reading scale.Reading
	err     error
}

type MockScale struct {
	model       *scale.Model
	results     []pollResult
	next        int
	unitChanges int
}

func NewMockScale(t *testing.T) *MockScale {
	t.Helper()
	model, err := scale.GetModel("and")
	assert.NoError(t, err)
	return &MockScale{model: model}
}

func (s *MockScale) Model() *scale.Model { return s.model }

func (s *MockScale) Poll(_ context.Context) (scale.Reading, error) {
	if s.next >= len(s.results) {
		return scale.Reading{}, scale.ErrTimeout
	}
	result := s.results[s.next]
	s.next++
	return result.reading, result.err
}

func (s *MockScale) ChangeUnit() error {
	s.unitChanges++
	return nil
}

func (s *MockScale) Close() error { return nil }

func (s *MockScale) queueReading(reading scale.Reading) {
	s.results = append(s.results, pollResult{reading: reading})
}

func (s *MockScale) queueError(err error) {
	s.results = append(s.results, pollResult{err: err})
}

type MockMotor struct {
	mu    sync.Mutex
	pwm   int
	stops int
}

func (m *MockMotor) GetPwm() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pwm
}

func (m *MockMotor) SetPwm(pwm int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pwm = pwm
	return nil
}

func (m *MockMotor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pwm = 0
	m.stops++
	return nil
}

func grains(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func stableReading(weight string, at time.Time) scale.Reading {
	return scale.Reading{
		Weight:     grains(weight),
		Unit:       units.Grains,
		Resolution: grains("0.02"),
		Stable:     true,
		Status:     scale.StatusStable,
		Timestamp:  at,
	}
}

func unstableReading(weight string, at time.Time) scale.Reading {
	r := stableReading(weight, at)
	r.Stable = false
	r.Status = scale.StatusUnstable
	return r
}

func testControllerWith(t *testing.T, mockScale *MockScale, mockMotor *MockMotor) (*TricklerController, *state.Store) {
	t.Helper()
	store := state.NewStore()
	pidController := pid.NewController(
		configuration.PidConfig{P: 10.0, I: 2.0, D: 1.0, StallThreshold: 5.0},
		configuration.MotorConfig{MinPwm: 15, MaxPwm: 100},
	)
	inferencer := scale.NewInferencer(mockScale.Model(), 5)
	config := configuration.ControllerConfig{
		Tolerance:  grains("0.0"),
		StartDelay: 500 * time.Millisecond,
	}
	return NewTricklerController(mockScale, mockMotor, pidController, inferencer, store, config, nil), store
}

func runCycles(t *testing.T, c *TricklerController, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		assert.NoError(t, c.cycle(context.Background()))
	}
}

func TestTimeoutFailsSafeWithinOneCycle(t *testing.T) {
	// GIVEN: a running automatic trickle
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	c.mode = mode.Auto
	store.UpdateSettings(func(s *state.Settings) {
		s.AutoMode = true
		s.TargetWeight = grains("10.00")
		s.TargetUnit = units.Grains
	})
	c.lastTarget = grains("10.00")
	mockScale.queueReading(unstableReading("9.50", time.Now()))
	runCycles(t, c, 1)
	assert.Greater(t, mockMotor.GetPwm(), 0)

	// WHEN: the scale stops responding
	mockScale.queueError(scale.ErrTimeout)
	runCycles(t, c, 1)

	// THEN: the motor is stopped and the loop is back in Idle
	assert.Equal(t, 0, mockMotor.GetPwm())
	assert.Equal(t, mode.Idle, c.mode)
	assert.Equal(t, scale.StatusError, store.Snapshot().Status)
	assert.False(t, store.Snapshot().Stable)
}

func TestGarbledFrameSkipsCycleWithoutTransition(t *testing.T) {
	// GIVEN: a running automatic trickle
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	c.mode = mode.Auto
	store.UpdateSettings(func(s *state.Settings) {
		s.AutoMode = true
		s.TargetWeight = grains("10.00")
		s.TargetUnit = units.Grains
	})
	c.lastTarget = grains("10.00")
	mockScale.queueReading(unstableReading("9.50", time.Now()))
	runCycles(t, c, 1)
	pwmBefore := mockMotor.GetPwm()
	assert.Greater(t, pwmBefore, 0)

	// WHEN: a corrupted frame arrives
	mockScale.queueError(&scale.ParseError{Line: "XX12garbage", Reason: "unknown status code"})
	runCycles(t, c, 1)

	// THEN: the cycle is skipped, mode and motor state are untouched
	assert.Equal(t, mode.Auto, c.mode)
	assert.Equal(t, pwmBefore, mockMotor.GetPwm())
}

func TestAutoTrickleConvergesToDone(t *testing.T) {
	// GIVEN: automatic mode with a 10.00 gn target and a settled pan
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	store.UpdateSettings(func(s *state.Settings) {
		s.AutoMode = true
		s.TargetWeight = grains("10.00")
		s.TargetUnit = units.Grains
	})

	now := time.Now()
	// the pan must be stable for the start delay before the motor starts
	mockScale.queueReading(stableReading("9.50", now))
	mockScale.queueReading(stableReading("9.50", now.Add(200*time.Millisecond)))
	mockScale.queueReading(stableReading("9.50", now.Add(700*time.Millisecond)))
	runCycles(t, c, 3)
	assert.Equal(t, mode.Auto, c.mode)

	// WHEN: powder flows in towards the target
	mockScale.queueReading(unstableReading("9.50", now.Add(800*time.Millisecond)))
	mockScale.queueReading(unstableReading("9.80", now.Add(900*time.Millisecond)))
	mockScale.queueReading(unstableReading("9.95", now.Add(1000*time.Millisecond)))
	runCycles(t, c, 3)
	assert.Equal(t, mode.Auto, c.mode)

	// THEN: a stable reading at the target completes the run
	mockScale.queueReading(stableReading("10.00", now.Add(1100*time.Millisecond)))
	runCycles(t, c, 1)
	assert.Equal(t, mode.Done, c.mode)
	assert.Equal(t, 0, mockMotor.GetPwm())
	assert.Equal(t, mode.Done, store.Snapshot().Mode)
}

func TestPanRemovedStopsTrickle(t *testing.T) {
	// GIVEN: a running automatic trickle
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	c.mode = mode.Auto
	store.UpdateSettings(func(s *state.Settings) {
		s.AutoMode = true
		s.TargetWeight = grains("10.00")
		s.TargetUnit = units.Grains
	})
	c.lastTarget = grains("10.00")
	mockScale.queueReading(unstableReading("9.50", time.Now()))
	runCycles(t, c, 1)
	assert.Greater(t, mockMotor.GetPwm(), 0)

	// WHEN: the pan is lifted off the scale
	mockScale.queueReading(unstableReading("-120.00", time.Now()))
	runCycles(t, c, 1)

	// THEN
	assert.Equal(t, mode.Idle, c.mode)
	assert.Equal(t, 0, mockMotor.GetPwm())
}

func TestUnitMismatchRequestsUnitChange(t *testing.T) {
	// GIVEN: a target in grains while the scale reports grams
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	store.UpdateSettings(func(s *state.Settings) {
		s.AutoMode = true
		s.TargetWeight = grains("10.00")
		s.TargetUnit = units.Grains
	})

	reading := stableReading("0.6150", time.Now())
	reading.Unit = units.Grams
	reading.Resolution = grains("0.0001")
	mockScale.queueReading(reading)

	// WHEN
	runCycles(t, c, 1)

	// THEN: the loop asked the scale to switch and stayed idle
	assert.Equal(t, 1, mockScale.unitChanges)
	assert.Equal(t, mode.Idle, c.mode)
	assert.Equal(t, 0, mockMotor.GetPwm())
}

func TestUnitChangeRequestedWhileAutoOff(t *testing.T) {
	// GIVEN: automatic mode disarmed, the usual moment to switch units
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	store.UpdateSettings(func(s *state.Settings) {
		s.TargetUnit = units.Grains
	})

	reading := stableReading("0.6480", time.Now())
	reading.Unit = units.Grams
	reading.Resolution = grains("0.0001")
	mockScale.queueReading(reading)

	// WHEN
	runCycles(t, c, 1)

	// THEN: the scale is asked to switch even though nothing is armed
	assert.Equal(t, 1, mockScale.unitChanges)
	assert.Equal(t, mode.Idle, c.mode)
	assert.Equal(t, 0, mockMotor.GetPwm())

	// AND: once the scale confirms, no further switch is requested
	mockScale.queueReading(stableReading("10.00", time.Now()))
	runCycles(t, c, 1)
	assert.Equal(t, 1, mockScale.unitChanges)
}

func TestManualMode(t *testing.T) {
	// GIVEN
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	store.UpdateSettings(func(s *state.Settings) {
		s.ManualSpeed = 60
	})

	// WHEN
	mockScale.queueReading(stableReading("0.00", time.Now()))
	runCycles(t, c, 1)

	// THEN
	assert.Equal(t, mode.Manual, c.mode)
	assert.Equal(t, 60, mockMotor.GetPwm())

	// WHEN: manual speed is cleared again
	store.UpdateSettings(func(s *state.Settings) {
		s.ManualSpeed = 0
	})
	mockScale.queueReading(stableReading("0.00", time.Now()))
	runCycles(t, c, 1)

	// THEN
	assert.Equal(t, mode.Idle, c.mode)
	assert.Equal(t, 0, mockMotor.GetPwm())
}

func TestTargetChangeLeavesDone(t *testing.T) {
	// GIVEN: a completed run
	mockScale := NewMockScale(t)
	mockMotor := &MockMotor{}
	c, store := testControllerWith(t, mockScale, mockMotor)
	c.mode = mode.Done
	c.lastTarget = grains("10.00")
	store.UpdateSettings(func(s *state.Settings) {
		s.AutoMode = true
		s.TargetWeight = grains("10.00")
		s.TargetUnit = units.Grains
	})

	// WHEN: the user dials in the next charge
	store.UpdateSettings(func(s *state.Settings) {
		s.TargetWeight = grains("24.50")
	})
	mockScale.queueReading(unstableReading("10.00", time.Now()))
	runCycles(t, c, 1)

	// THEN
	assert.Equal(t, mode.Idle, c.mode)
}
