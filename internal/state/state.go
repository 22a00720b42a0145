package state

import (
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/shopspring/decimal"

	"github.com/opentrickler/trickle2go/internal/controller/mode"
	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/units"
)

// Well-known keys of the shared state store. External surfaces (REST, BLE,
// statistics) read these, only the control loop writes the dynamic ones.
const (
	KeyAutoMode            = "auto_mode"
	KeyScaleIsStable       = "scale_is_stable"
	KeyScaleResolution     = "scale_resolution"
	KeyScaleStatus         = "scale_status"
	KeyScaleUnit           = "scale_unit"
	KeyScaleUnits          = "scale_units"
	KeyScaleUnitMap        = "scale_unit_map"
	KeyScaleReverseUnitMap = "scale_reverse_unit_map"
	KeyScaleStatusMap      = "scale_status_map"
	KeyScaleResolutionMap  = "scale_resolution_map"
	KeyScaleWeight         = "scale_weight"
	KeyTargetWeight        = "target_weight"
	KeyTargetUnit          = "target_unit"
	KeyMotorSpeed          = "trickler_motor_speed"
	KeyMode                = "mode"
)

// Snapshot is the full dynamic state of the trickler at one point in time.
// It is published atomically by the control loop once per cycle so that no
// reader can ever observe a half-updated state.
type Snapshot struct {
	Mode         mode.Mode       `json:"mode"`
	AutoMode     bool            `json:"auto_mode"`
	TargetWeight decimal.Decimal `json:"target_weight"`
	TargetUnit   units.Unit      `json:"target_unit"`
	Weight       decimal.Decimal `json:"scale_weight"`
	Unit         units.Unit      `json:"scale_unit"`
	Resolution   decimal.Decimal `json:"scale_resolution"`
	Stable       bool            `json:"scale_is_stable"`
	Status       scale.Status    `json:"scale_status"`
	MotorSpeed   int             `json:"trickler_motor_speed"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Settings holds the user-writable inputs of the control loop. They are
// written by the REST and BLE surfaces and only ever read by the loop.
type Settings struct {
	AutoMode     bool            `json:"auto_mode"`
	TargetWeight decimal.Decimal `json:"target_weight"`
	TargetUnit   units.Unit      `json:"target_unit"`
	ManualSpeed  int             `json:"manual_speed"`
}

const subscriberBuffer = 8

// Store is the shared state store connecting the control loop to its
// external surfaces. Dynamic values flow in one direction only, from the
// loop into the store.
type Store struct {
	data cmap.ConcurrentMap[string, interface{}]

	mu          sync.RWMutex
	snapshot    Snapshot
	settings    Settings
	subscribers map[chan Snapshot]struct{}
}

func NewStore() *Store {
	return &Store{
		data:        cmap.New[interface{}](),
		subscribers: map[chan Snapshot]struct{}{},
	}
}

// Get returns the value stored under a well-known key.
func (s *Store) Get(key string) (interface{}, bool) {
	return s.data.Get(key)
}

// Snapshot returns the most recently published snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// PublishSnapshot replaces the current snapshot and notifies subscribers.
// Subscriber channels are bounded, a slow subscriber misses intermediate
// snapshots instead of stalling the control loop. The non-blocking sends
// happen under the store lock; Unsubscribe closes its channel under the same
// lock, so a send can never hit a closed channel.
func (s *Store) PublishSnapshot(snapshot Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
	s.mu.Unlock()

	s.data.Set(KeyMode, snapshot.Mode)
	s.data.Set(KeyAutoMode, snapshot.AutoMode)
	s.data.Set(KeyScaleIsStable, snapshot.Stable)
	s.data.Set(KeyScaleResolution, snapshot.Resolution)
	s.data.Set(KeyScaleStatus, snapshot.Status)
	s.data.Set(KeyScaleUnit, snapshot.Unit)
	s.data.Set(KeyScaleWeight, snapshot.Weight)
	s.data.Set(KeyTargetWeight, snapshot.TargetWeight)
	s.data.Set(KeyTargetUnit, snapshot.TargetUnit)
	s.data.Set(KeyMotorSpeed, snapshot.MotorSpeed)
}

// Subscribe returns a channel receiving every published snapshot that the
// subscriber keeps up with. Callers must Unsubscribe when done.
func (s *Store) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel. Deleting and closing
// under the lock keeps the channel out of any concurrent publish.
func (s *Store) Unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, ch)
	close(ch)
}

// Settings returns a copy of the current user settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies a mutation to the settings under the store lock.
func (s *Store) UpdateSettings(update func(settings *Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.settings)
	return s.settings
}

// SetScaleInfo publishes the static capability maps of the connected scale
// model. They never change while the daemon runs.
func (s *Store) SetScaleInfo(model *scale.Model, statusMapVersion int) {
	unitNames := make([]string, 0, len(model.ResolutionMap))
	resolutions := map[string]string{}
	for unit, resolution := range model.ResolutionMap {
		unitNames = append(unitNames, unit.String())
		resolutions[unit.Symbol()] = resolution.String()
	}

	s.data.Set(KeyScaleUnits, unitNames)
	s.data.Set(KeyScaleUnitMap, model.UnitMap)
	s.data.Set(KeyScaleReverseUnitMap, model.ReverseUnitMap())
	s.data.Set(KeyScaleStatusMap, model.StatusMap(statusMapVersion))
	s.data.Set(KeyScaleResolutionMap, resolutions)
}
