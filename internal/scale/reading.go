package scale

import (
	"time"

	"github.com/opentrickler/trickle2go/internal/units"
	"github.com/shopspring/decimal"
)

// Reading is a single parsed scale frame. Readings are immutable once
// constructed and are consumed by the control loop one cycle at a time.
type Reading struct {
	Weight     decimal.Decimal
	Unit       units.Unit
	Resolution decimal.Decimal
	Stable     bool
	Status     Status
	Timestamp  time.Time
}

// HasWeight reports whether the frame carried a weight field at all. Status
// frames like model/serial number responses or overload markers do not.
func (r Reading) HasWeight() bool {
	switch r.Status {
	case StatusStable, StatusUnstable:
		return true
	}
	return false
}
