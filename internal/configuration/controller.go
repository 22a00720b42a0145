package configuration

import (
	"time"

	"github.com/shopspring/decimal"
)

type ControllerConfig struct {
	// Tolerance is the maximum remaining weight difference at which a
	// stable reading completes a trickling run. Zero requires the target to
	// be met exactly (within the scale resolution).
	Tolerance decimal.Decimal `json:"tolerance"`

	// StartDelay is the pause between the ready condition being met and the
	// motor spinning up, giving the operator time to settle the pan.
	StartDelay time.Duration `json:"startDelay"`
}
