package statistics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opentrickler/trickle2go/internal/state"
)

const motorSubsystem = "motor"

type MotorCollector struct {
	store *state.Store

	pwm *prometheus.Desc
}

func NewMotorCollector(store *state.Store) *MotorCollector {
	return &MotorCollector{
		store: store,
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, motorSubsystem, "pwm"),
			"Current PWM duty cycle of the trickler motor",
			nil, nil,
		),
	}
}

func (collector *MotorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.pwm
}

// Collect implements required collect function for all prometheus collectors
func (collector *MotorCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.store.Snapshot()
	ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(snapshot.MotorSpeed))
}
