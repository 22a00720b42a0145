package statistics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opentrickler/trickle2go/internal/state"
)

const scaleSubsystem = "scale"

type ScaleCollector struct {
	store *state.Store

	weight *prometheus.Desc
	stable *prometheus.Desc
	status *prometheus.Desc
}

func NewScaleCollector(store *state.Store) *ScaleCollector {
	return &ScaleCollector{
		store: store,
		weight: prometheus.NewDesc(prometheus.BuildFQName(namespace, scaleSubsystem, "weight"),
			"Most recent weight reported by the scale",
			[]string{"unit"}, nil,
		),
		stable: prometheus.NewDesc(prometheus.BuildFQName(namespace, scaleSubsystem, "stable"),
			"Whether the scale reading is currently considered stable (1) or not (0)",
			nil, nil,
		),
		status: prometheus.NewDesc(prometheus.BuildFQName(namespace, scaleSubsystem, "status"),
			"Status code of the most recent scale frame",
			nil, nil,
		),
	}
}

func (collector *ScaleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.weight
	ch <- collector.stable
	ch <- collector.status
}

// Collect implements required collect function for all prometheus collectors
func (collector *ScaleCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.store.Snapshot()

	weight, _ := snapshot.Weight.Float64()
	ch <- prometheus.MustNewConstMetric(collector.weight, prometheus.GaugeValue, weight, snapshot.Unit.Symbol())

	stable := 0.0
	if snapshot.Stable {
		stable = 1.0
	}
	ch <- prometheus.MustNewConstMetric(collector.stable, prometheus.GaugeValue, stable)
	ch <- prometheus.MustNewConstMetric(collector.status, prometheus.GaugeValue, float64(snapshot.Status))
}
