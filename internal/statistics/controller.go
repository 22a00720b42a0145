package statistics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opentrickler/trickle2go/internal/controller"
	"github.com/opentrickler/trickle2go/internal/state"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	controller *controller.TricklerController
	store      *state.Store

	mode         *prometheus.Desc
	targetWeight *prometheus.Desc
	trickleRate  *prometheus.Desc
}

func NewControllerCollector(tricklerController *controller.TricklerController, store *state.Store) *ControllerCollector {
	return &ControllerCollector{
		controller: tricklerController,
		store:      store,
		mode: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "mode"),
			"Current mode of the control loop (0 idle, 1 auto, 2 manual, 3 done)",
			nil, nil,
		),
		targetWeight: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "target_weight"),
			"Configured target weight",
			[]string{"unit"}, nil,
		),
		trickleRate: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "trickle_rate"),
			"Observed powder flow in weight units per second",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.mode
	ch <- collector.targetWeight
	ch <- collector.trickleRate
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.store.Snapshot()

	ch <- prometheus.MustNewConstMetric(collector.mode, prometheus.GaugeValue, float64(snapshot.Mode))

	target, _ := snapshot.TargetWeight.Float64()
	ch <- prometheus.MustNewConstMetric(collector.targetWeight, prometheus.GaugeValue, target, snapshot.TargetUnit.Symbol())

	ch <- prometheus.MustNewConstMetric(collector.trickleRate, prometheus.GaugeValue, collector.controller.TrickleRate())
}
