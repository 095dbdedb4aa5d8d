// Package metrics exposes scanner and hub counters to prometheus and serves
// them over HTTP together with a health endpoint.
package metrics

import (
	"errors"
	"fmt"

	"github.com/arloliu/zonetrack/broadcast"
	"github.com/arloliu/zonetrack/scanner"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zonetrack"

// Register adds a CounterFunc or GaugeFunc for every scanner and hub counter
// to reg. Either metrics argument may be nil, in which case its collectors
// are skipped.
func Register(reg prometheus.Registerer, sm *scanner.Metrics, hm *broadcast.HubMetrics) error {
	if reg == nil {
		return errors.New("metrics: registerer is nil")
	}

	var collectors []prometheus.Collector

	if sm != nil {
		collectors = append(collectors,
			counter("scanner", "cycles_total", "Completed passes over all zones.", sm.CycleCount.Load),
			counter("scanner", "exchanges_total", "Antenna select and read exchanges.", sm.ExchangeCount.Load),
			counter("scanner", "tags_total", "Responses that carried a tag.", sm.TagCount.Load),
			counter("scanner", "detections_total", "Reads that passed duplicate suppression.", sm.DetectionCount.Load),
			counter("scanner", "suppressed_total", "Reads dropped as duplicates.", sm.SuppressedCount.Load),
			counter("scanner", "empty_total", "Exchanges without a tag.", sm.EmptyCount.Load),
			counter("scanner", "errors_total", "Reader transport errors.", sm.ErrorCount.Load),
		)
	}

	if hm != nil {
		collectors = append(collectors,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "broadcast",
				Name:      "subscribers",
				Help:      "Connected subscribers.",
			}, func() float64 { return float64(hm.SubscriberGauge.Load()) }),
			counter("broadcast", "accepts_total", "Accepted subscriber connections.", hm.AcceptCount.Load),
			counter("broadcast", "accept_errors_total", "Accept failures other than timeouts.", hm.AcceptErrCount.Load),
			counter("broadcast", "publishes_total", "Published detection events.", hm.PublishCount.Load),
			counter("broadcast", "deliveries_total", "Successful per-subscriber sends.", hm.DeliveryCount.Load),
			counter("broadcast", "evictions_total", "Subscribers removed after a failed send.", hm.EvictCount.Load),
		)
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("metrics: register collector: %w", err)
		}
	}

	return nil
}

func counter(subsystem, name, help string, load func() uint64) prometheus.CounterFunc {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(load()) })
}
