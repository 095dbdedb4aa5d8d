package broadcast

import "sync/atomic"

// HubMetrics contains atomic metrics of a Hub.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type HubMetrics struct {
	// SubscriberGauge is the number of live subscribers.
	SubscriberGauge atomic.Int64
	// AcceptCount is the number of accepted connections.
	AcceptCount atomic.Uint64
	// AcceptErrCount is the number of accept failures other than timeouts.
	AcceptErrCount atomic.Uint64
	// PublishCount is the number of published events.
	PublishCount atomic.Uint64
	// DeliveryCount is the number of successful per-subscriber sends.
	DeliveryCount atomic.Uint64
	// EvictCount is the number of subscribers removed after a failed send.
	EvictCount atomic.Uint64
}

func (m *HubMetrics) incSubscriberGauge() { m.SubscriberGauge.Add(1) }
func (m *HubMetrics) decSubscriberGauge() { m.SubscriberGauge.Add(-1) }
func (m *HubMetrics) incAcceptCount() { m.AcceptCount.Add(1) }
func (m *HubMetrics) incAcceptErrCount() { m.AcceptErrCount.Add(1) }
func (m *HubMetrics) incPublishCount() { m.PublishCount.Add(1) }
func (m *HubMetrics) incDeliveryCount() { m.DeliveryCount.Add(1) }
func (m *HubMetrics) incEvictCount() { m.EvictCount.Add(1) }
