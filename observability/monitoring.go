// Package observability aggregates realtime delivery metrics.
package observability

import (
	"log/slog"
	"sync/atomic"
)

// Stats is a point-in-time snapshot of the delivery counters.
type Stats struct {
	ActiveConnections  int64  `json:"active_connections"`
	ConnectionsTotal   uint64 `json:"connections_total"`
	RejectedHandshakes uint64 `json:"rejected_handshakes"`
	MessagesDelivered  uint64 `json:"messages_delivered"`
	DeliveryMisses     uint64 `json:"delivery_misses"`
	PushFailures       uint64 `json:"push_failures"`
	PresenceEvents     uint64 `json:"presence_events"`
}

// MonitoringManager tracks realtime counters with atomics; no locks,
// safe under concurrent connection lifetimes.
type MonitoringManager struct {
	log *slog.Logger

	activeConnections  int64
	connectionsTotal   uint64
	rejectedHandshakes uint64
	messagesDelivered  uint64
	deliveryMisses     uint64
	pushFailures       uint64
	presenceEvents     uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

func (mm *MonitoringManager) ConnectionOpened() {
	atomic.AddInt64(&mm.activeConnections, 1)
	atomic.AddUint64(&mm.connectionsTotal, 1)
}

func (mm *MonitoringManager) ConnectionClosed() {
	atomic.AddInt64(&mm.activeConnections, -1)
}

func (mm *MonitoringManager) IncrRejectedHandshake() {
	atomic.AddUint64(&mm.rejectedHandshakes, 1)
}

func (mm *MonitoringManager) IncrDelivered() {
	atomic.AddUint64(&mm.messagesDelivered, 1)
}

func (mm *MonitoringManager) IncrDeliveryMiss() {
	atomic.AddUint64(&mm.deliveryMisses, 1)
}

func (mm *MonitoringManager) IncrPushFailure() {
	atomic.AddUint64(&mm.pushFailures, 1)
}

func (mm *MonitoringManager) IncrPresenceEvent() {
	atomic.AddUint64(&mm.presenceEvents, 1)
}

func (mm *MonitoringManager) Snapshot() Stats {
	return Stats{
		ActiveConnections:  atomic.LoadInt64(&mm.activeConnections),
		ConnectionsTotal:   atomic.LoadUint64(&mm.connectionsTotal),
		RejectedHandshakes: atomic.LoadUint64(&mm.rejectedHandshakes),
		MessagesDelivered:  atomic.LoadUint64(&mm.messagesDelivered),
		DeliveryMisses:     atomic.LoadUint64(&mm.deliveryMisses),
		PushFailures:       atomic.LoadUint64(&mm.pushFailures),
		PresenceEvents:     atomic.LoadUint64(&mm.presenceEvents),
	}
}
