package runtime

import (
	"context"
	"log/slog"

	"chat-direct/contract"
	"chat-direct/domain/event"
	"chat-direct/observability"
)

// Broadcaster fans presence transitions out to every connected user
// except the one whose status changed. Delivery is best-effort: a
// closed or backlogged session is logged and skipped, never retried.
type Broadcaster struct {
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
	log        *slog.Logger
}

func NewBroadcaster(registry contract.IRegistry, monitoring *observability.MonitoringManager, log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry:   registry,
		monitoring: monitoring,
		log:        log,
	}
}

// Announce pushes a presence transition for userID to all other live
// sessions. The snapshot is taken once, so sessions connecting during
// the fan-out are not notified; they learn current presence on their
// own connect.
func (b *Broadcaster) Announce(ctx context.Context, userID, username string, online bool) {
	transition := event.PresenceChanged{
		UserID:   userID,
		Username: username,
		Online:   online,
	}

	for targetID, session := range b.registry.Snapshot() {
		if targetID == userID {
			continue
		}
		if err := session.Consume(ctx, transition); err != nil {
			b.log.Warn("presence fan-out skipped session",
				"target", targetID, "about", userID, "online", online, "error", err)
			continue
		}
		b.monitoring.IncrPresenceEvent()
	}
}
