// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"log/slog"
)

// Publisher is what handlers call after a write.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Broadcaster publishes events through the Bus when there is one, and to
// the local Hub otherwise.
type Broadcaster struct {
	hub *Hub
	bus Bus
	log *slog.Logger
}

// NewBroadcaster creates a Broadcaster. bus may be nil for a single instance.
func NewBroadcaster(hub *Hub, bus Bus, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{hub: hub, bus: bus, log: logger.With("service", "realtime")}
}

// Start forwards bus events into the local hub until ctx is done.
func (b *Broadcaster) Start(ctx context.Context) error {
	if b.bus == nil {
		return nil
	}
	return b.bus.StartForwarder(ctx, b.hub.Broadcast)
}

// Publish delivers ev. Events are best effort: a bus failure falls back to
// local delivery and is only logged.
func (b *Broadcaster) Publish(ctx context.Context, ev Event) {
	if b.bus != nil {
		err := b.bus.Publish(ctx, ev)
		if err == nil {
			return
		}
		b.log.Warn("failed to publish event on bus", "type", ev.Type, "workspace_id", ev.WorkspaceID, "error", err)
	}
	b.hub.Broadcast(ev)
}
