// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// outboundBuffer is how many events a client may lag behind before it is dropped.
const outboundBuffer = 32

// Client is one subscriber to a workspace's events.
type Client struct {
	ID          string
	WorkspaceID string
	Outbound    chan Event

	closeOnce sync.Once
}

// Hub fans events out to the clients of each workspace on this instance.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     *slog.Logger
}

// NewHub creates an empty Hub. logger may be nil.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     logger.With("service", "realtime"),
	}
}

// NewClient registers a client for workspaceID.
func (h *Hub) NewClient(workspaceID string) *Client {
	c := &Client{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Outbound:    make(chan Event, outboundBuffer),
	}

	h.mu.Lock()
	set, ok := h.clients[workspaceID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[workspaceID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	return c
}

// CloseClient unregisters c and closes its Outbound channel. Safe to call twice.
func (h *Hub) CloseClient(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.WorkspaceID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.WorkspaceID)
		}
	}
	h.mu.Unlock()

	c.closeOnce.Do(func() { close(c.Outbound) })
}

// ClientCount returns the number of clients connected to workspaceID.
func (h *Hub) ClientCount(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[workspaceID])
}

// Broadcast delivers ev to every local client of its workspace. A client
// whose buffer is full is disconnected rather than blocking the others.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients[ev.WorkspaceID] {
		select {
		case c.Outbound <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow realtime client", "workspace_id", c.WorkspaceID, "client_id", c.ID)
		h.CloseClient(c)
	}
}
