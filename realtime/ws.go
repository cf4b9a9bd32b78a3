// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS layer; tokens gate access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and streams workspaceID's events to it as
// JSON text frames until either side closes. The caller authorizes first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, workspaceID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("websocket upgrade failed", "workspace_id", workspaceID, "error", err)
		return
	}

	c := h.NewClient(workspaceID)
	h.log.Info("realtime client connected", "workspace_id", workspaceID, "client_id", c.ID)

	go h.readPump(conn, c)
	h.writePump(conn, c)
}

// readPump discards client frames and closes the client when the peer goes away.
func (h *Hub) readPump(conn *websocket.Conn, c *Client) {
	defer h.CloseClient(c)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.CloseClient(c)
		conn.Close()
		h.log.Info("realtime client disconnected", "workspace_id", c.WorkspaceID, "client_id", c.ID)
	}()

	for {
		select {
		case ev, ok := <-c.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
