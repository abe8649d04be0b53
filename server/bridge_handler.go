package server

import (
	"context"
	"encoding/json"
	"net/http"

	"Zenith/core/bridge"
	"Zenith/logger"

	"github.com/gorilla/websocket"
)

// BridgeHandler exposes the hub over websocket and plain HTTP.
type BridgeHandler struct {
	ctx      context.Context
	hub      *bridge.Hub
	upgrader websocket.Upgrader
}

// NewBridgeHandler creates a handler; connections end when ctx does.
func NewBridgeHandler(ctx context.Context, hub *bridge.Hub) *BridgeHandler {
	return &BridgeHandler{
		ctx: ctx,
		hub: hub,
		upgrader: websocket.Upgrader{
			// surfaces run on the same machine
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *BridgeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}
	h.hub.ServeWS(h.ctx, conn)
}

// GetSnapshot returns the authoritative snapshot.
func (h *BridgeHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("写入响应失败", logger.ErrorField(err))
	}
}
