// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/buttbridge/services/bridge/control"
)

// statusPushInterval is how often a connected client receives a fresh
// status document. Pushes ride the status cache, so many clients share
// one external query per TTL window.
const statusPushInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	// The bridge binds to loopback; CORS policy for browsers is
	// enforced at the HTTP layer before the upgrade.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

func sendJSON(ws *websocket.Conn, v any) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("failed to write websocket JSON", "error", err)
	}
	return err
}

// StatusWebSocket serves GET /v1/status/ws.
//
// # Description
//
// Upgrades the connection and pushes a status document immediately,
// then on every tick until the client disconnects or the request
// context is cancelled. A reader goroutine drains inbound frames so
// close handshakes and pings are processed; any client payload is
// ignored.
func StatusWebSocket(svc *control.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("status websocket client connected", "remote", ws.RemoteAddr().String())

		// Drain inbound frames; signals disconnect.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := sendJSON(ws, buildStatus(c, svc, true)); err != nil {
			return
		}

		ticker := time.NewTicker(statusPushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				slog.Info("status websocket client disconnected")
				return
			case <-c.Request.Context().Done():
				return
			case <-ticker.C:
				if err := sendJSON(ws, buildStatus(c, svc, true)); err != nil {
					return
				}
			}
		}
	}
}
