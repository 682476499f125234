// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin handlers for the bridge API.
//
// Handlers are thin: they bind/validate the request, call one control
// service operation, and translate the result kind into an HTTP
// status. All BUTT semantics live in the control package.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is the bridge release version, stamped at build time.
var Version = "dev"

// HealthCheck reports liveness of the bridge itself (not of BUTT).
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Home serves the service banner with an index of endpoints.
func Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "BUTT Controller Bridge",
		"version": Version,
		"endpoints": gin.H{
			"status":       "/v1/status",
			"status_ws":    "/v1/status/ws",
			"start_butt":   "/v1/butt/start",
			"quit_butt":    "/v1/butt/quit",
			"start_stream": "/v1/stream/start",
			"stop_stream":  "/v1/stream/stop",
			"start_record": "/v1/record/start",
			"stop_record":  "/v1/record/stop",
			"split_record": "/v1/record/split",
			"update_song":  "/v1/song",
			"clear_cache":  "/v1/cache/clear",
		},
	})
}
