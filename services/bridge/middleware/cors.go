// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the bridge service:
// CORS for the browser-based control panel and request-ID tagging for
// log correlation.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultAllowedOrigins covers local development and same-host access.
// Production deployments append their panel origin via configuration.
var DefaultAllowedOrigins = []string{
	"http://localhost",
	"http://127.0.0.1",
}

// CORS returns middleware that answers cross-origin requests from the
// configured origins.
//
// # Description
//
// Origins are matched exactly, except that an allowed origin without
// an explicit port also matches any port on the same host - the
// control panel dev server picks an arbitrary local port. Preflight
// OPTIONS requests are answered with 204 and never reach the
// handlers. Requests from other origins pass through without CORS
// headers; the browser enforces the rest.
//
// # Inputs
//
//   - origins: Allowed origins, e.g. "https://panel.example.org".
//     Empty falls back to DefaultAllowedOrigins.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// originAllowed reports whether origin matches any allowed entry.
func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == origin {
			return true
		}
		// An entry without a port matches the same host on any port.
		if !hasPort(a) && strings.HasPrefix(origin, a+":") {
			return true
		}
	}
	return false
}

// hasPort reports whether a scheme://host origin carries a port.
func hasPort(origin string) bool {
	rest := origin
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	return strings.Contains(rest, ":")
}
