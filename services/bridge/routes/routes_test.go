// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/buttbridge/services/bridge/butt"
	"github.com/AleutianAI/buttbridge/services/bridge/cache"
	"github.com/AleutianAI/buttbridge/services/bridge/control"
	"github.com/AleutianAI/buttbridge/services/bridge/gate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSetupRoutes_RegistersFullSurface(t *testing.T) {
	svc := control.NewService(&butt.MockRunner{}, cache.New(time.Minute),
		gate.New(time.Millisecond), time.Second, "butt", false)

	r := gin.New()
	SetupRoutes(r, svc)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		http.MethodGet + " /",
		http.MethodGet + " /health",
		http.MethodGet + " /v1/status",
		http.MethodGet + " /v1/status/ws",
		http.MethodPost + " /v1/butt/start",
		http.MethodPost + " /v1/butt/quit",
		http.MethodPost + " /v1/stream/start",
		http.MethodPost + " /v1/stream/stop",
		http.MethodPost + " /v1/record/start",
		http.MethodPost + " /v1/record/stop",
		http.MethodPost + " /v1/record/split",
		http.MethodPost + " /v1/song",
		http.MethodPost + " /v1/cache/clear",
	}
	for _, want := range expected {
		assert.True(t, registered[want], "missing route %s", want)
	}
}
