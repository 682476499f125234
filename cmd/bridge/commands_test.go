// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BRIDGE_PORT", "8080")
	t.Setenv("BUTT_COMMAND_PORT", "1300")
	t.Setenv("BUTT_PATH", "/opt/butt/butt")
	t.Setenv("BRIDGE_STATUS_CACHE_TTL", "5s")
	t.Setenv("BRIDGE_COMMAND_MIN_INTERVAL", "250ms")
	t.Setenv("BRIDGE_COMMAND_TIMEOUT", "30s")
	t.Setenv("BRIDGE_ALLOWED_ORIGINS", "http://localhost:3000, https://panel.example.org")

	cfg := buildConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1300, cfg.ButtCommandPort)
	assert.Equal(t, "/opt/butt/butt", cfg.ButtPath)
	assert.Equal(t, 5*time.Second, cfg.StatusCacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.CommandMinInterval)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://panel.example.org"}, cfg.AllowedOrigins)
}

func TestBuildConfig_BadEnvValuesFallBack(t *testing.T) {
	t.Setenv("BRIDGE_PORT", "not-a-number")
	t.Setenv("BRIDGE_STATUS_CACHE_TTL", "soon")

	cfg := buildConfig()

	// Zero here; bridge.New applies the real defaults.
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.StatusCacheTTL)
}

func TestBuildConfig_MetricsDefaultOnAndDisableViaEnv(t *testing.T) {
	assert.True(t, buildConfig().EnableMetrics)

	t.Setenv("BRIDGE_ENABLE_METRICS", "false")
	assert.False(t, buildConfig().EnableMetrics)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, b"))
	assert.Equal(t, []string{"a"}, splitAndTrim("a,,  ,"))
	assert.Nil(t, splitAndTrim(""))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("BRIDGE_TEST_DUR", "750ms")
	assert.Equal(t, 750*time.Millisecond, getEnvDuration("BRIDGE_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("BRIDGE_TEST_DUR_MISSING", time.Second))
}
