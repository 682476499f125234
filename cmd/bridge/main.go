// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command bridge starts the BUTT controller bridge HTTP server.
//
// The bridge wraps BUTT's command-line control interface in a local
// HTTP API for the web control panel.
//
// # Environment Variables
//
//   - BRIDGE_PORT: HTTP server port (default: 5000)
//   - BUTT_COMMAND_PORT: BUTT command server port (default: 1256)
//   - BUTT_PATH: BUTT executable path (default: auto-locate)
//   - BUTT_CONFIG: BUTT config file to watch (default: ~/.buttrc)
//   - BRIDGE_STATUS_CACHE_TTL: status cache TTL (default: 2s)
//   - BRIDGE_COMMAND_MIN_INTERVAL: per-type throttle interval (default: 500ms)
//   - BRIDGE_COMMAND_TIMEOUT: external command timeout (default: 10s)
//   - BRIDGE_ALLOWED_ORIGINS: comma-separated CORS origins
//   - BRIDGE_ENABLE_METRICS: serve Prometheus /metrics (default: true)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//   - GIN_MODE: gin framework mode (debug/release/test)
//
// # Usage
//
//	# Build
//	go build -o butt-bridge ./cmd/bridge
//
//	# Run
//	./butt-bridge serve
//
//	# With a config file
//	./butt-bridge serve --config bridge.yaml
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

func main() {
	setupLogging()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

// setupLogging picks a human-readable handler on a terminal and JSON
// when output is piped or captured by a service manager.
func setupLogging() {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
