// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/buttbridge/services/bridge"
	"github.com/AleutianAI/buttbridge/services/bridge/handlers"
)

// --- Global Command Variables ---
var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "butt-bridge",
		Short: "A local HTTP bridge for controlling the BUTT broadcast tool",
		Long: `butt-bridge exposes BUTT's command-line control interface as a
local HTTP API, with status caching and command throttling so a web
panel can poll freely without overwhelming the tool.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge HTTP server",
		Run:   runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the bridge version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(handlers.Version)
		},
	}
)

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"optional YAML config file (env vars override)")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

// fileConfig mirrors bridge.Config for YAML loading. Durations are
// strings ("2s", "500ms") so the file reads like the env vars.
type fileConfig struct {
	Port               int      `yaml:"port"`
	ButtCommandPort    int      `yaml:"butt_command_port"`
	ButtPath           string   `yaml:"butt_path"`
	ButtConfigPath     string   `yaml:"butt_config"`
	StatusCacheTTL     string   `yaml:"status_cache_ttl"`
	CommandMinInterval string   `yaml:"command_min_interval"`
	CommandTimeout     string   `yaml:"command_timeout"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	EnableMetrics      *bool    `yaml:"enable_metrics"`
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := buildConfig()

	slog.Info("starting butt-bridge",
		"port", cfg.Port,
		"butt_command_port", cfg.ButtCommandPort,
		"status_cache_ttl", cfg.StatusCacheTTL.String(),
		"command_min_interval", cfg.CommandMinInterval.String(),
	)

	svc, err := bridge.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bridge: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("Bridge error: %v", err)
	}
	slog.Info("bridge stopped")
}

// buildConfig layers defaults, the optional YAML file, then env vars.
func buildConfig() bridge.Config {
	cfg := bridge.Config{
		ButtConfigPath: defaultButtConfigPath(),
		EnableMetrics:  true,
	}

	if configPath != "" {
		loadConfigFile(&cfg)
	}

	cfg.Port = getEnvInt("BRIDGE_PORT", cfg.Port)
	cfg.ButtCommandPort = getEnvInt("BUTT_COMMAND_PORT", cfg.ButtCommandPort)
	cfg.ButtPath = getEnvString("BUTT_PATH", cfg.ButtPath)
	cfg.ButtConfigPath = getEnvString("BUTT_CONFIG", cfg.ButtConfigPath)
	cfg.StatusCacheTTL = getEnvDuration("BRIDGE_STATUS_CACHE_TTL", cfg.StatusCacheTTL)
	cfg.CommandMinInterval = getEnvDuration("BRIDGE_COMMAND_MIN_INTERVAL", cfg.CommandMinInterval)
	cfg.CommandTimeout = getEnvDuration("BRIDGE_COMMAND_TIMEOUT", cfg.CommandTimeout)
	cfg.EnableMetrics = getEnvBool("BRIDGE_ENABLE_METRICS", cfg.EnableMetrics)
	cfg.OTelEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.GinMode = os.Getenv("GIN_MODE")

	if origins := os.Getenv("BRIDGE_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	}
	return cfg
}

func loadConfigFile(cfg *bridge.Config) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatalf("Error reading %s: %v", configPath, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Fatalf("Error parsing %s: %v", configPath, err)
	}

	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.ButtCommandPort != 0 {
		cfg.ButtCommandPort = fc.ButtCommandPort
	}
	if fc.ButtPath != "" {
		cfg.ButtPath = fc.ButtPath
	}
	if fc.ButtConfigPath != "" {
		cfg.ButtConfigPath = fc.ButtConfigPath
	}
	cfg.StatusCacheTTL = parseDurationOrDie("status_cache_ttl", fc.StatusCacheTTL, cfg.StatusCacheTTL)
	cfg.CommandMinInterval = parseDurationOrDie("command_min_interval", fc.CommandMinInterval, cfg.CommandMinInterval)
	cfg.CommandTimeout = parseDurationOrDie("command_timeout", fc.CommandTimeout, cfg.CommandTimeout)
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.EnableMetrics != nil {
		cfg.EnableMetrics = *fc.EnableMetrics
	}
	slog.Info("configuration loaded", "path", configPath)
}

// defaultButtConfigPath returns ~/.buttrc, or "" when the home
// directory cannot be determined (disables the watcher).
func defaultButtConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".buttrc")
}

func parseDurationOrDie(name, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid %s %q: %v", name, value, err)
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
