// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package bridge provides the BUTT controller bridge service.
//
// This package contains the main Bridge type that coordinates all
// components of the service: HTTP routing, the BUTT command runner,
// the status cache and command gate, the config watcher, and
// observability infrastructure.
//
// # Usage
//
//	cfg := bridge.Config{Port: 5000}
//	svc, err := bridge.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run(context.Background())
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/buttbridge/services/bridge/butt"
	"github.com/AleutianAI/buttbridge/services/bridge/cache"
	"github.com/AleutianAI/buttbridge/services/bridge/control"
	"github.com/AleutianAI/buttbridge/services/bridge/gate"
	"github.com/AleutianAI/buttbridge/services/bridge/middleware"
	"github.com/AleutianAI/buttbridge/services/bridge/observability"
	"github.com/AleutianAI/buttbridge/services/bridge/routes"
	"github.com/AleutianAI/buttbridge/services/bridge/watcher"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the bridge service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and background workers, blocking
	// until ctx is cancelled or a fatal error occurs.
	Run(ctx context.Context) error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds bridge configuration options.
//
// All fields are optional; zero values are replaced with defaults by
// New(). ButtPath is special: when empty the executable is located by
// searching PATH and the usual install directories.
type Config struct {
	// Port is the HTTP server port. Default: 5000
	Port int

	// ButtCommandPort is the port BUTT's command server listens on,
	// passed as -p on every invocation. Default: 1256
	ButtCommandPort int

	// ButtPath overrides executable discovery. Default: auto-locate.
	ButtPath string

	// ButtConfigPath is the BUTT config file to watch for changes.
	// Empty disables the watcher.
	ButtConfigPath string

	// StatusCacheTTL is how long status snapshots stay fresh.
	// Default: 2s
	StatusCacheTTL time.Duration

	// CommandMinInterval is the per-command-type admission interval.
	// Default: 500ms
	CommandMinInterval time.Duration

	// CommandTimeout bounds every external BUTT invocation.
	// Default: 10s
	CommandTimeout time.Duration

	// AllowedOrigins is the CORS allowlist for the web panel.
	// Default: http://localhost and http://127.0.0.1 (any port).
	AllowedOrigins []string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Empty disables tracing.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus middleware and the /metrics
	// endpoint. The CLI defaults this to true (BRIDGE_ENABLE_METRICS).
	EnableMetrics bool

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	// Empty uses the GIN_MODE env var or Gin's default.
	GinMode string
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.ButtCommandPort == 0 {
		cfg.ButtCommandPort = 1256
	}
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = cache.DefaultTTL
	}
	if cfg.CommandMinInterval <= 0 {
		cfg.CommandMinInterval = gate.DefaultMinInterval
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = middleware.DefaultAllowedOrigins
	}
	return cfg
}

// =============================================================================
// Implementation
// =============================================================================

// bridgeService implements Service for production use.
//
// Thread-safe after construction; all fields are read-only after New()
// returns. The cache and gate carry their own locks.
type bridgeService struct {
	config        Config
	router        *gin.Engine
	control       *control.Service
	statusCache   *cache.StatusCache
	configWatcher *watcher.ConfigWatcher
	tracerCleanup func(context.Context)
}

// New creates a bridge Service with the given configuration.
//
// # Description
//
// New initializes all bridge components:
//  1. Applies default configuration for missing values
//  2. Locates the BUTT executable (unless ButtPath overrides)
//  3. Builds the status cache, command gate, and control service
//  4. Initializes OpenTelemetry tracing when an endpoint is configured
//  5. Creates the config watcher when ButtConfigPath is set
//  6. Sets up HTTP routes and middleware
//
// A missing BUTT executable is not fatal: the service starts and
// reports butt_found=false so the web panel can show install guidance.
func New(cfg Config) (Service, error) {
	s := &bridgeService{
		config: applyConfigDefaults(cfg),
	}

	exePath, exeFound := s.config.ButtPath, true
	if exePath == "" {
		exePath, exeFound = butt.Locate()
	}
	if !exeFound {
		slog.Warn("butt executable not found, control endpoints will report unavailable",
			"fallback_path", exePath)
	}

	s.statusCache = cache.New(s.config.StatusCacheTTL)
	runner := butt.NewCommandRunner(exePath, s.config.ButtCommandPort)
	s.control = control.NewService(runner, s.statusCache,
		gate.New(s.config.CommandMinInterval), s.config.CommandTimeout,
		exePath, exeFound)

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.ButtConfigPath != "" {
		w, err := watcher.New(s.config.ButtConfigPath, s.statusCache)
		if err != nil {
			slog.Warn("config watcher unavailable",
				"path", s.config.ButtConfigPath, "error", err)
			// Not fatal - continue without the watcher
		} else {
			s.configWatcher = w
		}
	}

	s.initRouter()
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and background workers.
//
// # Description
//
// Three goroutines run under one errgroup: the HTTP server, the config
// watcher (when configured), and a periodic cache sweep. Cancelling
// ctx shuts the server down gracefully and stops the workers; the
// first fatal error from any of them tears the group down.
func (s *bridgeService) Run(ctx context.Context) error {
	defer s.cleanup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting bridge server", "port", s.config.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.configWatcher != nil {
		g.Go(func() error {
			if err := s.configWatcher.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := s.statusCache.SweepExpired(); n > 0 {
					slog.Debug("swept expired cache entries", "count", n)
				}
			}
		}
	})

	return g.Wait()
}

// Router returns the underlying Gin engine for testing.
func (s *bridgeService) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for a collector on the
// same host or internal network.
func (s *bridgeService) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("butt-bridge")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the Gin HTTP router with all middleware and routes.
func (s *bridgeService) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS(s.config.AllowedOrigins))
	if s.config.EnableMetrics {
		s.router.Use(observability.Middleware())
		s.router.GET("/metrics", observability.Handler())
	}
	if s.config.OTelEndpoint != "" {
		s.router.Use(otelgin.Middleware("butt-bridge"))
	}

	routes.SetupRoutes(s.router, s.control)
}

// cleanup releases resources held by the service.
func (s *bridgeService) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*bridgeService)(nil)
