// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package control composes the status cache, command gate, parser,
// and BUTT runner into the operations the HTTP layer exposes.
//
// Read path: cache check -> (on miss) gate -> runner -> parser ->
// cache store -> response. Write path: gate -> runner -> cache
// invalidation -> response. The cache lock and the gate's internal
// locking are never held together, and neither is ever held across
// the external call.
package control

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/buttbridge/services/bridge/butt"
	"github.com/AleutianAI/buttbridge/services/bridge/cache"
	"github.com/AleutianAI/buttbridge/services/bridge/datatypes"
	"github.com/AleutianAI/buttbridge/services/bridge/gate"
)

var tracer = otel.Tracer("buttbridge.control")

// Readiness poll parameters for StartProcess.
const (
	startMaxWait      = 10 * time.Second
	startPollInterval = 500 * time.Millisecond
)

// Service orchestrates control operations against BUTT.
//
// # Description
//
// Service owns the status cache and the command gate as explicit
// fields; there is no ambient global state. One instance is shared by
// all request handlers for the life of the process.
//
// # Thread Safety
//
// Safe for concurrent use. The cache and gate carry their own locks;
// Service itself holds no mutable state beyond them.
type Service struct {
	runner         butt.Runner
	cache          *cache.StatusCache
	gate           *gate.CommandGate
	commandTimeout time.Duration

	exePath  string
	exeFound bool
}

// NewService wires a control Service from its collaborators.
//
// # Inputs
//
//   - runner: Command channel to BUTT. Must not be nil.
//   - statusCache: TTL cache shared with the watcher. Must not be nil.
//   - commandGate: Per-type admission gate. Must not be nil.
//   - commandTimeout: Hard bound on every external call. Zero or
//     negative falls back to 10s.
//   - exePath, exeFound: Result of the executable locator, reported
//     verbatim in status documents.
func NewService(runner butt.Runner, statusCache *cache.StatusCache,
	commandGate *gate.CommandGate, commandTimeout time.Duration,
	exePath string, exeFound bool) *Service {

	if commandTimeout <= 0 {
		commandTimeout = 10 * time.Second
	}
	return &Service{
		runner:         runner,
		cache:          statusCache,
		gate:           commandGate,
		commandTimeout: commandTimeout,
		exePath:        exePath,
		exeFound:       exeFound,
	}
}

// ExecutablePath returns the located BUTT path and whether it exists.
func (s *Service) ExecutablePath() (string, bool) {
	return s.exePath, s.exeFound
}

// DetailedStatus returns the current BUTT status snapshot.
//
// # Description
//
// With useCache, an unexpired cached snapshot is returned immediately
// with no gate check and no external call. On a miss the status gate
// is consulted; a throttled attempt returns CommandSucceeded=false
// with a throttle notice and leaves the cache untouched, so it can
// neither overwrite a good value nor be served later as if it were a
// real status. An admitted attempt queries BUTT, parses the output,
// and caches the record even on failure - briefly caching a negative
// result keeps repeated failures from hammering the tool.
//
// # Inputs
//
//   - ctx: Request context. The command timeout is layered on top.
//   - useCache: False forces a fresh external query (subject to the gate).
//
// # Outputs
//
//   - datatypes.StatusRecord: Parsed snapshot; CommandSucceeded=false
//     on throttle or external failure.
func (s *Service) DetailedStatus(ctx context.Context, useCache bool) datatypes.StatusRecord {
	ctx, span := tracer.Start(ctx, "DetailedStatus")
	defer span.End()

	if useCache {
		if v, ok := s.cache.Get(cache.KeyDetailedStatus); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return v.(datatypes.StatusRecord)
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	if !s.gate.TryAdmit(butt.TypeStatus) {
		span.SetAttributes(attribute.Bool("throttled", true))
		return datatypes.StatusRecord{
			RawMessage:       throttledMessage(butt.TypeStatus),
			CommandSucceeded: false,
		}
	}

	record := s.queryStatus(ctx)
	// Cached even when the query failed: negative results expire with
	// the same TTL and stop a broken setup from being re-probed on
	// every poll.
	s.cache.Set(cache.KeyDetailedStatus, record)
	return record
}

// queryStatus runs `-S` against BUTT and parses the response.
func (s *Service) queryStatus(ctx context.Context) datatypes.StatusRecord {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	args, _ := butt.Args(butt.TypeStatus)
	out, err := s.runner.Send(ctx, args...)
	if err != nil {
		kind, msg := classify(err)
		slog.Warn("status query failed", "kind", string(kind), "error", msg)
		return datatypes.StatusRecord{CommandSucceeded: false}
	}
	return butt.ParseStatus(out)
}

// SendCommand delivers a state-changing command to BUTT.
//
// # Description
//
// The command type is gated first; a throttled call returns a failure
// result and performs no cache invalidation. Otherwise the command is
// sent and - regardless of its outcome - the detailed-status entry is
// invalidated, because a state-changing command may have changed
// reality and the next read must not serve a stale snapshot. A quit
// command clears the entire cache: process liveness itself is stale
// at that point.
//
// The external call is never retried here; retry is a caller decision.
//
// # Inputs
//
//   - ctx: Request context. The command timeout is layered on top.
//   - commandType: One of the butt.Type* constants.
//   - extra: Additional argument values (song name for update_song).
//
// # Outputs
//
//   - datatypes.CommandResult: Success flag plus BUTT's message text
//     verbatim, or the throttle/failure notice.
func (s *Service) SendCommand(ctx context.Context, commandType string, extra ...string) datatypes.CommandResult {
	ctx, span := tracer.Start(ctx, "SendCommand")
	span.SetAttributes(attribute.String("command_type", commandType))
	defer span.End()

	args, ok := butt.Args(commandType, extra...)
	if !ok {
		return datatypes.CommandResult{
			Success: false,
			Message: "unknown command type: " + commandType,
			Kind:    datatypes.KindFailure,
		}
	}

	if !s.gate.TryAdmit(commandType) {
		span.SetAttributes(attribute.Bool("throttled", true))
		return datatypes.CommandResult{
			Success: false,
			Message: throttledMessage(commandType),
			Kind:    datatypes.KindThrottled,
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	out, err := s.runner.Send(cctx, args...)
	cancel()

	// Reality may have changed whether or not BUTT acknowledged.
	if commandType == butt.TypeQuit {
		s.cache.InvalidateAll()
	} else {
		s.cache.Invalidate(cache.KeyDetailedStatus)
	}

	if err != nil {
		kind, msg := classify(err)
		slog.Warn("command failed",
			"command_type", commandType, "kind", string(kind), "error", msg)
		return datatypes.CommandResult{Success: false, Message: msg, Kind: kind}
	}

	if out == "" {
		out = "Command executed"
	}
	slog.Info("command delivered", "command_type", commandType)
	return datatypes.CommandResult{Success: true, Message: out}
}

// IsButtRunning reports whether a BUTT process exists.
//
// The result is cacheable under the same TTL and invalidation rules
// as the detailed status; quit and process start both clear it.
func (s *Service) IsButtRunning(ctx context.Context, useCache bool) bool {
	if useCache {
		if v, ok := s.cache.Get(cache.KeyButtRunning); ok {
			return v.(bool)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	running, pid, err := s.runner.IsRunning(cctx)
	if err != nil {
		slog.Warn("liveness check failed", "error", err)
		return false
	}
	if running {
		slog.Debug("found running butt process", "pid", pid)
	}
	s.cache.Set(cache.KeyButtRunning, running)
	return running
}

// StartProcess launches BUTT with its command server enabled and
// waits until it shows up in the process table.
//
// # Description
//
// A no-op when BUTT is already running. After a successful spawn the
// liveness entry is invalidated and the process table is polled every
// 500ms for up to 10 seconds. A spawn that never becomes visible is
// still reported as success with a warning, matching the tool's slow
// first-start behavior - the process may simply take longer than the
// poll window to register.
func (s *Service) StartProcess(ctx context.Context) datatypes.CommandResult {
	ctx, span := tracer.Start(ctx, "StartProcess")
	defer span.End()

	if s.IsButtRunning(ctx, false) {
		return datatypes.CommandResult{Success: true, Message: "BUTT is already running"}
	}

	pid, err := s.runner.StartDetached(ctx)
	if err != nil {
		kind, msg := classify(err)
		return datatypes.CommandResult{Success: false, Message: msg, Kind: kind}
	}
	slog.Info("started butt", "pid", pid)
	s.cache.Invalidate(cache.KeyButtRunning)

	deadline := time.Now().Add(startMaxWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return datatypes.CommandResult{
				Success: false, Message: MsgTimedOut, Kind: datatypes.KindTimeout,
			}
		case <-time.After(startPollInterval):
		}
		if s.IsButtRunning(ctx, false) {
			return datatypes.CommandResult{Success: true, Message: "BUTT started successfully"}
		}
	}

	slog.Warn("butt process started but not yet detected as running")
	return datatypes.CommandResult{Success: true, Message: "BUTT started (not yet visible in process table)"}
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache() {
	s.cache.InvalidateAll()
}

// Named operations, thin wrappers over SendCommand.

// StartStreaming connects BUTT to its configured streaming server.
func (s *Service) StartStreaming(ctx context.Context) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeStartStream)
}

// StopStreaming disconnects from the streaming server.
func (s *Service) StopStreaming(ctx context.Context) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeStopStream)
}

// StartRecording starts a local recording.
func (s *Service) StartRecording(ctx context.Context) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeStartRecord)
}

// StopRecording stops the local recording.
func (s *Service) StopRecording(ctx context.Context) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeStopRecord)
}

// SplitRecording closes the current recording file and opens a new one.
func (s *Service) SplitRecording(ctx context.Context) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeSplitRecord)
}

// UpdateSongName pushes new song metadata to the stream.
func (s *Service) UpdateSongName(ctx context.Context, name string) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeUpdateSong, name)
}

// Quit asks the BUTT application to exit.
func (s *Service) Quit(ctx context.Context) datatypes.CommandResult {
	return s.SendCommand(ctx, butt.TypeQuit)
}
