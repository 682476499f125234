// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the request, response, and status types
// shared across the bridge service.
//
// All types here are plain data carriers. They are constructed fresh
// per operation and never mutated after construction; the status cache
// stores them by value so a cached snapshot can never be changed by a
// later reader.
package datatypes

// StatusRecord is a parsed snapshot of BUTT's `-S` status output.
//
// # Description
//
// A StatusRecord is produced by the status parser from the raw
// line-oriented `key: value` text BUTT writes on its command channel.
// Missing keys leave the corresponding field false; nothing in the
// parse can fail.
//
// Streaming is derived, not read directly from the text:
// a connection attempt in progress (Connecting) suppresses Streaming
// even when the underlying Connected flag is already set.
//
// # Fields
//
//   - Streaming: connected to the server and not mid-connect
//   - Recording: local recording is active
//   - Connected: raw `connected` flag from BUTT
//   - Connecting: raw `connecting` flag from BUTT
//   - SignalPresent: raw `signal present` flag from BUTT
//   - RawMessage: the unparsed status text (empty when the command failed)
//   - CommandSucceeded: whether the status query itself succeeded
type StatusRecord struct {
	Streaming        bool   `json:"streaming"`
	Recording        bool   `json:"recording"`
	Connected        bool   `json:"connected"`
	Connecting       bool   `json:"connecting"`
	SignalPresent    bool   `json:"signal_present"`
	RawMessage       string `json:"raw_message,omitempty"`
	CommandSucceeded bool   `json:"command_success"`
}

// CommandResult is the outcome of a single control command sent to BUTT.
//
// Every control operation resolves to a CommandResult; failures of the
// external process are recovered into Success=false plus a message
// rather than propagated as errors, so the HTTP layer can always
// render a structured response.
type CommandResult struct {
	// Success reports whether BUTT accepted the command (exit code 0).
	Success bool `json:"success"`

	// Message is BUTT's stdout when available, otherwise a descriptive
	// failure message (stderr, "Command timed out", throttle notice).
	Message string `json:"message"`

	// Kind classifies failures for the HTTP layer. Empty on success.
	Kind ResultKind `json:"-"`
}

// ResultKind classifies command outcomes for status-code mapping.
type ResultKind string

const (
	// KindOK indicates the command completed successfully.
	KindOK ResultKind = ""

	// KindThrottled indicates the command was rejected by the local
	// gate before reaching BUTT. Retry after the minimum interval.
	KindThrottled ResultKind = "throttled"

	// KindUnavailable indicates the BUTT executable is missing or the
	// process is not running; no invocation was attempted.
	KindUnavailable ResultKind = "unavailable"

	// KindTimeout indicates the bounded wait for BUTT elapsed.
	KindTimeout ResultKind = "timeout"

	// KindFailure indicates BUTT returned a non-zero exit status.
	KindFailure ResultKind = "failure"
)

// Capabilities describes what the bridge can do on this platform.
// Mirrors the capability block the web UI reads from /v1/status.
type Capabilities struct {
	Streaming      bool   `json:"streaming"`
	Recording      bool   `json:"recording"`
	SplitRecording bool   `json:"split_recording"`
	ControlMethod  string `json:"control_method"`
}

// StatusResponse is the full document served by GET /v1/status.
type StatusResponse struct {
	ButtRunning    bool         `json:"butt_running"`
	ButtExecutable string       `json:"butt_executable"`
	ButtFound      bool         `json:"butt_found"`
	Streaming      bool         `json:"streaming"`
	Recording      bool         `json:"recording"`
	Connected      bool         `json:"connected"`
	Connecting     bool         `json:"connecting"`
	SignalPresent  bool         `json:"signal_present"`
	StatusMessage  string       `json:"status_message,omitempty"`
	CommandSuccess bool         `json:"command_success"`
	Capabilities   Capabilities `json:"capabilities"`
}

// CommandResponse is the body returned by every write endpoint.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UpdateSongRequest is the body of POST /v1/song.
type UpdateSongRequest struct {
	SongName string `json:"song_name" binding:"required"`
}

// ClearCacheResponse is the body of POST /v1/cache/clear.
type ClearCacheResponse struct {
	Success bool `json:"success"`
}
