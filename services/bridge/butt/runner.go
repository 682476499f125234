// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package butt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrExecutableNotFound is returned when the configured BUTT binary
// does not exist on disk. Callers surface this without attempting an
// invocation.
var ErrExecutableNotFound = errors.New("butt executable not found")

// -----------------------------------------------------------------------------
// Interface Definition
// -----------------------------------------------------------------------------

// Runner executes control commands against a BUTT instance.
//
// This interface abstracts all interaction with the BUTT process so
// the control service can be tested without a real broadcast tool
// installed. All exec calls in the bridge go through a Runner.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use from multiple
// goroutines.
//
// # Context Handling
//
// All methods accept a context.Context; the caller applies the command
// timeout via context.WithTimeout, and implementations must honor
// cancellation.
type Runner interface {
	// Send delivers a control command to the running BUTT instance.
	//
	// # Description
	//
	// Invokes the BUTT binary with `-p <port>` plus the given action
	// arguments and waits for completion. BUTT prints the command
	// response (status text, acknowledgement) on stdout.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation/timeout
	//   - args: Action flag plus values, e.g. ["-S"] or ["-u", "song"]
	//
	// # Outputs
	//
	//   - string: Trimmed stdout output
	//   - error: ErrExecutableNotFound, context deadline, or the exec
	//     failure with stderr folded into the message
	Send(ctx context.Context, args ...string) (string, error)

	// IsRunning checks whether a BUTT process exists.
	//
	// "Not running" is a normal result, not an error; error is
	// reserved for a failed process enumeration.
	IsRunning(ctx context.Context) (bool, int, error)

	// StartDetached launches BUTT with its command server enabled and
	// returns the PID without waiting for the process to exit.
	StartDetached(ctx context.Context) (int, error)
}

// -----------------------------------------------------------------------------
// Implementation
// -----------------------------------------------------------------------------

// CommandRunner implements Runner using os/exec against a located
// BUTT binary. Use MockRunner in tests instead.
type CommandRunner struct {
	exePath     string
	commandPort int
}

// NewCommandRunner creates a Runner for the BUTT binary at exePath,
// talking to the command server on commandPort.
//
// # Examples
//
//	runner := butt.NewCommandRunner("/usr/bin/butt", 1256)
//	out, err := runner.Send(ctx, "-S")
func NewCommandRunner(exePath string, commandPort int) *CommandRunner {
	return &CommandRunner{exePath: exePath, commandPort: commandPort}
}

// Send delivers a control command to the running BUTT instance.
func (r *CommandRunner) Send(ctx context.Context, args ...string) (string, error) {
	if _, err := os.Stat(r.exePath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, r.exePath)
	}

	full := append([]string{"-p", strconv.Itoa(r.commandPort)}, args...)
	cmd := exec.CommandContext(ctx, r.exePath, full...)
	cmd.Dir = filepath.Dir(r.exePath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// On cancellation only the direct child is killed; anything it
	// spawned inherits the pipe write ends and would keep Wait (and the
	// calling worker) blocked until the whole process tree exits.
	// WaitDelay abandons the pipes shortly after the kill instead.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		// Fold stderr into the error for diagnostics.
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

// IsRunning checks whether a BUTT process exists via pgrep.
func (r *CommandRunner) IsRunning(ctx context.Context) (bool, int, error) {
	cmd := exec.CommandContext(ctx, "pgrep", "-x", "butt")
	output, err := cmd.Output()
	if err != nil {
		// pgrep exits 1 when no process matches - not an error.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("pgrep failed: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) > 0 && lines[0] != "" {
		pid, err := strconv.Atoi(lines[0])
		if err != nil {
			return true, 0, nil // process found but PID parse failed
		}
		return true, pid, nil
	}
	return false, 0, nil
}

// StartDetached launches BUTT with its command server enabled.
//
// The child is not tied to the bridge's lifetime: BUTT keeps running
// after the bridge exits, and context cancellation does not kill it.
func (r *CommandRunner) StartDetached(_ context.Context) (int, error) {
	if _, err := os.Stat(r.exePath); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrExecutableNotFound, r.exePath)
	}

	cmd := exec.Command(r.exePath, "-p", strconv.Itoa(r.commandPort))
	cmd.Dir = filepath.Dir(r.exePath)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start butt: %w", err)
	}

	// Reap the child when it eventually exits so it cannot zombify.
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockRunner is a test double for Runner.
//
// Configure the mock by setting function fields before use. If a
// function field is nil and the corresponding method is called, it
// will panic.
//
// # Examples
//
//	mock := &butt.MockRunner{
//	    SendFunc: func(ctx context.Context, args ...string) (string, error) {
//	        return "connected: 1\nrecording: 0", nil
//	    },
//	}
type MockRunner struct {
	// SendFunc is called when Send is invoked
	SendFunc func(ctx context.Context, args ...string) (string, error)

	// IsRunningFunc is called when IsRunning is invoked
	IsRunningFunc func(ctx context.Context) (bool, int, error)

	// StartDetachedFunc is called when StartDetached is invoked
	StartDetachedFunc func(ctx context.Context) (int, error)

	// Calls records all method invocations for verification
	Calls []RunnerCall

	// mu protects Calls for concurrent access
	mu sync.Mutex
}

// RunnerCall records a single method invocation.
type RunnerCall struct {
	Method string
	Args   []string
}

// Send delegates to SendFunc and records the call.
func (m *MockRunner) Send(ctx context.Context, args ...string) (string, error) {
	m.record(RunnerCall{Method: "Send", Args: args})
	if m.SendFunc == nil {
		panic("MockRunner.SendFunc not set")
	}
	return m.SendFunc(ctx, args...)
}

// IsRunning delegates to IsRunningFunc and records the call.
func (m *MockRunner) IsRunning(ctx context.Context) (bool, int, error) {
	m.record(RunnerCall{Method: "IsRunning"})
	if m.IsRunningFunc == nil {
		panic("MockRunner.IsRunningFunc not set")
	}
	return m.IsRunningFunc(ctx)
}

// StartDetached delegates to StartDetachedFunc and records the call.
func (m *MockRunner) StartDetached(ctx context.Context) (int, error) {
	m.record(RunnerCall{Method: "StartDetached"})
	if m.StartDetachedFunc == nil {
		panic("MockRunner.StartDetachedFunc not set")
	}
	return m.StartDetachedFunc(ctx)
}

func (m *MockRunner) record(c RunnerCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockRunner) GetCalls() []RunnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]RunnerCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Reset clears all recorded calls.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Compile-time interface compliance check.
var (
	_ Runner = (*CommandRunner)(nil)
	_ Runner = (*MockRunner)(nil)
)
