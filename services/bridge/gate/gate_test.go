// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommandGate_FirstCallAdmitted(t *testing.T) {
	g := New(500 * time.Millisecond)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.tryAdmitAt("status", now))
}

func TestCommandGate_SecondCallInsideIntervalThrottled(t *testing.T) {
	g := New(500 * time.Millisecond)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.tryAdmitAt("status", now))
	assert.False(t, g.tryAdmitAt("status", now.Add(200*time.Millisecond)))
}

func TestCommandGate_AdmittedAgainAfterInterval(t *testing.T) {
	g := New(500 * time.Millisecond)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.tryAdmitAt("start_stream", now))
	assert.True(t, g.tryAdmitAt("start_stream", now.Add(500*time.Millisecond)))
}

func TestCommandGate_TypesAreIndependent(t *testing.T) {
	g := New(500 * time.Millisecond)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.tryAdmitAt("start_stream", now))
	assert.False(t, g.tryAdmitAt("start_stream", now))

	// Throttling start_stream must not block stop_stream.
	assert.True(t, g.tryAdmitAt("stop_stream", now))
}

func TestCommandGate_ThrottledCallDoesNotResetWindow(t *testing.T) {
	g := New(500 * time.Millisecond)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.tryAdmitAt("status", now))
	// Rejected attempts inside the window leave the record unchanged,
	// so the original deadline still applies.
	assert.False(t, g.tryAdmitAt("status", now.Add(300*time.Millisecond)))
	assert.True(t, g.tryAdmitAt("status", now.Add(500*time.Millisecond)))
}

func TestCommandGate_ConcurrentAdmitExactlyOne(t *testing.T) {
	g := New(1 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	const callers = 32
	var admitted atomic.Int64
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			start.Wait()
			if g.tryAdmitAt("status", now) {
				admitted.Add(1)
			}
		}()
	}
	start.Done()
	done.Wait()

	assert.Equal(t, int64(1), admitted.Load(),
		"simultaneous callers must win exactly once")
}

func TestCommandGate_ZeroIntervalFallsBackToDefault(t *testing.T) {
	g := New(0)
	assert.Equal(t, DefaultMinInterval, g.minInterval)
}
