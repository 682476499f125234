// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package control

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/buttbridge/services/bridge/butt"
	"github.com/AleutianAI/buttbridge/services/bridge/cache"
	"github.com/AleutianAI/buttbridge/services/bridge/datatypes"
	"github.com/AleutianAI/buttbridge/services/bridge/gate"
)

// newTestService wires a Service around a mock runner with a wide-open
// gate and a long cache TTL unless the test needs otherwise.
func newTestService(runner butt.Runner, opts ...func(*testFixture)) (*Service, *cache.StatusCache) {
	f := &testFixture{
		ttl:         time.Minute,
		minInterval: time.Nanosecond,
		timeout:     time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	c := cache.New(f.ttl)
	g := gate.New(f.minInterval)
	return NewService(runner, c, g, f.timeout, "/usr/bin/butt", true), c
}

type testFixture struct {
	ttl         time.Duration
	minInterval time.Duration
	timeout     time.Duration
}

func withMinInterval(d time.Duration) func(*testFixture) {
	return func(f *testFixture) { f.minInterval = d }
}

func withTimeout(d time.Duration) func(*testFixture) {
	return func(f *testFixture) { f.timeout = d }
}

// countingRunner returns canned status output and counts Send calls.
func countingRunner(output string) (*butt.MockRunner, *atomic.Int64) {
	var sends atomic.Int64
	mock := &butt.MockRunner{
		SendFunc: func(_ context.Context, args ...string) (string, error) {
			sends.Add(1)
			return output, nil
		},
	}
	return mock, &sends
}

func TestDetailedStatus_CachesParsedRecord(t *testing.T) {
	mock, sends := countingRunner("connected: 1\nconnecting: 0\nrecording: 1")
	svc, _ := newTestService(mock)

	first := svc.DetailedStatus(context.Background(), true)
	require.True(t, first.CommandSucceeded)
	assert.True(t, first.Streaming)
	assert.True(t, first.Recording)

	second := svc.DetailedStatus(context.Background(), true)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), sends.Load(), "second read must be served from cache")
}

func TestDetailedStatus_ForceRefreshBypassesCache(t *testing.T) {
	mock, sends := countingRunner("connected: 1")
	svc, _ := newTestService(mock)

	svc.DetailedStatus(context.Background(), true)
	svc.DetailedStatus(context.Background(), false)
	assert.Equal(t, int64(2), sends.Load())
}

func TestDetailedStatus_ThrottledReadDoesNotPoisonCache(t *testing.T) {
	mock, sends := countingRunner("connected: 1\nconnecting: 0")
	svc, _ := newTestService(mock, withMinInterval(time.Hour))

	good := svc.DetailedStatus(context.Background(), true)
	require.True(t, good.CommandSucceeded)

	// Forced refresh inside the interval is throttled...
	throttled := svc.DetailedStatus(context.Background(), false)
	assert.False(t, throttled.CommandSucceeded)
	assert.Contains(t, throttled.RawMessage, "throttled")

	// ...and the prior good snapshot is still served, not the
	// throttle placeholder.
	cached := svc.DetailedStatus(context.Background(), true)
	assert.Equal(t, good, cached)
	assert.Equal(t, int64(1), sends.Load())
}

func TestDetailedStatus_FailureIsCachedBriefly(t *testing.T) {
	var sends atomic.Int64
	mock := &butt.MockRunner{
		SendFunc: func(_ context.Context, _ ...string) (string, error) {
			sends.Add(1)
			return "", fmt.Errorf("exit status 1: connection refused")
		},
	}
	svc, _ := newTestService(mock)

	rec := svc.DetailedStatus(context.Background(), true)
	assert.False(t, rec.CommandSucceeded)

	// Repeated polls ride the negative cache instead of re-probing.
	svc.DetailedStatus(context.Background(), true)
	assert.Equal(t, int64(1), sends.Load())
}

func TestSendCommand_InvalidatesDetailedStatus(t *testing.T) {
	mock, sends := countingRunner("connected: 1\nrecording: 1")
	svc, c := newTestService(mock)

	svc.DetailedStatus(context.Background(), true)
	_, ok := c.Get(cache.KeyDetailedStatus)
	require.True(t, ok)

	res := svc.StopRecording(context.Background())
	require.True(t, res.Success)

	_, ok = c.Get(cache.KeyDetailedStatus)
	assert.False(t, ok, "state-changing command must invalidate the status entry")

	// The next cached read goes back out to BUTT.
	svc.DetailedStatus(context.Background(), true)
	assert.Equal(t, int64(3), sends.Load())
}

func TestSendCommand_InvalidatesEvenOnFailure(t *testing.T) {
	calls := 0
	mock := &butt.MockRunner{
		SendFunc: func(_ context.Context, args ...string) (string, error) {
			calls++
			if calls == 1 {
				return "connected: 1", nil // status fill
			}
			return "", fmt.Errorf("exit status 1")
		},
	}
	svc, c := newTestService(mock)

	svc.DetailedStatus(context.Background(), true)
	res := svc.StartRecording(context.Background())
	assert.False(t, res.Success)

	_, ok := c.Get(cache.KeyDetailedStatus)
	assert.False(t, ok, "even a failed command may have changed reality")
}

func TestSendCommand_QuitClearsEntireCache(t *testing.T) {
	mock := &butt.MockRunner{
		SendFunc: func(_ context.Context, _ ...string) (string, error) {
			return "bye", nil
		},
		IsRunningFunc: func(_ context.Context) (bool, int, error) {
			return true, 7, nil
		},
	}
	svc, c := newTestService(mock)

	svc.DetailedStatus(context.Background(), true)
	svc.IsButtRunning(context.Background(), true)
	require.Equal(t, 2, c.Len())

	res := svc.Quit(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 0, c.Len(), "quit must clear liveness as well as status")
}

func TestSendCommand_ThrottledPerformsNoInvalidation(t *testing.T) {
	mock, _ := countingRunner("ok")
	svc, c := newTestService(mock, withMinInterval(time.Hour))

	first := svc.StartStreaming(context.Background())
	require.True(t, first.Success)

	// Seed the cache after the write so we can observe it surviving.
	c.Set(cache.KeyDetailedStatus, datatypes.StatusRecord{Connected: true})

	second := svc.StartStreaming(context.Background())
	assert.False(t, second.Success)
	assert.Equal(t, datatypes.KindThrottled, second.Kind)
	assert.Contains(t, second.Message, "start_stream")

	_, ok := c.Get(cache.KeyDetailedStatus)
	assert.True(t, ok, "throttled command must not invalidate")
}

func TestSendCommand_TypesThrottleIndependently(t *testing.T) {
	mock, _ := countingRunner("ok")
	svc, _ := newTestService(mock, withMinInterval(time.Hour))

	require.True(t, svc.StartStreaming(context.Background()).Success)
	assert.False(t, svc.StartStreaming(context.Background()).Success)
	assert.True(t, svc.StopStreaming(context.Background()).Success,
		"throttling start_stream must not block stop_stream")
}

func TestSendCommand_Timeout(t *testing.T) {
	mock := &butt.MockRunner{
		SendFunc: func(ctx context.Context, _ ...string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	svc, _ := newTestService(mock, withTimeout(50*time.Millisecond))

	res := svc.StartStreaming(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, datatypes.KindTimeout, res.Kind)
	assert.Equal(t, MsgTimedOut, res.Message)
}

func TestSendCommand_ExecutableMissing(t *testing.T) {
	mock := &butt.MockRunner{
		SendFunc: func(_ context.Context, _ ...string) (string, error) {
			return "", fmt.Errorf("%w: /usr/bin/butt", butt.ErrExecutableNotFound)
		},
	}
	svc, _ := newTestService(mock)

	res := svc.StartRecording(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, datatypes.KindUnavailable, res.Kind)
}

func TestSendCommand_UnknownType(t *testing.T) {
	mock, sends := countingRunner("ok")
	svc, _ := newTestService(mock)

	res := svc.SendCommand(context.Background(), "reboot")
	assert.False(t, res.Success)
	assert.Equal(t, int64(0), sends.Load(), "unknown types never reach the runner")
}

func TestUpdateSongName_PassesArgument(t *testing.T) {
	mock, _ := countingRunner("song updated")
	svc, _ := newTestService(mock)

	res := svc.UpdateSongName(context.Background(), "Morning Show")
	require.True(t, res.Success)
	assert.Equal(t, "song updated", res.Message)

	calls := mock.GetCalls()
	require.NotEmpty(t, calls)
	assert.Equal(t, []string{"-u", "Morning Show"}, calls[len(calls)-1].Args)
}

func TestSendCommand_EmptyOutputGetsDefaultMessage(t *testing.T) {
	mock, _ := countingRunner("")
	svc, _ := newTestService(mock)

	res := svc.SplitRecording(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "Command executed", res.Message)
}

func TestIsButtRunning_CachesResult(t *testing.T) {
	var checks atomic.Int64
	mock := &butt.MockRunner{
		IsRunningFunc: func(_ context.Context) (bool, int, error) {
			checks.Add(1)
			return true, 99, nil
		},
	}
	svc, _ := newTestService(mock)

	assert.True(t, svc.IsButtRunning(context.Background(), true))
	assert.True(t, svc.IsButtRunning(context.Background(), true))
	assert.Equal(t, int64(1), checks.Load())
}

func TestIsButtRunning_EnumerationFailureReadsAsNotRunning(t *testing.T) {
	mock := &butt.MockRunner{
		IsRunningFunc: func(_ context.Context) (bool, int, error) {
			return false, 0, fmt.Errorf("pgrep failed: not installed")
		},
	}
	svc, _ := newTestService(mock)

	assert.False(t, svc.IsButtRunning(context.Background(), false))
}

func TestStartProcess_AlreadyRunning(t *testing.T) {
	mock := &butt.MockRunner{
		IsRunningFunc: func(_ context.Context) (bool, int, error) {
			return true, 12, nil
		},
	}
	svc, _ := newTestService(mock)

	res := svc.StartProcess(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "BUTT is already running", res.Message)
}

func TestStartProcess_BecomesVisibleAfterSpawn(t *testing.T) {
	var checks atomic.Int64
	mock := &butt.MockRunner{
		IsRunningFunc: func(_ context.Context) (bool, int, error) {
			// Not running before spawn, visible on the first poll after.
			return checks.Add(1) >= 2, 31, nil
		},
		StartDetachedFunc: func(_ context.Context) (int, error) {
			return 31, nil
		},
	}
	svc, _ := newTestService(mock)

	res := svc.StartProcess(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "BUTT started successfully", res.Message)
}

func TestClearCache(t *testing.T) {
	mock, _ := countingRunner("connected: 1")
	svc, c := newTestService(mock)

	svc.DetailedStatus(context.Background(), true)
	require.NotZero(t, c.Len())

	svc.ClearCache()
	assert.Zero(t, c.Len())
}
