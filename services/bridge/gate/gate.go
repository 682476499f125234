// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gate throttles commands sent to BUTT's command channel.
//
// BUTT's channel is fragile under rapid repeated invocation, so the
// gate enforces a minimum interval between admitted commands of the
// same logical type. It provides no fairness or queueing: a rejected
// caller gets an immediate false and owns its own retry policy.
package gate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the admission interval when none is configured.
const DefaultMinInterval = 500 * time.Millisecond

// CommandGate admits at most one command per type per minimum interval.
//
// # Description
//
// Each command type owns an independent rate.Limiter configured as
// rate.Every(minInterval) with burst 1, so the check-and-update is a
// single atomic Allow call: two concurrent callers for the same type
// can never both be admitted inside one interval. Throttle state is
// never exposed outside the gate.
//
// # Thread Safety
//
// Safe for concurrent use. The internal map lock guards limiter
// creation only; admission itself is the limiter's own atomic
// operation.
type CommandGate struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	minInterval time.Duration
}

// New creates a CommandGate with the given minimum interval between
// admitted commands of the same type.
//
// # Inputs
//
//   - minInterval: Admission interval. Zero or negative falls back to
//     DefaultMinInterval.
//
// # Examples
//
//	g := gate.New(500 * time.Millisecond)
//	if !g.TryAdmit("status") {
//	    // throttled, report and let the caller retry later
//	}
func New(minInterval time.Duration) *CommandGate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &CommandGate{
		limiters:    map[string]*rate.Limiter{},
		minInterval: minInterval,
	}
}

// TryAdmit atomically checks and records an admission for commandType.
//
// # Description
//
// Returns true and consumes the type's token when at least minInterval
// has elapsed since the last admitted call of that type (the first
// call for an unseen type is always admitted). Returns false without
// changing any state otherwise. Distinct types never affect each
// other.
//
// # Inputs
//
//   - commandType: Logical command class ("status", "start_stream", ...).
//
// # Outputs
//
//   - bool: True when admitted, false when throttled.
func (g *CommandGate) TryAdmit(commandType string) bool {
	return g.tryAdmitAt(commandType, time.Now())
}

// tryAdmitAt is TryAdmit with an explicit now, for deterministic tests.
func (g *CommandGate) tryAdmitAt(commandType string, now time.Time) bool {
	admitted := g.limiter(commandType).AllowN(now, 1)
	if admitted {
		gateAdmissions.WithLabelValues(commandType).Inc()
	} else {
		gateThrottles.WithLabelValues(commandType).Inc()
	}
	return admitted
}

// limiter returns the limiter for commandType, creating it on first use.
func (g *CommandGate) limiter(commandType string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[commandType]
	if !ok {
		l = rate.NewLimiter(rate.Every(g.minInterval), 1)
		g.limiters[commandType] = l
	}
	return l
}
