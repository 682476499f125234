// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/buttbridge/services/bridge/butt"
	"github.com/AleutianAI/buttbridge/services/bridge/datatypes"
)

// Human-readable messages for the failure kinds. Throttling and
// unavailability get specific, distinguishable text so callers can
// tell "try again shortly" from "the tool rejected this".
const (
	// MsgTimedOut is returned when the bounded wait for BUTT elapsed.
	MsgTimedOut = "Command timed out"

	// MsgNotRunning is returned by write endpoints guarded by the
	// liveness check.
	MsgNotRunning = "BUTT is not running"
)

// throttledMessage formats the throttle notice for a command type.
func throttledMessage(commandType string) string {
	return fmt.Sprintf("Command '%s' throttled, retry shortly", commandType)
}

// classify maps a runner error to a result kind plus message.
//
// Timeouts and a missing executable are distinguished from ordinary
// command failures; everything is recovered into a structured result,
// never propagated as an error past the control boundary.
func classify(err error) (datatypes.ResultKind, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return datatypes.KindTimeout, MsgTimedOut
	case errors.Is(err, butt.ErrExecutableNotFound):
		return datatypes.KindUnavailable, err.Error()
	default:
		return datatypes.KindFailure, err.Error()
	}
}
