// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package butt

import (
	"strings"

	"github.com/AleutianAI/buttbridge/services/bridge/datatypes"
)

// ParseStatus translates BUTT's raw status text into a StatusRecord.
//
// # Description
//
// BUTT answers `-S` with line-oriented `key: value` pairs, e.g.
//
//	connecting: 0
//	connected: 1
//	recording: 0
//	signal present: 1
//
// Each line containing a ':' contributes one entry to an intermediate
// map (key trimmed and lowercased, value trimmed, first ':' wins);
// other lines are ignored. A value of literal "1" means true and
// anything else, including an absent key, means false. Parsing cannot
// fail: malformed text degrades to all-false fields rather than an
// error.
//
// Streaming is derived as `connected && !connecting` from the resolved
// flag values, not from text order. A connection attempt in progress
// is not yet streaming even when the connected flag is already set.
//
// # Inputs
//
//   - raw: Status text as printed by BUTT. May be empty.
//
// # Outputs
//
//   - datatypes.StatusRecord: Parsed snapshot with RawMessage set to
//     raw and CommandSucceeded true (the caller overrides both when
//     the status query itself failed).
//
// Pure function: no I/O, deterministic for a given input.
func ParseStatus(raw string) datatypes.StatusRecord {
	fields := map[string]string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	connected := fields["connected"] == "1"
	connecting := fields["connecting"] == "1"

	return datatypes.StatusRecord{
		Streaming:        connected && !connecting,
		Recording:        fields["recording"] == "1",
		Connected:        connected,
		Connecting:       connecting,
		SignalPresent:    fields["signal present"] == "1",
		RawMessage:       raw,
		CommandSucceeded: true,
	}
}
