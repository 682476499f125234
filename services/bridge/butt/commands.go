// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package butt wraps the BUTT (Broadcast Using This Tool) command-line
// control channel: locating the executable, running control commands
// against a live instance, checking process liveness, and parsing the
// status output.
//
// The control protocol itself is opaque to the bridge. A running BUTT
// instance listens on a local command port; a second, short-lived
// invocation of the same binary with `-p <port>` plus an action flag
// delivers the command and prints the response on stdout.
package butt

// Logical command types. The gate throttles each type independently;
// all status queries share one budget, separate from every
// state-changing command.
const (
	TypeStatus      = "status"
	TypeStartStream = "start_stream"
	TypeStopStream  = "stop_stream"
	TypeStartRecord = "start_record"
	TypeStopRecord  = "stop_record"
	TypeSplitRecord = "split_record"
	TypeUpdateSong  = "update_song"
	TypeQuit        = "quit"
)

// commandFlags maps a command type to the BUTT CLI flag that triggers it.
var commandFlags = map[string]string{
	TypeStatus:      "-S",
	TypeStartStream: "-s",
	TypeStopStream:  "-d",
	TypeStartRecord: "-r",
	TypeStopRecord:  "-t",
	TypeSplitRecord: "-n",
	TypeUpdateSong:  "-u",
	TypeQuit:        "-q",
}

// Args returns the CLI arguments for a command type, with any extra
// values (currently only the song name for TypeUpdateSong) appended
// after the flag. The second return is false for unknown types.
func Args(commandType string, extra ...string) ([]string, bool) {
	flag, ok := commandFlags[commandType]
	if !ok {
		return nil, false
	}
	return append([]string{flag}, extra...), true
}
