// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package butt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus_ConnectingSuppressesStreaming(t *testing.T) {
	rec := ParseStatus("connected: 1\nconnecting: 1\nrecording: 0")

	assert.False(t, rec.Streaming, "connecting must suppress streaming")
	assert.True(t, rec.Connected)
	assert.True(t, rec.Connecting)
	assert.False(t, rec.Recording)
}

func TestParseStatus_ConnectedAndSettled(t *testing.T) {
	rec := ParseStatus("connecting: 0\nconnected: 1\nrecording: 1\nsignal present: 1")

	assert.True(t, rec.Streaming)
	assert.True(t, rec.Recording)
	assert.True(t, rec.SignalPresent)
}

func TestParseStatus_EmptyInputDefaultsFalse(t *testing.T) {
	rec := ParseStatus("")

	assert.False(t, rec.Streaming)
	assert.False(t, rec.Recording)
	assert.False(t, rec.Connected)
	assert.False(t, rec.Connecting)
	assert.False(t, rec.SignalPresent)
	assert.Equal(t, "", rec.RawMessage)
	assert.True(t, rec.CommandSucceeded)
}

func TestParseStatus_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		streaming bool
		recording bool
	}{
		{
			name:      "whitespace and case folding",
			raw:       "  Connected :  1 \n RECORDING: 1",
			streaming: true,
			recording: true,
		},
		{
			name:      "non-1 values are false",
			raw:       "connected: yes\nrecording: true",
			streaming: false,
			recording: false,
		},
		{
			name:      "unrecognized lines ignored",
			raw:       "garbage line\nconnected: 1\n=====\nrecording: 0",
			streaming: true,
			recording: false,
		},
		{
			name:      "first colon wins",
			raw:       "connected: 1: extra",
			streaming: false, // value is "1: extra", not "1"
			recording: false,
		},
		{
			name:      "missing connected leaves streaming false",
			raw:       "recording: 1",
			streaming: false,
			recording: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ParseStatus(tt.raw)
			assert.Equal(t, tt.streaming, rec.Streaming, "streaming")
			assert.Equal(t, tt.recording, rec.Recording, "recording")
			assert.Equal(t, tt.raw, rec.RawMessage, "raw message preserved")
		})
	}
}

func TestArgs(t *testing.T) {
	args, ok := Args(TypeStartStream)
	assert.True(t, ok)
	assert.Equal(t, []string{"-s"}, args)

	args, ok = Args(TypeUpdateSong, "My Song")
	assert.True(t, ok)
	assert.Equal(t, []string{"-u", "My Song"}, args)

	_, ok = Args("reboot")
	assert.False(t, ok)
}
