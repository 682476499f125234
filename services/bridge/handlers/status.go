// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/buttbridge/services/bridge/control"
	"github.com/AleutianAI/buttbridge/services/bridge/datatypes"
)

// buildStatus assembles the full status document for one request.
func buildStatus(c *gin.Context, svc *control.Service, useCache bool) datatypes.StatusResponse {
	ctx := c.Request.Context()
	exePath, exeFound := svc.ExecutablePath()

	resp := datatypes.StatusResponse{
		ButtExecutable: exePath,
		ButtFound:      exeFound,
		Capabilities: datatypes.Capabilities{
			Streaming:      true,
			Recording:      true,
			SplitRecording: true,
			ControlMethod:  "command_line",
		},
	}

	resp.ButtRunning = svc.IsButtRunning(ctx, useCache)
	if !resp.ButtRunning {
		return resp
	}

	rec := svc.DetailedStatus(ctx, useCache)
	resp.Streaming = rec.Streaming
	resp.Recording = rec.Recording
	resp.Connected = rec.Connected
	resp.Connecting = rec.Connecting
	resp.SignalPresent = rec.SignalPresent
	resp.StatusMessage = rec.RawMessage
	resp.CommandSuccess = rec.CommandSucceeded
	return resp
}

// GetStatus serves GET /v1/status.
//
// `?refresh=1` bypasses the status cache (the fresh query is still
// subject to the command gate, so a refresh storm degrades to
// throttled responses instead of hammering BUTT).
func GetStatus(svc *control.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		useCache := c.Query("refresh") != "1"
		c.JSON(http.StatusOK, buildStatus(c, svc, useCache))
	}
}
