// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/buttbridge/services/bridge/control"
	"github.com/AleutianAI/buttbridge/services/bridge/datatypes"
)

// statusCodeFor maps a result kind to the HTTP status of the response.
func statusCodeFor(res datatypes.CommandResult) int {
	switch res.Kind {
	case datatypes.KindThrottled:
		return http.StatusTooManyRequests
	case datatypes.KindUnavailable:
		return http.StatusServiceUnavailable
	case datatypes.KindTimeout:
		return http.StatusGatewayTimeout
	case datatypes.KindFailure:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// writeResult renders a command result with its mapped status code.
func writeResult(c *gin.Context, res datatypes.CommandResult) {
	c.JSON(statusCodeFor(res), datatypes.CommandResponse{
		Success: res.Success,
		Message: res.Message,
	})
}

// requireRunning aborts with 400 when no BUTT process exists.
// The liveness check rides the cache, so a burst of writes does not
// turn into a burst of process-table scans.
func requireRunning(c *gin.Context, svc *control.Service) bool {
	if !svc.IsButtRunning(c.Request.Context(), true) {
		c.JSON(http.StatusBadRequest, datatypes.CommandResponse{
			Success: false,
			Message: control.MsgNotRunning,
		})
		return false
	}
	return true
}

// commandHandler wraps a control operation guarded by the liveness check.
func commandHandler(svc *control.Service,
	op func(ctx context.Context) datatypes.CommandResult) gin.HandlerFunc {

	return func(c *gin.Context) {
		if !requireRunning(c, svc) {
			return
		}
		writeResult(c, op(c.Request.Context()))
	}
}

// StartStream serves POST /v1/stream/start.
func StartStream(svc *control.Service) gin.HandlerFunc {
	return commandHandler(svc, svc.StartStreaming)
}

// StopStream serves POST /v1/stream/stop.
func StopStream(svc *control.Service) gin.HandlerFunc {
	return commandHandler(svc, svc.StopStreaming)
}

// StartRecord serves POST /v1/record/start.
func StartRecord(svc *control.Service) gin.HandlerFunc {
	return commandHandler(svc, svc.StartRecording)
}

// StopRecord serves POST /v1/record/stop.
func StopRecord(svc *control.Service) gin.HandlerFunc {
	return commandHandler(svc, svc.StopRecording)
}

// SplitRecord serves POST /v1/record/split.
func SplitRecord(svc *control.Service) gin.HandlerFunc {
	return commandHandler(svc, svc.SplitRecording)
}

// QuitButt serves POST /v1/butt/quit.
func QuitButt(svc *control.Service) gin.HandlerFunc {
	return commandHandler(svc, svc.Quit)
}

// StartButt serves POST /v1/butt/start.
//
// Unlike the command endpoints this one must work when BUTT is NOT
// running; it launches the process. A missing executable is a 404
// with an install hint, matching what the web panel expects.
func StartButt(svc *control.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		exePath, exeFound := svc.ExecutablePath()
		if !exeFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "BUTT executable not found at: " + exePath,
				"help":    "Install BUTT from https://danielnoethen.de/butt/",
			})
			return
		}
		writeResult(c, svc.StartProcess(c.Request.Context()))
	}
}

// UpdateSong serves POST /v1/song.
func UpdateSong(svc *control.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdateSongRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.SongName == "" {
			c.JSON(http.StatusBadRequest, datatypes.CommandResponse{
				Success: false,
				Message: "Song name is required",
			})
			return
		}
		if !requireRunning(c, svc) {
			return
		}
		writeResult(c, svc.UpdateSongName(c.Request.Context(), req.SongName))
	}
}

// ClearCache serves POST /v1/cache/clear.
func ClearCache(svc *control.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.ClearCache()
		c.JSON(http.StatusOK, datatypes.ClearCacheResponse{Success: true})
	}
}
