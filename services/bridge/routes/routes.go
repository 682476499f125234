// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/buttbridge/services/bridge/control"
	"github.com/AleutianAI/buttbridge/services/bridge/handlers"
)

// SetupRoutes registers the control API. The /metrics endpoint is
// registered by the bridge lifecycle, where it can be toggled off.
func SetupRoutes(router *gin.Engine, svc *control.Service) {
	router.GET("/", handlers.Home)
	router.GET("/health", handlers.HealthCheck)

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/status", handlers.GetStatus(svc))
		v1.GET("/status/ws", handlers.StatusWebSocket(svc))

		// Process lifecycle routes
		buttGroup := v1.Group("/butt")
		{
			buttGroup.POST("/start", handlers.StartButt(svc))
			buttGroup.POST("/quit", handlers.QuitButt(svc))
		}

		// Streaming control routes
		stream := v1.Group("/stream")
		{
			stream.POST("/start", handlers.StartStream(svc))
			stream.POST("/stop", handlers.StopStream(svc))
		}

		// Recording control routes
		record := v1.Group("/record")
		{
			record.POST("/start", handlers.StartRecord(svc))
			record.POST("/stop", handlers.StopRecord(svc))
			record.POST("/split", handlers.SplitRecord(svc))
		}

		v1.POST("/song", handlers.UpdateSong(svc))
		v1.POST("/cache/clear", handlers.ClearCache(svc))
	}
}
