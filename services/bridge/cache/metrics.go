// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache behavior, labeled by cache key so the
// status and liveness key classes can be graphed independently.
var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buttbridge_cache_hits_total",
		Help: "Total unexpired cache reads by key",
	}, []string{"key"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buttbridge_cache_misses_total",
		Help: "Total cache misses (absent or expired) by key",
	}, []string{"key"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buttbridge_cache_evictions_total",
		Help: "Total entries removed because their TTL elapsed, by key",
	}, []string{"key"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buttbridge_cache_invalidations_total",
		Help: "Total explicit invalidations after state-changing commands, by key",
	}, []string{"key"})
)
