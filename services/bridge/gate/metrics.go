// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gateAdmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buttbridge_gate_admissions_total",
		Help: "Commands admitted by the gate, by command type",
	}, []string{"command_type"})

	gateThrottles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buttbridge_gate_throttles_total",
		Help: "Commands rejected inside the minimum interval, by command type",
	}, []string{"command_type"})
)
