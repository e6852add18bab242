// SPDX-License-Identifier: MIT

package calibrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workOrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calkernel_calibrate_work_orders_total",
		Help: "Work orders processed, by outcome.",
	}, []string{"outcome"})

	instanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calkernel_calibrate_instance_duration_seconds",
		Help:    "Time to evaluate one baseline instance.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	equationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calkernel_calibrate_equations_total",
		Help: "Condition equations handed to the solver.",
	})
)
