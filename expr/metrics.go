// SPDX-License-Identifier: MIT

package expr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// nodeEvaluations counts Op executions by op kind.
	nodeEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calkernel_expr_node_evaluations_total",
		Help: "Expression node evaluations by op kind",
	}, []string{"op"})

	// cacheHits counts nodes served from the per-request cache.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calkernel_expr_cache_hits_total",
		Help: "Expression nodes served from the per-request cache",
	})

	// nodeErrors counts failed node evaluations by op kind.
	nodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calkernel_expr_node_errors_total",
		Help: "Failed expression node evaluations by op kind",
	}, []string{"op"})
)
