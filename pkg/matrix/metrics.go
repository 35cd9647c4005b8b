// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package matrix

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"

	outcomeMatch   = "match"
	outcomeEmpty   = "empty"
	outcomeInvalid = "invalid"
)

var (
	entriesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "compat_matrix_entries",
			Help: "Number of entries in the most recently published compatibility matrix",
		},
	)

	replaceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compat_matrix_replace_total",
			Help: "Total number of compatibility matrix replace attempts by result",
		},
		[]string{"result"},
	)

	queryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compat_matrix_queries_total",
			Help: "Total number of compatibility matrix queries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	reloadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compat_matrix_reloads_total",
			Help: "Total number of compatibility matrix file reloads by result",
		},
		[]string{"result"},
	)
)

func queryOutcome[S ~[]E, E any](items S, valid bool) string {
	switch {
	case !valid:
		return outcomeInvalid
	case len(items) == 0:
		return outcomeEmpty
	default:
		return outcomeMatch
	}
}
