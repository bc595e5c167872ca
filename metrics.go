// Copyright 2026 Blink Labs Software
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

package referenda

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	degradedTotal      prometheus.Counter
	clampedConvictions prometheus.Counter
	malformedVotes     prometheus.Counter
	timelineAnomalies  prometheus.Counter
	evaluationLatency  prometheus.Histogram
	chartPoints        prometheus.Counter
}

func (m *engineMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.evaluationsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referenda_evaluations_total",
			Help: "total number of referendum evaluations by verdict",
		},
		[]string{"verdict"},
	)
	m.degradedTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "referenda_evaluations_degraded_total",
		Help: "evaluations that reported a degraded result",
	})
	m.clampedConvictions = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "referenda_convictions_clamped_total",
		Help: "vote records with an out-of-range conviction",
	})
	m.malformedVotes = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "referenda_votes_malformed_total",
		Help: "vote records with an unknown decision or negative amount",
	})
	m.timelineAnomalies = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "referenda_timeline_anomalies_total",
		Help: "timeline events that were out of sequence or unusable",
	})
	m.evaluationLatency = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "referenda_evaluation_duration_seconds",
			Help:    "time taken to evaluate a referendum",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100us to ~1.6s
		},
	)
	m.chartPoints = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "referenda_chart_points_total",
		Help: "total number of sampled chart points",
	})
}
