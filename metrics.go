// Copyright 2025 Blink Labs Software
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

package supersig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	unitsCreated       prometheus.Counter
	unitsRemoved       prometheus.Counter
	proposalsSubmitted prometheus.Counter
	votes              prometheus.Counter
	executions         *prometheus.CounterVec
	failures           *prometheus.CounterVec
}

func newEngineMetrics(promRegistry prometheus.Registerer) *engineMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &engineMetrics{
		unitsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "supersig_units_created_total",
			Help: "total units created",
		}),
		unitsRemoved: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "supersig_units_removed_total",
			Help: "total units deleted",
		}),
		proposalsSubmitted: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "supersig_proposals_submitted_total",
			Help: "total proposals submitted",
		}),
		votes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "supersig_votes_total",
			Help: "total approvals recorded",
		}),
		executions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supersig_executions_total",
				Help: "executed proposals by outcome",
			},
			[]string{"outcome"},
		),
		failures: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supersig_operation_failures_total",
				Help: "rejected or failed operations",
			},
			[]string{"operation"},
		),
	}
}

// The helpers below accept a nil receiver so callers need no guards when
// metrics are disabled

func (m *engineMetrics) unitCreated() {
	if m != nil {
		m.unitsCreated.Inc()
	}
}

func (m *engineMetrics) unitRemoved() {
	if m != nil {
		m.unitsRemoved.Inc()
	}
}

func (m *engineMetrics) proposalSubmitted() {
	if m != nil {
		m.proposalsSubmitted.Inc()
	}
}

func (m *engineMetrics) voteCast() {
	if m != nil {
		m.votes.Inc()
	}
}

func (m *engineMetrics) callExecuted(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.executions.WithLabelValues(outcome).Inc()
}

func (m *engineMetrics) operationFailed(operation string) {
	if m != nil {
		m.failures.WithLabelValues(operation).Inc()
	}
}
