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

package main

import (
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/blinklabs-io/referenda"
	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/decision"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w io.Writer, v any) error {
	enc := jsonAPI.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPercent renders a perbill as a percentage with four decimals
func formatPercent(p curve.Perbill) string {
	return decimal.New(int64(p), -7).StringFixed(4) + "%"
}

func formatBalance(b *big.Int) string {
	if b == nil {
		return "0"
	}
	return humanize.BigComma(b)
}

type tallyView struct {
	Ayes               string       `json:"ayes"`
	Nays               string       `json:"nays"`
	Support            string       `json:"support"`
	Voters             tally.Counts `json:"voters"`
	Superseded         int          `json:"superseded,omitempty"`
	ClampedConvictions int          `json:"clampedConvictions,omitempty"`
	Malformed          int          `json:"malformed,omitempty"`
}

func newTallyView(t tally.Tally) tallyView {
	return tallyView{
		Ayes:               formatBalance(t.Ayes),
		Nays:               formatBalance(t.Nays),
		Support:            formatBalance(t.Support),
		Voters:             t.Counts,
		Superseded:         t.Superseded,
		ClampedConvictions: t.ClampedConvictions,
		Malformed:          t.Malformed,
	}
}

type periodView struct {
	StartsAt       *time.Time `json:"startsAt,omitempty"`
	EndsAt         *time.Time `json:"endsAt,omitempty"`
	PercentElapsed uint8      `json:"percentElapsed"`
	Active         bool       `json:"active"`
	Visible        bool       `json:"visible"`
	Started        bool       `json:"started"`
}

func newPeriodView(p timeline.Period) periodView {
	ret := periodView{
		PercentElapsed: p.PercentElapsed,
		Active:         p.IsActive,
		Visible:        p.Visible,
		Started:        p.Started,
	}
	if p.Determinable {
		ret.StartsAt = &p.StartsAt
		ret.EndsAt = &p.EndsAt
	}
	return ret
}

type timelineView struct {
	State           string     `json:"state"`
	Prepare         periodView `json:"prepare"`
	Deciding        periodView `json:"deciding"`
	Confirm         periodView `json:"confirm"`
	Enactment       periodView `json:"enactment"`
	DecisionElapsed string     `json:"decisionElapsed,omitempty"`
	Anomalies       int        `json:"anomalies,omitempty"`
	Degraded        bool       `json:"degraded,omitempty"`
}

func newTimelineView(r timeline.Resolution) timelineView {
	ret := timelineView{
		State:     r.State.String(),
		Prepare:   newPeriodView(r.Prepare),
		Deciding:  newPeriodView(r.Deciding),
		Confirm:   newPeriodView(r.Confirm),
		Enactment: newPeriodView(r.Enactment),
		Anomalies: r.Anomalies,
		Degraded:  r.Degraded,
	}
	if r.DecisionElapsedKnown {
		ret.DecisionElapsed = formatPercent(r.DecisionElapsed)
	}
	return ret
}

type evaluationView struct {
	Elapsed          string `json:"elapsed"`
	Approval         string `json:"approval"`
	RequiredApproval string `json:"requiredApproval,omitempty"`
	Support          string `json:"support"`
	RequiredSupport  string `json:"requiredSupport,omitempty"`
	Passing          bool   `json:"passing"`
	Undefined        bool   `json:"undefined,omitempty"`
	Degraded         bool   `json:"degraded,omitempty"`
}

type projectionView struct {
	Reachable       bool   `json:"reachable"`
	PassesAt        string `json:"passesAt"`
	MinutesIn       int    `json:"minutesIn"`
	ApprovalMetAt   string `json:"approvalMetAt"`
	SupportMetAt    string `json:"supportMetAt"`
	SupportDegraded bool   `json:"supportDegraded,omitempty"`
}

type reportView struct {
	Track      string          `json:"track"`
	Tally      tallyView       `json:"tally"`
	Timeline   timelineView    `json:"timeline"`
	Evaluation evaluationView  `json:"evaluation"`
	Projection *projectionView `json:"projection,omitempty"`
	Degraded   bool            `json:"degraded"`
}

func newReportView(name string, r referenda.Report) reportView {
	e := r.Evaluation
	ret := reportView{
		Track:    name,
		Tally:    newTallyView(r.Tally),
		Timeline: newTimelineView(r.Timeline),
		Evaluation: evaluationView{
			Elapsed:   formatPercent(e.X),
			Approval:  formatPercent(e.CurrentApproval),
			Support:   formatPercent(e.CurrentSupport),
			Passing:   e.Passing,
			Undefined: e.Undefined,
			Degraded:  e.Degraded,
		},
		Degraded: r.Degraded,
	}
	if !e.Undefined {
		ret.Evaluation.RequiredApproval = formatPercent(e.RequiredApproval)
		ret.Evaluation.RequiredSupport = formatPercent(e.RequiredSupport)
	}
	if r.ProjectionKnown {
		p := r.Projection
		ret.Projection = &projectionView{
			Reachable:       p.Reachable,
			PassesAt:        formatPercent(p.X),
			MinutesIn:       p.Minutes(r.DecisionMinutes),
			ApprovalMetAt:   formatPercent(p.Approval),
			SupportMetAt:    formatPercent(p.Support),
			SupportDegraded: p.Degraded,
		}
	}
	return ret
}

type pointView struct {
	Minute  int    `json:"minute"`
	Percent string `json:"percent"`
}

func newPointsView(points []decision.CurvePoint) []pointView {
	ret := make([]pointView, 0, len(points))
	for _, p := range points {
		ret = append(ret, pointView{Minute: p.XMinutes, Percent: formatPercent(p.Y)})
	}
	return ret
}

type chartView struct {
	Track            string      `json:"track"`
	DecisionMinutes  int         `json:"decisionMinutes"`
	RequiredApproval []pointView `json:"requiredApproval"`
	RequiredSupport  []pointView `json:"requiredSupport"`
	CurrentApproval  []pointView `json:"currentApproval,omitempty"`
	CurrentSupport   []pointView `json:"currentSupport,omitempty"`
	Degraded         bool        `json:"degraded,omitempty"`
}

// logMetrics writes the engine counters at debug level
func logMetrics(logger *slog.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		logger.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				logger.Debug(
					"metric",
					"component", programName,
					"name", mf.GetName(),
					"value", c.GetValue(),
				)
			}
		}
	}
}
