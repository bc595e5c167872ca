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

// Package referenda evaluates governance referenda: it folds votes into a
// tally, resolves the lifecycle timeline, and compares the result against
// the track's approval and support curves.
package referenda

import (
	"context"
	"math/big"
	"time"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/decision"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/blinklabs-io/referenda/track"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/blinklabs-io/referenda"

// Engine runs evaluations. It holds no per-referendum state and is safe
// for concurrent use.
type Engine struct {
	config  Config
	metrics *engineMetrics
	tracer  trace.Tracer
}

// Input is a snapshot of everything known about one referendum
type Input struct {
	Track  track.Spec
	Votes  []tally.Record
	Events []timeline.Event
	// TotalIssuance falls back to the engine's configured issuance when nil
	TotalIssuance *big.Int
	// Now defaults to the current time
	Now time.Time
}

// Report is the result of evaluating an Input
type Report struct {
	Tally      tally.Tally
	Timeline   timeline.Resolution
	Evaluation decision.Evaluation
	Projection decision.Projection
	// ProjectionKnown is false when the track curves could not be inverted
	ProjectionKnown bool
	DecisionMinutes int
	// Degraded is set when any stage had to correct or drop input
	Degraded bool
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config: cfg,
		tracer: cfg.tracerProvider.Tracer(tracerName),
	}
	if cfg.promRegistry != nil {
		e.metrics = &engineMetrics{}
		e.metrics.init(cfg.promRegistry)
	}
	return e, nil
}

// Evaluate runs the tally, timeline and decision stages over the input. It
// only fails when ctx is done; bad input is reported through the degraded
// and undefined fields of the report.
func (e *Engine) Evaluate(ctx context.Context, in Input) (Report, error) {
	var ret Report
	if err := ctx.Err(); err != nil {
		return ret, err
	}
	start := time.Now()
	ctx, span := e.tracer.Start(
		ctx,
		"referenda.Evaluate",
		trace.WithAttributes(
			attribute.Int("track.id", int(in.Track.ID)),
			attribute.String("track.name", in.Track.Name),
			attribute.Int("votes", len(in.Votes)),
			attribute.Int("events", len(in.Events)),
		),
	)
	defer span.End()
	logger := e.config.logger.With(
		"component", "referenda",
		"track", in.Track.Name,
	)
	if err := in.Track.Validate(); err != nil {
		logger.Warn(
			"track configuration error, thresholds are undefined",
			"error", err,
		)
	}

	// Tally
	_, tallySpan := e.tracer.Start(ctx, "tally")
	ret.Tally = tally.Aggregate(in.Votes)
	tallySpan.SetAttributes(
		attribute.Int("voters", ret.Tally.Counts.Total()),
		attribute.Int("superseded", ret.Tally.Superseded),
	)
	tallySpan.End()
	if ret.Tally.Degraded() {
		logger.Warn(
			"vote records needed correction",
			"clamped_convictions", ret.Tally.ClampedConvictions,
			"malformed", ret.Tally.Malformed,
		)
	}

	// Timeline
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	_, timelineSpan := e.tracer.Start(ctx, "timeline")
	ret.Timeline = timeline.Resolve(in.Track, in.Events, now, e.config.blockTime)
	timelineSpan.SetAttributes(
		attribute.String("state", ret.Timeline.State.String()),
		attribute.Int("anomalies", ret.Timeline.Anomalies),
	)
	timelineSpan.End()
	if ret.Timeline.Anomalies > 0 || ret.Timeline.Degraded {
		logger.Warn(
			"timeline events were inconsistent",
			"anomalies", ret.Timeline.Anomalies,
			"degraded", ret.Timeline.Degraded,
		)
	}

	// Decision
	_, decisionSpan := e.tracer.Start(ctx, "decision")
	issuance := in.TotalIssuance
	if issuance == nil {
		issuance = e.config.totalIssuance
	}
	// Before deciding starts the thresholds are those at the start of the
	// period
	var x curve.Perbill
	if ret.Timeline.DecisionElapsedKnown {
		x = ret.Timeline.DecisionElapsed
	}
	ret.Evaluation = decision.Evaluate(in.Track, ret.Tally, issuance, x)
	if proj, err := decision.Project(in.Track, ret.Tally, issuance); err == nil {
		ret.Projection = proj
		ret.ProjectionKnown = true
	} else {
		logger.Debug("no projection", "error", err)
	}
	ret.DecisionMinutes = decision.DecisionMinutes(in.Track, e.config.blockTime)
	decisionSpan.SetAttributes(
		attribute.Bool("passing", ret.Evaluation.Passing),
		attribute.Int64("x", int64(x)),
	)
	if ret.Evaluation.Undefined {
		decisionSpan.SetStatus(codes.Error, "undefined curve")
	}
	decisionSpan.End()
	if ret.Evaluation.Degraded {
		logger.Warn("total issuance unavailable, support reported as zero")
	}

	ret.Degraded = ret.Tally.Degraded() ||
		ret.Timeline.Degraded ||
		ret.Timeline.Anomalies > 0 ||
		ret.Evaluation.Degraded ||
		ret.Evaluation.Undefined
	span.SetAttributes(
		attribute.Bool("degraded", ret.Degraded),
		attribute.String("state", ret.Timeline.State.String()),
	)
	logger.Debug(
		"evaluated referendum",
		"state", ret.Timeline.State.String(),
		"approval", ret.Evaluation.CurrentApproval.String(),
		"support", ret.Evaluation.CurrentSupport.String(),
		"passing", ret.Evaluation.Passing,
	)
	if e.metrics != nil {
		verdict := "failing"
		switch {
		case ret.Evaluation.Undefined:
			verdict = "undefined"
		case ret.Evaluation.Passing:
			verdict = "passing"
		}
		e.metrics.evaluationsTotal.WithLabelValues(verdict).Inc()
		if ret.Degraded {
			e.metrics.degradedTotal.Inc()
		}
		e.metrics.clampedConvictions.Add(float64(ret.Tally.ClampedConvictions))
		e.metrics.malformedVotes.Add(float64(ret.Tally.Malformed))
		e.metrics.timelineAnomalies.Add(float64(ret.Timeline.Anomalies))
		e.metrics.evaluationLatency.Observe(time.Since(start).Seconds())
	}
	return ret, nil
}

// Chart samples the four plotted curves of a referendum in parallel: the
// required approval and support over the decision period, and the observed
// approval and support stepped through the snapshots.
func (e *Engine) Chart(
	ctx context.Context,
	spec track.Spec,
	snapshots []decision.Snapshot,
) (decision.Chart, error) {
	ctx, span := e.tracer.Start(
		ctx,
		"referenda.Chart",
		trace.WithAttributes(
			attribute.String("track.name", spec.Name),
			attribute.Int("snapshots", len(snapshots)),
		),
	)
	defer span.End()
	var ret decision.Chart
	minutes := decision.DecisionMinutes(spec, e.config.blockTime)
	if minutes <= 0 {
		span.SetStatus(codes.Error, decision.ErrNoDecisionPeriod.Error())
		return ret, decision.ErrNoDecisionPeriod
	}
	opts := e.config.seriesOptions()
	var supportDegraded bool
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points, err := decision.SampleCurve(spec.MinApproval, minutes, opts)
		ret.Required.Approval = points
		return err
	})
	g.Go(func() error {
		points, err := decision.SampleCurve(spec.MinSupport, minutes, opts)
		ret.Required.Support = points
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ret.CurrentApproval, _ = decision.StepSnapshots(
			snapshots, minutes, opts, decision.ApprovalValue,
		)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ret.CurrentSupport, supportDegraded = decision.StepSnapshots(
			snapshots, minutes, opts, decision.SupportValue,
		)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return decision.Chart{}, err
	}
	ret.Degraded = supportDegraded
	if supportDegraded {
		e.config.logger.Warn(
			"chart snapshots missing total issuance",
			"component", "referenda",
			"track", spec.Name,
		)
	}
	if e.metrics != nil {
		e.metrics.chartPoints.Add(float64(
			len(ret.Required.Approval) + len(ret.Required.Support) +
				len(ret.CurrentApproval) + len(ret.CurrentSupport),
		))
	}
	return ret, nil
}
