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

package decision

import (
	"cmp"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/blinklabs-io/referenda/track"
)

// ErrNoDecisionPeriod is returned when sampling a decision period with no
// length
var ErrNoDecisionPeriod = errors.New("decision period has no length")

// CurvePoint is one sample of a plotted curve
type CurvePoint struct {
	XMinutes int
	Y        curve.Perbill
}

// SeriesOptions controls curve sampling
type SeriesOptions struct {
	// Step is the sampling interval in minutes. Zero means one minute.
	Step int
	// ExtendMinutes samples past the end of the decision period
	ExtendMinutes int
}

func (o SeriesOptions) step() int {
	if o.Step <= 0 {
		return 1
	}
	return o.Step
}

// Series holds the required approval and support curves of a track
type Series struct {
	Approval []CurvePoint
	Support  []CurvePoint
}

// DecisionMinutes returns the length of the track's decision period in whole
// minutes
func DecisionMinutes(spec track.Spec, blockTime timeline.BlockTimeFunc) int {
	if blockTime == nil {
		return 0
	}
	return int(blockTime(spec.DecisionPeriod) / time.Minute)
}

// SampleCurve evaluates c at every step over [0, decisionMinutes) plus the
// extension. Points past the end of the period use x > One.
func SampleCurve(
	c curve.Curve,
	decisionMinutes int,
	opts SeriesOptions,
) ([]CurvePoint, error) {
	if decisionMinutes <= 0 {
		return nil, ErrNoDecisionPeriod
	}
	if c == nil {
		return nil, curve.ErrUndefinedCurve
	}
	end := decisionMinutes + max(opts.ExtendMinutes, 0)
	step := opts.step()
	ret := make([]CurvePoint, 0, (end+step-1)/step)
	for m := 0; m < end; m += step {
		y, err := c.Threshold(minuteFraction(m, decisionMinutes))
		if err != nil {
			return nil, fmt.Errorf("sample at minute %d: %w", m, err)
		}
		ret = append(ret, CurvePoint{XMinutes: m, Y: y})
	}
	return ret, nil
}

// RequiredSeries samples both threshold curves of a track
func RequiredSeries(
	spec track.Spec,
	decisionMinutes int,
	opts SeriesOptions,
) (Series, error) {
	var ret Series
	var err error
	if ret.Approval, err = SampleCurve(spec.MinApproval, decisionMinutes, opts); err != nil {
		return Series{}, fmt.Errorf("approval curve: %w", err)
	}
	if ret.Support, err = SampleCurve(spec.MinSupport, decisionMinutes, opts); err != nil {
		return Series{}, fmt.Errorf("support curve: %w", err)
	}
	return ret, nil
}

// Snapshot is a historical tally observed at some point of the decision
// period
type Snapshot struct {
	// Elapsed is the time since the decision period started
	Elapsed       time.Duration
	Tally         tally.Tally
	TotalIssuance *big.Int
}

// VoteSnapshots replays vote records in block order and returns the tally
// after each block that carried a vote. Votes cast before startBlock, the
// block deciding began, are folded into the first snapshot at elapsed zero.
func VoteSnapshots(
	records []tally.Record,
	startBlock uint64,
	blockTime timeline.BlockTimeFunc,
	totalIssuance *big.Int,
) []Snapshot {
	if len(records) == 0 || blockTime == nil {
		return nil
	}
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b tally.Record) int {
		return cmp.Compare(a.Block, b.Block)
	})
	var ret []Snapshot
	for i := 0; i < len(ordered); {
		block := max(ordered[i].Block, startBlock)
		j := i
		for j < len(ordered) && max(ordered[j].Block, startBlock) == block {
			j++
		}
		ret = append(ret, Snapshot{
			Elapsed:       blockTime(block - startBlock),
			Tally:         tally.Aggregate(ordered[:j]),
			TotalIssuance: totalIssuance,
		})
		i = j
	}
	return ret
}

// ValueFunc extracts the plotted value from a snapshot. The second return is
// false when the value is degraded.
type ValueFunc func(Snapshot) (curve.Perbill, bool)

// ApprovalValue plots the approval of each snapshot
func ApprovalValue(s Snapshot) (curve.Perbill, bool) {
	return CurrentApproval(s.Tally), true
}

// SupportValue plots the support of each snapshot
func SupportValue(s Snapshot) (curve.Perbill, bool) {
	return CurrentSupport(s.Tally, s.TotalIssuance)
}

// StepSnapshots builds a step curve through the snapshots, sampled at the
// same minutes as SampleCurve. The curve starts at the first snapshot and is
// truncated after the last one. The second return reports whether any
// snapshot was degraded.
func StepSnapshots(
	snapshots []Snapshot,
	decisionMinutes int,
	opts SeriesOptions,
	value ValueFunc,
) ([]CurvePoint, bool) {
	if len(snapshots) == 0 || decisionMinutes <= 0 {
		return nil, false
	}
	ordered := slices.Clone(snapshots)
	slices.SortStableFunc(ordered, func(a, b Snapshot) int {
		switch {
		case a.Elapsed < b.Elapsed:
			return -1
		case a.Elapsed > b.Elapsed:
			return 1
		}
		return 0
	})
	first := snapshotMinute(ordered[0])
	last := snapshotMinute(ordered[len(ordered)-1])
	end := min(decisionMinutes+max(opts.ExtendMinutes, 0), last+1)
	step := opts.step()
	var ret []CurvePoint
	degraded := false
	idx := 0
	var current curve.Perbill
	for m := 0; m < end; m += step {
		if m < first {
			continue
		}
		// Latest snapshot at or before this minute
		for idx < len(ordered) && snapshotMinute(ordered[idx]) <= m {
			v, ok := value(ordered[idx])
			if !ok {
				degraded = true
			}
			current = v
			idx++
		}
		ret = append(ret, CurvePoint{XMinutes: m, Y: current})
	}
	return ret, degraded
}

// Chart holds the four plotted curves of a referendum
type Chart struct {
	Required        Series
	CurrentApproval []CurvePoint
	CurrentSupport  []CurvePoint
	// Degraded is set when a snapshot lacked total issuance
	Degraded bool
}

// BuildChart samples the required curves and steps the current values
// through the snapshots
func BuildChart(
	spec track.Spec,
	snapshots []Snapshot,
	decisionMinutes int,
	opts SeriesOptions,
) (Chart, error) {
	var ret Chart
	var err error
	if ret.Required, err = RequiredSeries(spec, decisionMinutes, opts); err != nil {
		return Chart{}, err
	}
	ret.CurrentApproval, _ = StepSnapshots(snapshots, decisionMinutes, opts, ApprovalValue)
	ret.CurrentSupport, ret.Degraded = StepSnapshots(snapshots, decisionMinutes, opts, SupportValue)
	return ret, nil
}

func snapshotMinute(s Snapshot) int {
	if s.Elapsed <= 0 {
		return 0
	}
	return int(s.Elapsed / time.Minute)
}

func minuteFraction(m, total int) curve.Perbill {
	// total is positive, so this cannot fail
	ret, _ := curve.FromFraction(uint64(m), uint64(total))
	return ret
}
