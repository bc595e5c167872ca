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
	"math/big"
	"testing"
	"time"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionMinutes(t *testing.T) {
	assert.Equal(t, 10_080, DecisionMinutes(testSpec, timeline.FixedBlockTime(6*time.Second)))
	assert.Equal(t, 0, DecisionMinutes(testSpec, nil))
}

func TestRequiredSeries_SevenDays(t *testing.T) {
	series, err := RequiredSeries(testSpec, 7*24*60, SeriesOptions{})
	require.NoError(t, err)
	require.Len(t, series.Approval, 10_080)
	require.Len(t, series.Support, 10_080)

	assert.Equal(t, CurvePoint{XMinutes: 0, Y: curve.One}, series.Approval[0])
	assert.Equal(t, 10_079, series.Approval[10_079].XMinutes)
	assert.Equal(t, CurvePoint{XMinutes: 5_040, Y: curve.FromPercent(75)}, series.Approval[5_040])
	for i := 1; i < len(series.Approval); i++ {
		assert.LessOrEqual(t, series.Approval[i].Y, series.Approval[i-1].Y)
		assert.LessOrEqual(t, series.Support[i].Y, series.Support[i-1].Y)
	}
}

func TestRequiredSeries_Options(t *testing.T) {
	series, err := RequiredSeries(testSpec, 100, SeriesOptions{ExtendMinutes: 20})
	require.NoError(t, err)
	require.Len(t, series.Approval, 120)
	// saturates at the floor past the end
	assert.Equal(t, curve.FromPercent(50), series.Approval[110].Y)

	series, err = RequiredSeries(testSpec, 100, SeriesOptions{Step: 15})
	require.NoError(t, err)
	require.Len(t, series.Approval, 7)
	assert.Equal(t, 90, series.Approval[6].XMinutes)
}

func TestRequiredSeries_Errors(t *testing.T) {
	_, err := RequiredSeries(testSpec, 0, SeriesOptions{})
	require.ErrorIs(t, err, ErrNoDecisionPeriod)

	spec := testSpec
	spec.MinSupport = curve.Reciprocal{}
	_, err = RequiredSeries(spec, 10, SeriesOptions{})
	require.ErrorIs(t, err, curve.ErrUndefinedCurve)
	assert.Contains(t, err.Error(), "support curve")
}

func TestStepSnapshots(t *testing.T) {
	issuance := big.NewInt(1_000)
	snapshots := []Snapshot{
		{Elapsed: 30 * time.Minute, Tally: newTally(9, 1, 400), TotalIssuance: issuance},
		{Elapsed: 10 * time.Minute, Tally: newTally(1, 1, 100), TotalIssuance: issuance},
		{Elapsed: 20*time.Minute + 30*time.Second, Tally: newTally(3, 1, 200), TotalIssuance: issuance},
	}
	points, degraded := StepSnapshots(snapshots, 100, SeriesOptions{}, ApprovalValue)
	assert.False(t, degraded)
	require.Len(t, points, 21, "minutes 10 through 30")
	assert.Equal(t, CurvePoint{XMinutes: 10, Y: curve.FromPercent(50)}, points[0])
	assert.Equal(t, CurvePoint{XMinutes: 19, Y: curve.FromPercent(50)}, points[9])
	assert.Equal(t, CurvePoint{XMinutes: 20, Y: curve.FromPercent(75)}, points[10])
	assert.Equal(t, CurvePoint{XMinutes: 30, Y: curve.FromPercent(90)}, points[20])

	support, _ := StepSnapshots(snapshots, 100, SeriesOptions{}, SupportValue)
	assert.Equal(t, curve.FromPercent(40), support[len(support)-1].Y)
}

func TestStepSnapshots_TruncatedToPeriod(t *testing.T) {
	snapshots := []Snapshot{
		{Elapsed: 0, Tally: newTally(1, 0, 1)},
		{Elapsed: 3 * time.Hour, Tally: newTally(1, 0, 1)},
	}
	points, degraded := StepSnapshots(snapshots, 60, SeriesOptions{ExtendMinutes: 5}, SupportValue)
	assert.True(t, degraded, "no issuance")
	require.Len(t, points, 65)

	points, _ = StepSnapshots(nil, 60, SeriesOptions{}, ApprovalValue)
	assert.Empty(t, points)
}

func TestBuildChart(t *testing.T) {
	snapshots := []Snapshot{
		{Elapsed: 0, Tally: newTally(1, 1, 10), TotalIssuance: big.NewInt(100)},
		{Elapsed: 5 * time.Minute, Tally: newTally(3, 1, 20)},
	}
	chart, err := BuildChart(testSpec, snapshots, 60, SeriesOptions{})
	require.NoError(t, err)
	assert.Len(t, chart.Required.Approval, 60)
	assert.Len(t, chart.CurrentApproval, 6)
	assert.Len(t, chart.CurrentSupport, 6)
	assert.True(t, chart.Degraded)
	assert.Equal(t, curve.FromPercent(10), chart.CurrentSupport[0].Y)
	assert.Equal(t, curve.Perbill(0), chart.CurrentSupport[5].Y)
}

func TestVoteSnapshots(t *testing.T) {
	records := []tally.Record{
		{Voter: "c", Decision: tally.DecisionNay, Nay: big.NewInt(100), Conviction: 1, Block: 1_020},
		{Voter: "a", Decision: tally.DecisionAye, Aye: big.NewInt(100), Conviction: 1, Block: 900},
		{Voter: "b", Decision: tally.DecisionAye, Aye: big.NewInt(200), Conviction: 1, Block: 1_010},
		{Voter: "a", Decision: tally.DecisionNay, Nay: big.NewInt(100), Conviction: 1, Block: 1_020},
	}
	issuance := big.NewInt(1_000)
	snapshots := VoteSnapshots(records, 1_000, timeline.FixedBlockTime(6*time.Second), issuance)
	require.Len(t, snapshots, 3)

	assert.Equal(t, time.Duration(0), snapshots[0].Elapsed)
	assert.Equal(t, big.NewInt(100), snapshots[0].Tally.Ayes)
	assert.Equal(t, time.Minute, snapshots[1].Elapsed)
	assert.Equal(t, big.NewInt(300), snapshots[1].Tally.Ayes)
	// a switched to nay at the same block c voted
	assert.Equal(t, 2*time.Minute, snapshots[2].Elapsed)
	assert.Equal(t, big.NewInt(200), snapshots[2].Tally.Ayes)
	assert.Equal(t, big.NewInt(200), snapshots[2].Tally.Nays)
	assert.Equal(t, 1, snapshots[2].Tally.Superseded)
	assert.Same(t, issuance, snapshots[2].TotalIssuance)

	assert.Nil(t, VoteSnapshots(records, 1_000, nil, issuance))
	assert.Nil(t, VoteSnapshots(nil, 1_000, timeline.FixedBlockTime(6*time.Second), issuance))
}
