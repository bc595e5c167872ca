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

package tally

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bi(v int64) *big.Int {
	return big.NewInt(v)
}

func TestApplyConviction(t *testing.T) {
	tests := []struct {
		lock        int
		expected    int64
		wantClamped bool
	}{
		{lock: 0, expected: 100},
		{lock: 1, expected: 1000},
		{lock: 2, expected: 2000},
		{lock: 3, expected: 4000},
		{lock: 4, expected: 8000},
		{lock: 5, expected: 16000},
		{lock: 6, expected: 32000},
		{lock: 7, expected: 32000, wantClamped: true},
		{lock: -1, expected: 100, wantClamped: true},
	}
	for _, tt := range tests {
		got, clamped := ApplyConviction(bi(1000), tt.lock)
		assert.Equal(t, 0, got.Cmp(bi(tt.expected)), "lock %d: got %s", tt.lock, got)
		assert.Equal(t, tt.wantClamped, clamped, "lock %d", tt.lock)
	}
}

func TestApplyConviction_Truncates(t *testing.T) {
	got, _ := ApplyConviction(bi(19), 0)
	assert.Equal(t, int64(1), got.Int64())
}

func TestAggregate_AyeAndNay(t *testing.T) {
	result := Aggregate([]Record{
		{Decision: DecisionAye, Aye: bi(10_000), Conviction: 2},
		{Decision: DecisionNay, Nay: bi(5_000), Conviction: 0},
	})
	assert.Equal(t, int64(20_000), result.Ayes.Int64())
	assert.Equal(t, int64(500), result.Nays.Int64())
	assert.Equal(t, int64(15_000), result.Support.Int64())
	assert.Equal(t, Counts{Aye: 1, Nay: 1}, result.Counts)
	assert.False(t, result.Degraded())
}

func TestAggregate_SplitVotes(t *testing.T) {
	result := Aggregate([]Record{
		{Decision: DecisionSplit, Aye: bi(300), Nay: bi(200), Conviction: 6},
		{Decision: DecisionSplitAbstain, Aye: bi(10), Nay: bi(20), Abstain: bi(1_000)},
	})
	assert.Equal(t, int64(310), result.Ayes.Int64())
	assert.Equal(t, int64(220), result.Nays.Int64())
	assert.Equal(t, int64(1_530), result.Support.Int64())
	assert.Equal(t, Counts{Split: 1, SplitAbstain: 1}, result.Counts)
	assert.Zero(t, result.ClampedConvictions, "split votes ignore conviction")
}

func TestAggregate_LargeBalances(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	result := Aggregate([]Record{
		{Decision: DecisionAye, Aye: huge, Conviction: 6},
	})
	expected := new(big.Int).Mul(huge, bi(32))
	assert.Equal(t, 0, expected.Cmp(result.Ayes))
	assert.Equal(t, 0, huge.Cmp(result.Support))
	// input untouched
	assert.Equal(t, "123456789012345678901234567890", huge.String())
}

func TestAggregate_Permutation(t *testing.T) {
	records := []Record{
		{Voter: "a", Decision: DecisionAye, Aye: bi(1_234), Conviction: 1},
		{Voter: "b", Decision: DecisionNay, Nay: bi(999), Conviction: 0},
		{Voter: "c", Decision: DecisionSplit, Aye: bi(5), Nay: bi(7)},
		{Voter: "d", Decision: DecisionSplitAbstain, Abstain: bi(77)},
		{Voter: "a", Decision: DecisionNay, Nay: bi(50), Conviction: 3, Block: 9},
		{Voter: "e", Decision: DecisionAye, Aye: bi(31), Conviction: 9},
		{Decision: DecisionAye, Aye: bi(1), Conviction: 4},
	}
	expected := Aggregate(records)
	rng := rand.New(rand.NewSource(42))
	for range 50 {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		got := Aggregate(shuffled)
		require.True(t, expected.Equal(got), "expected %+v, got %+v", expected, got)
		require.Equal(t, expected.Superseded, got.Superseded)
		require.Equal(t, expected.ClampedConvictions, got.ClampedConvictions)
	}
}

func TestAggregate_ZeroAmountRecordsIgnored(t *testing.T) {
	records := []Record{
		{Voter: "a", Decision: DecisionAye, Aye: bi(100), Conviction: 1},
		{Voter: "b", Decision: DecisionNay, Nay: bi(40), Conviction: 2},
	}
	zero := []Record{
		{Voter: "c", Decision: DecisionAye, Aye: bi(0), Conviction: 1},
		{Voter: "a", Decision: DecisionNay, Conviction: 1, Block: 100},
		{Decision: DecisionSplitAbstain},
	}
	base := Aggregate(records)
	withZero := Aggregate(append(append([]Record(nil), records...), zero...))
	assert.True(t, base.Equal(withZero))
	assert.Equal(t, base.Superseded, withZero.Superseded)
}

func TestAggregate_RefetchIsIdempotent(t *testing.T) {
	records := []Record{
		{Voter: "a", Decision: DecisionAye, Aye: bi(100), Conviction: 1, Block: 1},
		{Voter: "b", Decision: DecisionNay, Nay: bi(40), Conviction: 2, Block: 2},
	}
	once := Aggregate(records)
	twice := Aggregate(append(append([]Record(nil), records...), records...))
	assert.True(t, once.Equal(twice))
	assert.Zero(t, twice.Superseded)
}

func TestAggregate_LatestVotePerVoter(t *testing.T) {
	result := Aggregate([]Record{
		{Voter: "a", Decision: DecisionNay, Nay: bi(100), Conviction: 1, Block: 20},
		{Voter: "a", Decision: DecisionAye, Aye: bi(100), Conviction: 1, Block: 10},
	})
	assert.Equal(t, int64(0), result.Ayes.Int64())
	assert.Equal(t, int64(100), result.Nays.Int64())
	assert.Equal(t, 1, result.Superseded)
	assert.Equal(t, Counts{Nay: 1}, result.Counts)
}

func TestAggregate_Malformed(t *testing.T) {
	result := Aggregate([]Record{
		{Decision: Decision(99), Aye: bi(100)},
		{Decision: DecisionAye, Aye: bi(-5)},
		{Decision: DecisionAye, Aye: bi(10), Conviction: 12},
	})
	assert.Equal(t, 2, result.Malformed)
	assert.Equal(t, 1, result.ClampedConvictions)
	assert.Equal(t, int64(320), result.Ayes.Int64())
	assert.True(t, result.Degraded())
}

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(nil)
	assert.Equal(t, 0, result.Ayes.Sign())
	assert.Equal(t, 0, result.Support.Sign())
	assert.Zero(t, result.Counts.Total())
}
