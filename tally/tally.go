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

// Package tally folds raw referendum votes into conviction-weighted aye and
// nay totals plus the unweighted support used for turnout.
package tally

import (
	"fmt"
	"math/big"
)

// Decision is the kind of vote a record carries
type Decision uint8

const (
	DecisionAye Decision = iota + 1
	DecisionNay
	DecisionSplit
	DecisionSplitAbstain
)

func (d Decision) String() string {
	switch d {
	case DecisionAye:
		return "Aye"
	case DecisionNay:
		return "Nay"
	case DecisionSplit:
		return "Split"
	case DecisionSplitAbstain:
		return "SplitAbstain"
	default:
		return fmt.Sprintf("Decision(%d)", uint8(d))
	}
}

// MaxConviction is the highest conviction lock period
const MaxConviction = 6

var convictionMultipliers = [MaxConviction]int64{1, 2, 4, 8, 16, 32}

// Record is a single on-chain vote
type Record struct {
	// Voter identifies the account. Records sharing a non-empty Voter are
	// treated as successive votes by the same account.
	Voter      string
	Decision   Decision
	Aye        *big.Int
	Nay        *big.Int
	Abstain    *big.Int
	Conviction int
	// Block is the block the vote was cast in, used to pick the latest vote
	// per voter
	Block uint64
}

// Counts holds the number of distinct voters per decision bucket
type Counts struct {
	Aye          int
	Nay          int
	Split        int
	SplitAbstain int
}

// Total returns the number of counted voters
func (c Counts) Total() int {
	return c.Aye + c.Nay + c.Split + c.SplitAbstain
}

// Tally is the aggregate of a set of records
type Tally struct {
	Ayes    *big.Int
	Nays    *big.Int
	Support *big.Int
	Counts  Counts
	// ClampedConvictions counts counted records whose conviction was outside
	// 0..6 and was clamped
	ClampedConvictions int
	// Superseded counts records replaced by a later vote of the same voter
	Superseded int
	// Malformed counts records with an unknown decision or negative amounts
	Malformed int
}

// New returns an empty tally
func New() Tally {
	return Tally{
		Ayes:    new(big.Int),
		Nays:    new(big.Int),
		Support: new(big.Int),
	}
}

// Degraded reports whether any input record needed correction
func (t Tally) Degraded() bool {
	return t.ClampedConvictions > 0 || t.Malformed > 0
}

// Equal compares the totals and counts of two tallies
func (t Tally) Equal(o Tally) bool {
	return cmpInt(t.Ayes, o.Ayes) == 0 &&
		cmpInt(t.Nays, o.Nays) == 0 &&
		cmpInt(t.Support, o.Support) == 0 &&
		t.Counts == o.Counts
}

// ApplyConviction weights amount by the conviction lock period. Lock 0 is a
// tenth of the amount, truncated. Locks outside 0..6 are clamped to the
// nearest valid value and reported via the returned flag.
func ApplyConviction(amount *big.Int, lock int) (*big.Int, bool) {
	clamped := false
	if lock < 0 {
		lock = 0
		clamped = true
	} else if lock > MaxConviction {
		lock = MaxConviction
		clamped = true
	}
	ret := new(big.Int)
	if amount == nil {
		return ret, clamped
	}
	if lock == 0 {
		return ret.Quo(amount, big.NewInt(10)), clamped
	}
	return ret.Mul(amount, big.NewInt(convictionMultipliers[lock-1])), clamped
}

// Aggregate folds records into a Tally. The result does not depend on the
// order of records, and records contributing no balance leave it unchanged.
// The input slice and its amounts are not modified.
func Aggregate(records []Record) Tally {
	ret := New()
	// Distinct votes per voter; exact duplicates from overlapping
	// refetches collapse into one entry
	byVoter := make(map[string][]Record)
	for _, rec := range records {
		r, malformed := normalize(rec)
		if malformed {
			ret.Malformed++
		}
		if r.Decision < DecisionAye || r.Decision > DecisionSplitAbstain {
			continue
		}
		if contribution(r).Sign() == 0 {
			continue
		}
		if r.Voter == "" {
			ret.add(r)
			continue
		}
		dup := false
		for _, seen := range byVoter[r.Voter] {
			if compareRecords(r, seen) == 0 {
				dup = true
				break
			}
		}
		if !dup {
			byVoter[r.Voter] = append(byVoter[r.Voter], r)
		}
	}
	for _, votes := range byVoter {
		winner := votes[0]
		for _, r := range votes[1:] {
			if compareRecords(r, winner) > 0 {
				winner = r
			}
		}
		ret.Superseded += len(votes) - 1
		ret.add(winner)
	}
	return ret
}

func (t *Tally) add(r Record) {
	switch r.Decision {
	case DecisionAye:
		weighted, clamped := ApplyConviction(r.Aye, r.Conviction)
		t.Ayes.Add(t.Ayes, weighted)
		t.Support.Add(t.Support, r.Aye)
		t.Counts.Aye++
		if clamped {
			t.ClampedConvictions++
		}
	case DecisionNay:
		weighted, clamped := ApplyConviction(r.Nay, r.Conviction)
		t.Nays.Add(t.Nays, weighted)
		t.Support.Add(t.Support, r.Nay)
		t.Counts.Nay++
		if clamped {
			t.ClampedConvictions++
		}
	case DecisionSplit:
		t.Ayes.Add(t.Ayes, r.Aye)
		t.Nays.Add(t.Nays, r.Nay)
		t.Support.Add(t.Support, r.Aye)
		t.Support.Add(t.Support, r.Nay)
		t.Counts.Split++
	case DecisionSplitAbstain:
		t.Ayes.Add(t.Ayes, r.Aye)
		t.Nays.Add(t.Nays, r.Nay)
		t.Support.Add(t.Support, r.Aye)
		t.Support.Add(t.Support, r.Nay)
		t.Support.Add(t.Support, r.Abstain)
		t.Counts.SplitAbstain++
	}
}

// normalize returns a copy of rec with nil amounts replaced by zero and
// negative amounts zeroed. Amounts not used by the decision are ignored.
func normalize(rec Record) (Record, bool) {
	malformed := rec.Decision < DecisionAye || rec.Decision > DecisionSplitAbstain
	fix := func(v *big.Int) *big.Int {
		if v == nil {
			return new(big.Int)
		}
		if v.Sign() < 0 {
			malformed = true
			return new(big.Int)
		}
		return v
	}
	rec.Aye = fix(rec.Aye)
	rec.Nay = fix(rec.Nay)
	rec.Abstain = fix(rec.Abstain)
	return rec, malformed
}

// contribution is the unweighted balance a record adds to support
func contribution(r Record) *big.Int {
	ret := new(big.Int)
	switch r.Decision {
	case DecisionAye:
		ret.Set(r.Aye)
	case DecisionNay:
		ret.Set(r.Nay)
	case DecisionSplit:
		ret.Add(r.Aye, r.Nay)
	case DecisionSplitAbstain:
		ret.Add(r.Aye, r.Nay)
		ret.Add(ret, r.Abstain)
	}
	return ret
}

// compareRecords orders two votes of the same voter: the later block wins,
// and ties fall back to a field-by-field comparison so the winner never
// depends on input order. Returns 0 only for identical votes.
func compareRecords(a, b Record) int {
	switch {
	case a.Block != b.Block:
		return cmpUint(a.Block, b.Block)
	case a.Decision != b.Decision:
		return cmpUint(uint64(a.Decision), uint64(b.Decision))
	case a.Conviction != b.Conviction:
		if a.Conviction > b.Conviction {
			return 1
		}
		return -1
	}
	if c := a.Aye.Cmp(b.Aye); c != 0 {
		return c
	}
	if c := a.Nay.Cmp(b.Nay); c != 0 {
		return c
	}
	return a.Abstain.Cmp(b.Abstain)
}

func cmpUint(a, b uint64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

func cmpInt(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}
