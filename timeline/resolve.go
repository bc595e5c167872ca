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

package timeline

import (
	"slices"
	"time"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/track"
)

// Period describes one lifecycle period of a referendum. Periods are
// recomputed on every resolution.
type Period struct {
	StartsAt       time.Time
	EndsAt         time.Time
	PercentElapsed uint8
	// IsActive is set for the period(s) the referendum is currently in
	IsActive bool
	// Visible is set while the period end is still in the future
	Visible bool
	// Started is false when the event opening this period has not been
	// observed. StartsAt and EndsAt are then estimates.
	Started bool
	// Determinable is false when the period bounds could not be computed
	Determinable bool
}

// Resolution is the lifecycle state derived from a set of events
type Resolution struct {
	State     State
	Prepare   Period
	Deciding  Period
	Confirm   Period
	Enactment Period
	// DecisionElapsed is the elapsed fraction of the decision period at
	// the resolution time, frozen once deciding has ended. It is not
	// saturated at One.
	DecisionElapsed      curve.Perbill
	DecisionElapsedKnown bool
	// Anomalies counts events that were out of sequence, duplicated in
	// conflicting ways, or unusable
	Anomalies int
	// Degraded is set when the block time function was missing or events
	// had to be dropped for lack of a usable time
	Degraded bool
}

// marks collects the times of the transitions observed while replaying
// events through the state machine
type marks struct {
	submitted    *time.Time
	deciding     *time.Time
	confirmStart *time.Time
	confirmEnd   *time.Time
	confirmed    *time.Time
	ended        *time.Time
	executed     *time.Time
}

// Resolve derives the lifecycle state and periods of a referendum from its
// timeline events. Events may be in any order. It never fails: missing or
// malformed data degrades the affected periods instead.
func Resolve(
	spec track.Spec,
	events []Event,
	now time.Time,
	blockTime BlockTimeFunc,
) Resolution {
	var ret Resolution
	ordered, dropped := orderEvents(events, blockTime)
	if dropped > 0 {
		ret.Anomalies += dropped
		ret.Degraded = true
	}
	var m marks
	ret.State, ret.Anomalies = replay(ordered, &m, ret.Anomalies)
	if blockTime == nil {
		ret.Degraded = true
		ret.Prepare.Started = m.submitted != nil
		ret.Deciding.Started = m.deciding != nil
		ret.Confirm.Started = m.confirmStart != nil
		ret.Enactment.Started = m.confirmed != nil
		return ret
	}

	// Prepare
	if m.submitted != nil {
		ret.Prepare = newPeriod(*m.submitted, blockTime(spec.PreparePeriod), true)
	} else if m.deciding != nil {
		ret.Prepare.Started = true
	}

	// Deciding starts no earlier than the end of the prepare period
	switch {
	case m.deciding != nil:
		start := *m.deciding
		if ret.Prepare.Determinable && ret.Prepare.EndsAt.After(start) {
			start = ret.Prepare.EndsAt
		}
		ret.Deciding = newPeriod(start, blockTime(spec.DecisionPeriod), true)
	case ret.Prepare.Determinable:
		ret.Deciding = newPeriod(
			ret.Prepare.EndsAt,
			blockTime(spec.DecisionPeriod),
			false,
		)
	}

	// Confirm
	switch {
	case m.confirmStart != nil:
		start := *m.confirmStart
		if ret.Deciding.Determinable && ret.Deciding.StartsAt.After(start) {
			start = ret.Deciding.StartsAt
		}
		ret.Confirm = newPeriod(start, blockTime(spec.ConfirmPeriod), true)
	case ret.Deciding.Determinable:
		ret.Confirm = newPeriod(
			ret.Deciding.StartsAt,
			blockTime(spec.ConfirmPeriod),
			false,
		)
	}

	// Enactment
	switch {
	case m.confirmed != nil:
		ret.Enactment = newPeriod(
			*m.confirmed,
			blockTime(spec.MinEnactmentPeriod),
			true,
		)
	case ret.Confirm.Determinable:
		ret.Enactment = newPeriod(
			ret.Confirm.EndsAt,
			blockTime(spec.MinEnactmentPeriod),
			false,
		)
	}

	// Each period stops progressing when the lifecycle leaves it
	ret.Prepare.setElapsed(stopAt(now, m.deciding, m.ended))
	ret.Deciding.setElapsed(stopAt(now, m.confirmed, m.ended))
	ret.Confirm.setElapsed(stopAt(now, m.confirmEnd, m.confirmed, m.ended))
	ret.Enactment.setElapsed(stopAt(now, m.executed, m.ended))
	for _, p := range []*Period{
		&ret.Prepare, &ret.Deciding, &ret.Confirm, &ret.Enactment,
	} {
		p.Visible = p.Determinable && p.EndsAt.After(now)
	}

	switch ret.State {
	case StatePreparing:
		ret.Prepare.IsActive = ret.Prepare.Determinable
	case StateDeciding:
		ret.Deciding.IsActive = ret.Deciding.Determinable
	case StateConfirming:
		ret.Deciding.IsActive = ret.Deciding.Determinable
		ret.Confirm.IsActive = ret.Confirm.Determinable
	case StateConfirmed, StateApproved:
		ret.Enactment.IsActive = ret.Enactment.Determinable
	}

	if ret.Deciding.Determinable && ret.Deciding.Started {
		at := stopAt(now, m.confirmed, m.ended)
		ret.DecisionElapsed, ret.DecisionElapsedKnown = fraction(
			at.Sub(ret.Deciding.StartsAt),
			ret.Deciding.EndsAt.Sub(ret.Deciding.StartsAt),
		)
	}
	return ret
}

// orderEvents drops unusable events, estimates missing timestamps from the
// block time, removes exact duplicates and sorts by time
func orderEvents(events []Event, blockTime BlockTimeFunc) ([]Event, int) {
	var dropped int
	var timed, untimed []Event
	for _, evt := range events {
		if _, ok := phaseNames[evt.Phase]; !ok {
			dropped++
			continue
		}
		switch {
		case !evt.Timestamp.IsZero():
			timed = append(timed, evt)
		case evt.Block > 0:
			untimed = append(untimed, evt)
		default:
			dropped++
		}
	}
	anchors := slices.Clone(timed)
	for _, evt := range untimed {
		ref, ok := nearestTimed(anchors, evt.Block)
		if !ok || blockTime == nil {
			dropped++
			continue
		}
		if evt.Block >= ref.Block {
			evt.Timestamp = ref.Timestamp.Add(blockTime(evt.Block - ref.Block))
		} else {
			evt.Timestamp = ref.Timestamp.Add(-blockTime(ref.Block - evt.Block))
		}
		timed = append(timed, evt)
	}
	slices.SortStableFunc(timed, func(a, b Event) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		if a.Block != b.Block {
			if a.Block < b.Block {
				return -1
			}
			return 1
		}
		return int(a.Phase) - int(b.Phase)
	})
	return slices.CompactFunc(timed, func(a, b Event) bool {
		return a.Phase == b.Phase && a.Block == b.Block &&
			a.Timestamp.Equal(b.Timestamp)
	}), dropped
}

func nearestTimed(timed []Event, block uint64) (Event, bool) {
	var best Event
	found := false
	var bestDist uint64
	for _, evt := range timed {
		if evt.Block == 0 {
			continue
		}
		dist := evt.Block - block
		if block > evt.Block {
			dist = block - evt.Block
		}
		if !found || dist < bestDist ||
			(dist == bestDist && anchorBefore(evt, best)) {
			best, bestDist, found = evt, dist, true
		}
	}
	return best, found
}

// anchorBefore breaks distance ties so the chosen anchor does not depend on
// input order: lower block, then earlier timestamp, then lower phase
func anchorBefore(a, b Event) bool {
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Phase < b.Phase
}

// replay runs the events through the lifecycle state machine, recording
// transition times in m. Terminal states absorb later events. Unexpected
// transitions from non-terminal states are followed and counted.
func replay(events []Event, m *marks, anomalies int) (State, int) {
	state := StateUnknown
	for i := range events {
		evt := events[i]
		ts := evt.Timestamp
		if state.Terminal() {
			anomalies++
			continue
		}
		next, expected := transition(state, evt.Phase)
		if !expected {
			anomalies++
		}
		switch evt.Phase {
		case PhaseSubmitted:
			if m.submitted == nil {
				m.submitted = &ts
			}
		case PhaseDeciding:
			if m.deciding == nil {
				m.deciding = &ts
			}
			if state == StateConfirming {
				m.confirmEnd = &ts
			}
		case PhaseConfirmStarted:
			m.confirmStart = &ts
			m.confirmEnd = nil
		case PhaseConfirmed, PhaseApproved:
			if m.confirmed == nil {
				m.confirmed = &ts
			}
		case PhaseExecuted:
			m.executed = &ts
		}
		if next.Terminal() && next != StateExecuted {
			m.ended = &ts
		}
		state = next
	}
	return state, anomalies
}

// transition returns the state after phase is observed in state and
// whether the transition was expected
func transition(state State, phase Phase) (State, bool) {
	switch phase {
	case PhaseSubmitted:
		if state == StateUnknown {
			return StatePreparing, true
		}
		return state, false
	case PhaseDeciding:
		switch state {
		case StateUnknown, StatePreparing, StateConfirming:
			return StateDeciding, true
		case StateDeciding:
			return state, false
		}
		return StateDeciding, false
	case PhaseConfirmStarted:
		return StateConfirming, state == StateDeciding
	case PhaseConfirmed:
		return StateConfirmed, state == StateConfirming
	case PhaseApproved:
		return StateApproved, state == StateConfirmed || state == StateConfirming
	case PhaseExecuted:
		return StateExecuted, state == StateApproved || state == StateConfirmed
	case PhaseRejected:
		return StateRejected, state == StateDeciding || state == StateConfirming
	case PhaseTimedOut:
		return StateTimedOut, state != StateConfirmed && state != StateApproved
	case PhaseCancelled:
		return StateCancelled, true
	case PhaseKilled:
		return StateKilled, true
	}
	return state, false
}

func newPeriod(start time.Time, length time.Duration, started bool) Period {
	return Period{
		StartsAt:     start,
		EndsAt:       start.Add(length),
		Started:      started,
		Determinable: true,
	}
}

func (p *Period) setElapsed(at time.Time) {
	if !p.Determinable || !p.Started {
		p.PercentElapsed = 0
		return
	}
	p.PercentElapsed = percentElapsed(p.StartsAt, p.EndsAt, at)
}

// percentElapsed is round(minutesSince(start) / minutesTotal * 100),
// clamped to 0..100
func percentElapsed(start, end, at time.Time) uint8 {
	total := int64(end.Sub(start) / time.Minute)
	elapsed := int64(at.Sub(start) / time.Minute)
	if total <= 0 {
		if at.Before(end) {
			return 0
		}
		return 100
	}
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 100
	}
	// round half up
	return uint8((elapsed*200 + total) / (2 * total))
}

// stopAt returns the earliest of now and the given optional times
func stopAt(now time.Time, stops ...*time.Time) time.Time {
	ret := now
	for _, s := range stops {
		if s != nil && s.Before(ret) {
			ret = *s
		}
	}
	return ret
}

func fraction(elapsed, total time.Duration) (curve.Perbill, bool) {
	if total <= 0 {
		return 0, false
	}
	if elapsed <= 0 {
		return 0, true
	}
	return curve.FromFraction(uint64(elapsed), uint64(total))
}
