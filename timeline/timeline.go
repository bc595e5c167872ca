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
	"fmt"
	"math"
	"time"
)

// Phase is the kind of on-chain status event
type Phase uint8

const (
	PhaseSubmitted Phase = iota + 1
	PhaseDeciding
	PhaseConfirmStarted
	PhaseConfirmed
	PhaseApproved
	PhaseRejected
	PhaseTimedOut
	PhaseCancelled
	PhaseKilled
	PhaseExecuted
)

var phaseNames = map[Phase]string{
	PhaseSubmitted:      "Submitted",
	PhaseDeciding:       "Deciding",
	PhaseConfirmStarted: "ConfirmStarted",
	PhaseConfirmed:      "Confirmed",
	PhaseApproved:       "Approved",
	PhaseRejected:       "Rejected",
	PhaseTimedOut:       "TimedOut",
	PhaseCancelled:      "Cancelled",
	PhaseKilled:         "Killed",
	PhaseExecuted:       "Executed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// ParsePhase returns the phase with the given name
func ParsePhase(name string) (Phase, bool) {
	for p, n := range phaseNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// State is the lifecycle state of a referendum
type State uint8

const (
	StateUnknown State = iota
	StatePreparing
	StateDeciding
	StateConfirming
	StateConfirmed
	StateApproved
	StateExecuted
	StateRejected
	StateTimedOut
	StateCancelled
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StatePreparing:
		return "Preparing"
	case StateDeciding:
		return "Deciding"
	case StateConfirming:
		return "Confirming"
	case StateConfirmed:
		return "Confirmed"
	case StateApproved:
		return "Approved"
	case StateExecuted:
		return "Executed"
	case StateRejected:
		return "Rejected"
	case StateTimedOut:
		return "TimedOut"
	case StateCancelled:
		return "Cancelled"
	case StateKilled:
		return "Killed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Terminal reports whether no further transitions are expected
func (s State) Terminal() bool {
	switch s {
	case StateExecuted, StateRejected, StateTimedOut, StateCancelled, StateKilled:
		return true
	}
	return false
}

// Passed reports whether the referendum reached the success path
func (s State) Passed() bool {
	return s == StateConfirmed || s == StateApproved || s == StateExecuted
}

// Event is an on-chain status change of a referendum
type Event struct {
	Phase     Phase
	Block     uint64
	Timestamp time.Time
}

// BlockTimeFunc converts a number of blocks to wall-clock duration for a
// network
type BlockTimeFunc func(blocks uint64) time.Duration

// FixedBlockTime returns a BlockTimeFunc for a constant average block time.
// The result saturates instead of overflowing.
func FixedBlockTime(blockTime time.Duration) BlockTimeFunc {
	return func(blocks uint64) time.Duration {
		if blockTime <= 0 {
			return 0
		}
		if blocks > uint64(math.MaxInt64/int64(blockTime)) {
			return time.Duration(math.MaxInt64)
		}
		// nolint:gosec
		return time.Duration(blocks) * blockTime
	}
}
