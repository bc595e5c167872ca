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
	"bytes"
	"math/big"
	"testing"

	"github.com/blinklabs-io/referenda"
	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/decision"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "100.0000%", formatPercent(curve.One))
	assert.Equal(t, "0.0000%", formatPercent(0))
	assert.Equal(t, "83.3333%", formatPercent(833_333_333))
	assert.Equal(t, "0.0000%", formatPercent(1))
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "0", formatBalance(nil))
	assert.Equal(t, "1,234,567", formatBalance(big.NewInt(1_234_567)))
}

func TestDecidingBlock(t *testing.T) {
	_, ok := decidingBlock(nil)
	assert.False(t, ok)

	block, ok := decidingBlock([]timeline.Event{
		{Phase: timeline.PhaseSubmitted, Block: 100},
		{Phase: timeline.PhaseDeciding, Block: 0},
		{Phase: timeline.PhaseDeciding, Block: 500},
		{Phase: timeline.PhaseDeciding, Block: 300},
	})
	require.True(t, ok)
	assert.Equal(t, uint64(300), block)
}

func TestWriteReport(t *testing.T) {
	report := referenda.Report{
		Evaluation: decision.Evaluation{
			X:                curve.One / 2,
			CurrentApproval:  curve.FromPercent(80),
			RequiredApproval: curve.FromPercent(75),
		},
		Projection: decision.Projection{
			X:         curve.FromPercent(40),
			Reachable: true,
		},
		ProjectionKnown: true,
		DecisionMinutes: 10_080,
	}
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, newReportView("root", report)))
	out := buf.String()
	assert.Contains(t, out, `"track": "root"`)
	assert.Contains(t, out, `"approval": "80.0000%"`)
	assert.Contains(t, out, `"requiredApproval": "75.0000%"`)
	assert.Contains(t, out, `"minutesIn": 4032`)
	assert.Contains(t, out, `"state": "Unknown"`)
}
