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

package track

import (
	"testing"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{name: "root preset", spec: Root},
		{
			name:    "missing approval",
			spec:    Spec{DecisionPeriod: 1, MinSupport: Root.MinSupport},
			wantErr: ErrInvalidSpec,
		},
		{
			name: "zero length approval",
			spec: Spec{
				DecisionPeriod: 1,
				MinApproval:    curve.LinearDecreasing{Ceiling: curve.One},
				MinSupport:     Root.MinSupport,
			},
			wantErr: curve.ErrUndefinedCurve,
		},
		{
			name: "zero offset support",
			spec: Spec{
				DecisionPeriod: 1,
				MinApproval:    Root.MinApproval,
				MinSupport:     curve.Reciprocal{Factor: 1, XOffset: 0},
			},
			wantErr: curve.ErrUndefinedCurve,
		},
		{
			name: "zero decision period",
			spec: Spec{
				MinApproval: Root.MinApproval,
				MinSupport:  Root.MinSupport,
			},
			wantErr: ErrInvalidSpec,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPreset(t *testing.T) {
	s, ok := Preset("root")
	require.True(t, ok)
	assert.Equal(t, uint64(403_200), s.DecisionPeriod)

	_, ok = Preset("nonexistent")
	assert.False(t, ok)
}
