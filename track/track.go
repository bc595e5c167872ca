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
	"errors"
	"fmt"

	"github.com/blinklabs-io/referenda/curve"
)

// ErrInvalidSpec is returned by Validate for malformed track parameters
var ErrInvalidSpec = errors.New("invalid track spec")

// Spec holds the timing and threshold parameters of a governance track.
// It is loaded once and must not be mutated while evaluations are running.
type Spec struct {
	ID   uint16
	Name string
	// Period lengths are in blocks
	PreparePeriod      uint64
	DecisionPeriod     uint64
	ConfirmPeriod      uint64
	MinEnactmentPeriod uint64
	MinApproval        curve.Curve
	MinSupport         curve.Curve
}

// Validate checks the curves for configuration errors. A spec that fails
// validation can still be evaluated; affected thresholds are reported as
// undefined.
func (s Spec) Validate() error {
	if s.MinApproval == nil {
		return fmt.Errorf("%w: missing approval curve", ErrInvalidSpec)
	}
	if s.MinSupport == nil {
		return fmt.Errorf("%w: missing support curve", ErrInvalidSpec)
	}
	if err := s.MinApproval.Validate(); err != nil {
		return fmt.Errorf("%w: approval curve: %w", ErrInvalidSpec, err)
	}
	if err := s.MinSupport.Validate(); err != nil {
		return fmt.Errorf("%w: support curve: %w", ErrInvalidSpec, err)
	}
	if s.DecisionPeriod == 0 {
		return fmt.Errorf("%w: decision period is zero", ErrInvalidSpec)
	}
	return nil
}

// Root is the Polkadot root track
var Root = Spec{
	ID:                 0,
	Name:               "root",
	PreparePeriod:      1_200,
	DecisionPeriod:     403_200,
	ConfirmPeriod:      14_400,
	MinEnactmentPeriod: 14_400,
	MinApproval: curve.Reciprocal{
		Factor:  222_222_224,
		XOffset: 333_333_335,
		YOffset: 333_333_332,
	},
	MinSupport: curve.LinearDecreasing{
		Length:  curve.One,
		Floor:   0,
		Ceiling: curve.FromPercent(50),
	},
}

var presets = map[string]Spec{
	Root.Name: Root,
}

// Preset returns a well-known track by name
func Preset(name string) (Spec, bool) {
	s, ok := presets[name]
	return s, ok
}
