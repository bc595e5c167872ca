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

// Package decision combines a track's threshold curves with a tally to
// decide whether a referendum is passing, and samples the curves for
// plotting.
package decision

import (
	"math/big"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/track"
)

// Evaluation is the verdict at one elapsed fraction of the decision period
type Evaluation struct {
	X                curve.Perbill
	RequiredApproval curve.Perbill
	RequiredSupport  curve.Perbill
	CurrentApproval  curve.Perbill
	CurrentSupport   curve.Perbill
	// Passing is set when both current values meet the required values
	Passing bool
	// Degraded is set when total issuance was unavailable and
	// CurrentSupport was reported as zero
	Degraded bool
	// Undefined is set when a threshold curve could not be evaluated. The
	// required values are zero and Passing is false.
	Undefined bool
}

// CurrentApproval returns ayes / (ayes + nays), or zero when nobody voted
func CurrentApproval(t tally.Tally) curve.Perbill {
	if t.Ayes == nil || t.Nays == nil {
		return 0
	}
	total := new(big.Int).Add(t.Ayes, t.Nays)
	if total.Sign() == 0 {
		return 0
	}
	ret, _ := curve.FromRational(t.Ayes, total)
	return ret
}

// CurrentSupport returns support / totalIssuance saturated at One. The
// second return is false when the issuance is missing or zero.
func CurrentSupport(t tally.Tally, totalIssuance *big.Int) (curve.Perbill, bool) {
	if totalIssuance == nil || totalIssuance.Sign() <= 0 {
		return 0, false
	}
	if t.Support == nil {
		return 0, true
	}
	return curve.FromRational(t.Support, totalIssuance)
}

// Evaluate compares the tally against the track's thresholds at the elapsed
// fraction x of the decision period
func Evaluate(
	spec track.Spec,
	t tally.Tally,
	totalIssuance *big.Int,
	x curve.Perbill,
) Evaluation {
	ret := Evaluation{
		X:               x,
		CurrentApproval: CurrentApproval(t),
	}
	var ok bool
	ret.CurrentSupport, ok = CurrentSupport(t, totalIssuance)
	ret.Degraded = !ok
	approval, err := threshold(spec.MinApproval, x)
	if err != nil {
		ret.Undefined = true
		return ret
	}
	support, err := threshold(spec.MinSupport, x)
	if err != nil {
		ret.Undefined = true
		return ret
	}
	ret.RequiredApproval = approval
	ret.RequiredSupport = support
	ret.Passing = ret.CurrentApproval >= approval &&
		ret.CurrentSupport >= support
	return ret
}

// Sustained reports whether every sample passes. Callers sample the confirm
// window densely and pass the evaluations here. An empty window is not
// sustained.
func Sustained(evals []Evaluation) bool {
	if len(evals) == 0 {
		return false
	}
	for _, e := range evals {
		if !e.Passing {
			return false
		}
	}
	return true
}

// Projection is the earliest point in the decision period at which the
// current tally would meet both thresholds
type Projection struct {
	Approval curve.Perbill
	Support  curve.Perbill
	// X is the later of Approval and Support
	X curve.Perbill
	// Reachable is false when a threshold stays above the current value for
	// the whole decision period
	Reachable bool
	Degraded  bool
}

// Minutes converts the projected fraction to minutes into a decision period
// of the given length, rounding up
func (p Projection) Minutes(decisionMinutes int) int {
	if decisionMinutes <= 0 {
		return 0
	}
	n := new(big.Int).Mul(p.X.Int(), big.NewInt(int64(decisionMinutes)))
	q, m := n.QuoRem(n, big.NewInt(curve.Scale), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return int(q.Int64())
}

// Project finds when the current tally would start passing if it stayed
// unchanged, using the inverse of each threshold curve
func Project(
	spec track.Spec,
	t tally.Tally,
	totalIssuance *big.Int,
) (Projection, error) {
	var ret Projection
	if err := spec.Validate(); err != nil {
		return ret, err
	}
	approval := CurrentApproval(t)
	support, ok := CurrentSupport(t, totalIssuance)
	ret.Degraded = !ok
	var err error
	if ret.Approval, err = spec.MinApproval.Delay(approval); err != nil {
		return ret, err
	}
	if ret.Support, err = spec.MinSupport.Delay(support); err != nil {
		return ret, err
	}
	ret.X = max(ret.Approval, ret.Support)
	// Delay returns One both when the threshold is first met at the end and
	// when it is never met
	end := Evaluate(spec, t, totalIssuance, curve.One)
	ret.Reachable = end.Passing
	return ret, nil
}

func threshold(c curve.Curve, x curve.Perbill) (curve.Perbill, error) {
	if c == nil {
		return 0, curve.ErrUndefinedCurve
	}
	return c.Threshold(x)
}
