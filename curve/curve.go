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

// Package curve implements the threshold curves used by referendum tracks.
// All arithmetic is integer fixed point with the chain's 10^9 scale and
// truncating division, so results match what the chain computes.
package curve

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrUndefinedCurve is returned when a curve's parameters would require a
// division by zero.
var ErrUndefinedCurve = errors.New("undefined curve")

// Kind identifies a curve variant.
type Kind uint8

const (
	KindLinearDecreasing Kind = iota + 1
	KindSteppedDecreasing
	KindReciprocal
)

func (k Kind) String() string {
	switch k {
	case KindLinearDecreasing:
		return "LinearDecreasing"
	case KindSteppedDecreasing:
		return "SteppedDecreasing"
	case KindReciprocal:
		return "Reciprocal"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Curve maps an elapsed fraction of the decision period to the minimum
// fraction that must be met at that instant.
type Curve interface {
	Kind() Kind
	// Threshold evaluates the curve at x. It is total over x >= 0 and
	// saturates past One.
	Threshold(x Perbill) (Perbill, error)
	// Delay returns the smallest x in [0, One] at which the threshold is at
	// or below y, or One if that never happens within the period.
	Delay(y Perbill) (Perbill, error)
	Validate() error
}

// LinearDecreasing decays in a straight line from Ceiling at x=0 to Floor at
// x=1 and stays at Floor afterwards.
type LinearDecreasing struct {
	Length  Perbill
	Floor   Perbill
	Ceiling Perbill
}

func (LinearDecreasing) Kind() Kind { return KindLinearDecreasing }

func (c LinearDecreasing) Validate() error {
	if c.Length == 0 {
		return fmt.Errorf("%w: linear length is zero", ErrUndefinedCurve)
	}
	if c.Ceiling < c.Floor {
		return fmt.Errorf(
			"linear ceiling %s below floor %s",
			c.Ceiling,
			c.Floor,
		)
	}
	return nil
}

func (c LinearDecreasing) Threshold(x Perbill) (Perbill, error) {
	if c.Length == 0 || c.Ceiling < c.Floor {
		return 0, ErrUndefinedCurve
	}
	length := c.Length.Int()
	clampedX := new(big.Int).Mul(x.Int(), length)
	clampedX.Quo(clampedX, scaleInt)
	if clampedX.Cmp(length) > 0 {
		clampedX.Set(length)
	}
	drop := new(big.Int).Mul(
		new(big.Int).SetUint64(uint64(c.Ceiling-c.Floor)),
		clampedX,
	)
	drop.Quo(drop, length)
	y := new(big.Int).Sub(c.Ceiling.Int(), drop)
	if y.Sign() < 0 {
		return 0, nil
	}
	return Perbill(y.Uint64()), nil
}

func (c LinearDecreasing) Delay(y Perbill) (Perbill, error) {
	if c.Length == 0 || c.Ceiling < c.Floor {
		return 0, ErrUndefinedCurve
	}
	switch {
	case y >= c.Ceiling:
		return 0, nil
	case y < c.Floor:
		return One, nil
	}
	// Smallest clamped step k with (ceiling-floor)*k/length >= ceiling-y,
	// then smallest x with x*length/Scale >= k.
	length := c.Length.Int()
	k := ceilDiv(
		new(big.Int).Mul(new(big.Int).SetUint64(uint64(c.Ceiling-y)), length),
		new(big.Int).SetUint64(uint64(c.Ceiling-c.Floor)),
	)
	x := ceilDiv(new(big.Int).Mul(k, scaleInt), length)
	return saturatingPerbill(x), nil
}

// SteppedDecreasing starts at Begin and drops by Step every Period until it
// reaches End.
type SteppedDecreasing struct {
	Begin  Perbill
	End    Perbill
	Step   Perbill
	Period Perbill
}

func (SteppedDecreasing) Kind() Kind { return KindSteppedDecreasing }

func (c SteppedDecreasing) Validate() error {
	if c.Period == 0 {
		return fmt.Errorf("%w: stepped period is zero", ErrUndefinedCurve)
	}
	if c.Begin < c.End {
		return fmt.Errorf("stepped begin %s below end %s", c.Begin, c.End)
	}
	return nil
}

func (c SteppedDecreasing) Threshold(x Perbill) (Perbill, error) {
	if c.Period == 0 {
		return 0, ErrUndefinedCurve
	}
	steps := new(big.Int).SetUint64(uint64(x / c.Period))
	drop := steps.Mul(steps, c.Step.Int())
	y := new(big.Int).Sub(c.Begin.Int(), drop)
	if y.Cmp(c.End.Int()) < 0 {
		return c.End, nil
	}
	return Perbill(y.Uint64()), nil
}

func (c SteppedDecreasing) Delay(y Perbill) (Perbill, error) {
	if c.Period == 0 {
		return 0, ErrUndefinedCurve
	}
	switch {
	case y >= c.Begin:
		return 0, nil
	case y < c.End, c.Step == 0:
		return One, nil
	}
	steps := ceilDiv(
		new(big.Int).SetUint64(uint64(c.Begin-y)),
		c.Step.Int(),
	)
	return saturatingPerbill(steps.Mul(steps, c.Period.Int())), nil
}

// Reciprocal decays hyperbolically: factor / (x + xOffset) + yOffset. The
// parameters are signed fixed-point values with the same 10^9 scale.
type Reciprocal struct {
	Factor  int64
	XOffset int64
	YOffset int64
}

func (Reciprocal) Kind() Kind { return KindReciprocal }

func (c Reciprocal) Validate() error {
	if c.Factor <= 0 {
		return fmt.Errorf("%w: reciprocal factor is %d", ErrUndefinedCurve, c.Factor)
	}
	if c.XOffset < 0 {
		return fmt.Errorf("reciprocal x offset is negative: %d", c.XOffset)
	}
	// The threshold at x = 0 divides by the offset
	if c.XOffset == 0 {
		return fmt.Errorf("%w: reciprocal x offset is zero", ErrUndefinedCurve)
	}
	return nil
}

func (c Reciprocal) Threshold(x Perbill) (Perbill, error) {
	if c.Factor <= 0 {
		return 0, ErrUndefinedCurve
	}
	den := new(big.Int).Add(x.Int(), big.NewInt(c.XOffset))
	if den.Sign() <= 0 {
		return 0, ErrUndefinedCurve
	}
	y := new(big.Int).Mul(big.NewInt(c.Factor), scaleInt)
	y.Quo(y, den)
	y.Add(y, big.NewInt(c.YOffset))
	if y.Sign() < 0 {
		return 0, nil
	}
	return saturatingPerbill(y), nil
}

func (c Reciprocal) Delay(y Perbill) (Perbill, error) {
	if c.Factor <= 0 {
		return 0, ErrUndefinedCurve
	}
	if y >= One {
		return 0, nil
	}
	target := new(big.Int).Sub(y.Int(), big.NewInt(c.YOffset))
	if target.Sign() < 0 {
		return One, nil
	}
	// factor*Scale/d <= target  <=>  d >= factor*Scale/(target+1) + 1
	d := new(big.Int).Mul(big.NewInt(c.Factor), scaleInt)
	d.Quo(d, target.Add(target, big.NewInt(1)))
	d.Add(d, big.NewInt(1))
	x := d.Sub(d, big.NewInt(c.XOffset))
	if x.Sign() < 0 {
		return 0, nil
	}
	return saturatingPerbill(x), nil
}

func ceilDiv(n, d *big.Int) *big.Int {
	q, m := new(big.Int).QuoRem(n, d, new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func saturatingPerbill(v *big.Int) Perbill {
	if v.Cmp(scaleInt) > 0 {
		return One
	}
	return Perbill(v.Uint64())
}
