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

package curve

import (
	"fmt"
	"math/big"
)

// Scale is the fixed-point denominator shared with the chain. A Perbill of
// Scale represents 100%.
const Scale = 1_000_000_000

// One is the Perbill representing a whole (100%, or the end of a period).
const One Perbill = Scale

var scaleInt = big.NewInt(Scale)

// Perbill is a non-negative fixed-point fraction in parts per billion. Values
// above One are permitted for elapsed-time fractions past the end of a
// period.
type Perbill uint64

// FromPercent returns the Perbill for a whole percentage.
func FromPercent(percent uint64) Perbill {
	return Perbill(percent * (Scale / 100))
}

// FromRational returns num/den as a Perbill, truncating toward zero and
// saturating at One. A nil or zero denominator yields false.
func FromRational(num, den *big.Int) (Perbill, bool) {
	if num == nil || den == nil || den.Sign() <= 0 || num.Sign() < 0 {
		return 0, false
	}
	if num.Cmp(den) >= 0 {
		return One, true
	}
	tmp := new(big.Int).Mul(num, scaleInt)
	tmp.Quo(tmp, den)
	return Perbill(tmp.Uint64()), true
}

// FromFraction returns n/d as a Perbill without saturating, so that elapsed
// fractions past the end of a period keep growing. A zero denominator
// yields false.
func FromFraction(n, d uint64) (Perbill, bool) {
	if d == 0 {
		return 0, false
	}
	tmp := new(big.Int).SetUint64(n)
	tmp.Mul(tmp, scaleInt)
	tmp.Quo(tmp, new(big.Int).SetUint64(d))
	if !tmp.IsUint64() {
		return 0, false
	}
	return Perbill(tmp.Uint64()), true
}

// Int returns the value as a new big.Int.
func (p Perbill) Int() *big.Int {
	return new(big.Int).SetUint64(uint64(p))
}

// Rat returns the exact fraction represented by p.
func (p Perbill) Rat() *big.Rat {
	return new(big.Rat).SetFrac(p.Int(), scaleInt)
}

// Percent converts to a real percentage. Use only at the formatting step.
func (p Perbill) Percent() float64 {
	f, _ := new(big.Rat).Mul(p.Rat(), big.NewRat(100, 1)).Float64()
	return f
}

// Saturate clamps p to One.
func (p Perbill) Saturate() Perbill {
	if p > One {
		return One
	}
	return p
}

func (p Perbill) String() string {
	// 10^7 parts per billion per percent
	return fmt.Sprintf("%d.%07d%%", uint64(p)/10_000_000, uint64(p)%10_000_000)
}
