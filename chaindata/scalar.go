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

package chaindata

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var convictionRe = regexp.MustCompile(`^(?i)locked([1-6])x$`)

// ParseBalance converts a chain balance to an arbitrary-precision integer.
// It accepts decimal strings (optionally with thousands separators), 0x hex
// strings, json.Number, Go integer types and integral floats. Negative
// values are returned as-is.
func ParseBalance(v any) (*big.Int, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: empty balance", ErrInvalidValue)
	case *big.Int:
		if val == nil {
			return nil, fmt.Errorf("%w: empty balance", ErrInvalidValue)
		}
		return new(big.Int).Set(val), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return parseIntString(s)
}

func parseIntString(s string) (*big.Int, error) {
	orig := s
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	neg := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		neg = true
		s = rest
	}
	base := 10
	if rest, ok := cutHexPrefix(s); ok {
		base = 16
		s = rest
	}
	ret, ok := new(big.Int).SetString(s, base)
	if !ok || s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: not an integer: %q", ErrInvalidValue, orig)
	}
	if neg {
		ret.Neg(ret)
	}
	return ret, nil
}

func cutHexPrefix(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return rest, true
	}
	return strings.CutPrefix(s, "0X")
}

// parseUint64 parses a non-negative value that fits in 64 bits
func parseUint64(v any) (uint64, error) {
	n, err := ParseBalance(v)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("%w: out of range: %s", ErrInvalidValue, n)
	}
	return n.Uint64(), nil
}

// parseInt64 parses a signed value that fits in 64 bits
func parseInt64(v any) (int64, error) {
	n, err := ParseBalance(v)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%w: out of range: %s", ErrInvalidValue, n)
	}
	return n.Int64(), nil
}

// ParsePerbill converts a curve parameter to a Perbill. Integers are parts
// per billion as the chain encodes them. Strings ending in "%" are
// percentages with at most seven decimal places.
func ParsePerbill(v any) (curve.Perbill, error) {
	if s, ok := v.(string); ok {
		if pct, ok := strings.CutSuffix(strings.TrimSpace(s), "%"); ok {
			d, err := decimal.NewFromString(pct)
			if err != nil {
				return 0, fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}
			// 10^7 parts per billion per percent
			scaled := d.Shift(7)
			if !scaled.IsInteger() || scaled.IsNegative() {
				return 0, fmt.Errorf("%w: not a perbill: %q", ErrInvalidValue, s)
			}
			n := scaled.BigInt()
			if !n.IsUint64() {
				return 0, fmt.Errorf("%w: out of range: %q", ErrInvalidValue, s)
			}
			return curve.Perbill(n.Uint64()), nil
		}
	}
	n, err := parseUint64(v)
	if err != nil {
		return 0, err
	}
	return curve.Perbill(n), nil
}

// ParseConviction accepts a lock period number or the chain's enum names
// ("None", "Locked1x" through "Locked6x"). Out of range numbers are passed
// through for the tally to clamp.
func ParseConviction(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "none") {
			return 0, nil
		}
		if m := convictionRe.FindStringSubmatch(s); m != nil {
			return cast.ToIntE(m[1])
		}
	}
	ret, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: conviction: %w", ErrInvalidValue, err)
	}
	return ret, nil
}

// ParseTimestamp accepts unix milliseconds as the chain's timestamp pallet
// stores them, as a number or a decimal or hex string, or a date string
func ParseTimestamp(v any) (time.Time, error) {
	if s, ok := v.(string); ok {
		if n, err := parseIntString(s); err == nil {
			if !n.IsInt64() {
				return time.Time{}, fmt.Errorf("%w: timestamp out of range: %q", ErrInvalidValue, s)
			}
			return time.UnixMilli(n.Int64()).UTC(), nil
		}
		ret, err := cast.ToTimeE(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: timestamp: %w", ErrInvalidValue, err)
		}
		return ret.UTC(), nil
	}
	ms, err := cast.ToInt64E(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp: %w", ErrInvalidValue, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
