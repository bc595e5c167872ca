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
	"strings"

	"github.com/blinklabs-io/referenda/curve"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/blinklabs-io/referenda/track"
	"github.com/spf13/cast"
)

// DecodeTrack reads a track parameter document. Curves are objects with a
// single key naming the variant, as the chain's JSON encoding does.
func DecodeTrack(data []byte) (track.Spec, error) {
	doc, err := decode(schemaTrack, data)
	if err != nil {
		return track.Spec{}, err
	}
	var ret track.Spec
	if v, ok := doc["id"]; ok {
		id, err := parseUint64(v)
		if err != nil || id > 0xffff {
			return track.Spec{}, fmt.Errorf("%w: track id %v", ErrInvalidValue, v)
		}
		ret.ID = uint16(id)
	}
	ret.Name = cast.ToString(doc["name"])
	periods := []struct {
		key string
		dst *uint64
	}{
		{"preparePeriod", &ret.PreparePeriod},
		{"decisionPeriod", &ret.DecisionPeriod},
		{"confirmPeriod", &ret.ConfirmPeriod},
		{"minEnactmentPeriod", &ret.MinEnactmentPeriod},
	}
	for _, p := range periods {
		v, ok := doc[p.key]
		if !ok {
			continue
		}
		if *p.dst, err = parseUint64(v); err != nil {
			return track.Spec{}, fmt.Errorf("%s: %w", p.key, err)
		}
	}
	if ret.MinApproval, err = decodeCurve(doc["minApproval"]); err != nil {
		return track.Spec{}, fmt.Errorf("minApproval: %w", err)
	}
	if ret.MinSupport, err = decodeCurve(doc["minSupport"]); err != nil {
		return track.Spec{}, fmt.Errorf("minSupport: %w", err)
	}
	return ret, nil
}

func decodeCurve(v any) (curve.Curve, error) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) != 1 {
		return nil, fmt.Errorf("%w: curve must have exactly one variant", ErrInvalidValue)
	}
	var name string
	var params map[string]any
	for k, raw := range obj {
		name = k
		params, ok = raw.(map[string]any)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s parameters", ErrInvalidValue, name)
	}
	switch strings.ToLower(name) {
	case "lineardecreasing":
		var c curve.LinearDecreasing
		err := perbillFields(params, map[string]*curve.Perbill{
			"length":  &c.Length,
			"floor":   &c.Floor,
			"ceiling": &c.Ceiling,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "steppeddecreasing":
		var c curve.SteppedDecreasing
		err := perbillFields(params, map[string]*curve.Perbill{
			"begin":  &c.Begin,
			"end":    &c.End,
			"step":   &c.Step,
			"period": &c.Period,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "reciprocal":
		var c curve.Reciprocal
		for key, dst := range map[string]*int64{
			"factor":  &c.Factor,
			"xOffset": &c.XOffset,
			"yOffset": &c.YOffset,
		} {
			n, err := parseInt64(params[key])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown curve %q", ErrInvalidValue, name)
}

func perbillFields(params map[string]any, fields map[string]*curve.Perbill) error {
	for key, dst := range fields {
		p, err := ParsePerbill(params[key])
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = p
	}
	return nil
}

// DecodeVotes reads a vote record document. Aye and Nay votes take their
// amount from "balance" when the direction-specific field is absent.
// Negative amounts and unknown convictions are passed through so the tally
// can count them as malformed or clamped.
func DecodeVotes(data []byte) ([]tally.Record, error) {
	doc, err := decode(schemaVotes, data)
	if err != nil {
		return nil, err
	}
	items := objects(doc, "votes")
	ret := make([]tally.Record, 0, len(items))
	for i, item := range items {
		rec, err := decodeVote(item)
		if err != nil {
			return nil, fmt.Errorf("vote %d: %w", i, err)
		}
		ret = append(ret, rec)
	}
	return ret, nil
}

func decodeVote(item map[string]any) (tally.Record, error) {
	rec := tally.Record{
		Voter: cast.ToString(item["voter"]),
	}
	switch strings.ToLower(cast.ToString(item["decision"])) {
	case "aye":
		rec.Decision = tally.DecisionAye
	case "nay":
		rec.Decision = tally.DecisionNay
	case "split":
		rec.Decision = tally.DecisionSplit
	case "splitabstain":
		rec.Decision = tally.DecisionSplitAbstain
	default:
		return rec, fmt.Errorf("%w: decision %v", ErrInvalidValue, item["decision"])
	}
	amounts := []struct {
		key string
		dst **big.Int
	}{
		{"aye", &rec.Aye},
		{"nay", &rec.Nay},
		{"abstain", &rec.Abstain},
	}
	for _, a := range amounts {
		v, ok := item[a.key]
		if !ok {
			continue
		}
		n, err := ParseBalance(v)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", a.key, err)
		}
		*a.dst = n
	}
	if v, ok := item["balance"]; ok {
		n, err := ParseBalance(v)
		if err != nil {
			return rec, fmt.Errorf("balance: %w", err)
		}
		switch {
		case rec.Decision == tally.DecisionAye && rec.Aye == nil:
			rec.Aye = n
		case rec.Decision == tally.DecisionNay && rec.Nay == nil:
			rec.Nay = n
		}
	}
	var err error
	if rec.Conviction, err = ParseConviction(item["conviction"]); err != nil {
		return rec, err
	}
	if v, ok := item["block"]; ok {
		if rec.Block, err = parseUint64(v); err != nil {
			return rec, fmt.Errorf("block: %w", err)
		}
	}
	return rec, nil
}

// DecodeEvents reads a timeline event document. Unknown phase names are
// rejected. Missing blocks or timestamps are left zero for the resolver to
// estimate or drop.
func DecodeEvents(data []byte) ([]timeline.Event, error) {
	doc, err := decode(schemaEvents, data)
	if err != nil {
		return nil, err
	}
	items := objects(doc, "events")
	ret := make([]timeline.Event, 0, len(items))
	for i, item := range items {
		name := cast.ToString(item["phase"])
		phase, ok := timeline.ParsePhase(name)
		if !ok {
			return nil, fmt.Errorf("event %d: %w: phase %q", i, ErrInvalidValue, name)
		}
		evt := timeline.Event{Phase: phase}
		if v, ok := item["block"]; ok {
			if evt.Block, err = parseUint64(v); err != nil {
				return nil, fmt.Errorf("event %d: block: %w", i, err)
			}
		}
		if v, ok := item["timestamp"]; ok {
			if evt.Timestamp, err = ParseTimestamp(v); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		}
		ret = append(ret, evt)
	}
	return ret, nil
}
