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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/referenda/chaindata"
	"github.com/blinklabs-io/referenda/internal/config"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/blinklabs-io/referenda/track"
)

var errNoInput = errors.New("input file required")

// readInput reads a file, or stdin when path is "-"
func readInput(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, errNoInput
	case "-":
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// loadTrack reads a track file, falling back to the configured preset
func loadTrack(path string, cfg *config.Config) (track.Spec, error) {
	if path == "" {
		spec, ok := track.Preset(cfg.Track)
		if !ok {
			return track.Spec{}, fmt.Errorf("unknown track preset: %s", cfg.Track)
		}
		return spec, nil
	}
	data, err := readInput(path)
	if err != nil {
		return track.Spec{}, fmt.Errorf("failed to read track: %w", err)
	}
	spec, err := chaindata.DecodeTrack(data)
	if err != nil {
		return track.Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

func loadVotes(path string) ([]tally.Record, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}
	records, err := chaindata.DecodeVotes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func loadEvents(path string) ([]timeline.Event, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	events, err := chaindata.DecodeEvents(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// decidingBlock returns the block of the earliest Deciding event
func decidingBlock(events []timeline.Event) (uint64, bool) {
	var ret uint64
	found := false
	for _, evt := range events {
		if evt.Phase != timeline.PhaseDeciding || evt.Block == 0 {
			continue
		}
		if !found || evt.Block < ret {
			ret = evt.Block
			found = true
		}
	}
	return ret, found
}
