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
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/blinklabs-io/referenda/timeline"
)

// ErrUnknownNetwork is returned for a network with no known block time
var ErrUnknownNetwork = errors.New("unknown network")

// Average block times of the supported relay chains
var networkBlockTimes = map[string]time.Duration{
	"polkadot": 6 * time.Second,
	"kusama":   6 * time.Second,
	"westend":  6 * time.Second,
	"paseo":    6 * time.Second,
}

// BlockTime returns the block-to-duration conversion for a network
func BlockTime(network string) (timeline.BlockTimeFunc, error) {
	d, ok := networkBlockTimes[strings.ToLower(network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return timeline.FixedBlockTime(d), nil
}

// Networks returns the names of the networks with a known block time
func Networks() []string {
	return slices.Sorted(maps.Keys(networkBlockTimes))
}
