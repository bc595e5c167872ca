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

package referenda

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/blinklabs-io/referenda/chaindata"
	"github.com/blinklabs-io/referenda/decision"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Config struct {
	promRegistry     prometheus.Registerer
	tracerProvider   trace.TracerProvider
	logger           *slog.Logger
	blockTime        timeline.BlockTimeFunc
	totalIssuance    *big.Int
	network          string
	sampleResolution int
	extendMinutes    int
}

// ConfigOptionFunc is a type that represents functions that modify the Engine config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new engine config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		tracerProvider:   noop.NewTracerProvider(),
		sampleResolution: 1,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *Config) validate() error {
	if c.logger == nil {
		return errors.New("logger must not be nil")
	}
	if c.tracerProvider == nil {
		return errors.New("tracer provider must not be nil")
	}
	if c.sampleResolution < 1 {
		return fmt.Errorf(
			"invalid sample resolution: %d",
			c.sampleResolution,
		)
	}
	if c.extendMinutes < 0 {
		return fmt.Errorf("invalid extend minutes: %d", c.extendMinutes)
	}
	if c.blockTime == nil && c.network != "" {
		blockTime, err := chaindata.BlockTime(c.network)
		if err != nil {
			return err
		}
		c.blockTime = blockTime
	}
	return nil
}

func (c *Config) seriesOptions() decision.SeriesOptions {
	return decision.SeriesOptions{
		Step:          c.sampleResolution,
		ExtendMinutes: c.extendMinutes,
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPromRegistry specifies a prometheus.Registerer instance to add metrics to. Metrics are disabled when unset
func WithPromRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider for evaluation spans. This defaults to a no-op provider
func WithTracerProvider(provider trace.TracerProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.tracerProvider = provider
	}
}

// WithBlockTime specifies the block-to-duration conversion. This overrides any named network specified
func WithBlockTime(blockTime timeline.BlockTimeFunc) ConfigOptionFunc {
	return func(c *Config) {
		c.blockTime = blockTime
	}
}

// WithNetwork specifies the named network to evaluate for. This will automatically set the appropriate block time
func WithNetwork(network string) ConfigOptionFunc {
	return func(c *Config) {
		c.network = network
	}
}

// WithTotalIssuance specifies the total issuance used when an input does not carry its own
func WithTotalIssuance(issuance *big.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.totalIssuance = issuance
	}
}

// WithSampleResolution specifies the chart sampling interval in minutes. This defaults to 1
func WithSampleResolution(minutes int) ConfigOptionFunc {
	return func(c *Config) {
		c.sampleResolution = minutes
	}
}

// WithExtendMinutes specifies how far past the end of the decision period charts are sampled
func WithExtendMinutes(minutes int) ConfigOptionFunc {
	return func(c *Config) {
		c.extendMinutes = minutes
	}
}
