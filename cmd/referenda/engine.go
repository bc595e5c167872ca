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
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/referenda"
	"github.com/blinklabs-io/referenda/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newEngine builds an engine from the loaded config. The returned func
// flushes any pending spans and must be called before exiting.
func newEngine(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*referenda.Engine, func(), error) {
	blockTime, err := cfg.BlockTimeFunc()
	if err != nil {
		return nil, nil, err
	}
	issuance, err := cfg.Issuance()
	if err != nil {
		return nil, nil, err
	}
	opts := []referenda.ConfigOptionFunc{
		referenda.WithLogger(logger),
		referenda.WithPromRegistry(promRegistry),
		referenda.WithBlockTime(blockTime),
		referenda.WithTotalIssuance(issuance),
		referenda.WithSampleResolution(cfg.SampleResolution),
		referenda.WithExtendMinutes(cfg.ExtendMinutes),
	}
	shutdown := func() {}
	if cfg.Tracing {
		tp, err := setupTracing()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, referenda.WithTracerProvider(tp))
		shutdown = func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error(
					"failed to shut down tracer provider",
					"error", err,
				)
			}
		}
	}
	engine, err := referenda.New(referenda.NewConfig(opts...))
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	return engine, shutdown, nil
}

func setupTracing() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}
