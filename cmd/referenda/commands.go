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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blinklabs-io/referenda"
	"github.com/blinklabs-io/referenda/chaindata"
	"github.com/blinklabs-io/referenda/decision"
	"github.com/blinklabs-io/referenda/internal/config"
	"github.com/blinklabs-io/referenda/tally"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type inputFlags struct {
	track    string
	votes    string
	events   string
	now      string
	issuance string
}

func (f *inputFlags) register(cmd *cobra.Command, votes, events bool) {
	cmd.Flags().
		StringVarP(&f.track, "track", "t", "", "track definition file (default: configured preset)")
	if votes {
		cmd.Flags().
			StringVar(&f.votes, "votes", "", "vote records file, '-' for stdin")
		cmd.Flags().
			StringVar(&f.issuance, "issuance", "", "total issuance (default from config)")
	}
	if events {
		cmd.Flags().
			StringVar(&f.events, "events", "", "timeline events file")
		cmd.Flags().
			StringVar(&f.now, "now", "", "evaluation time as an RFC 3339 date (default: current time)")
	}
}

func (f *inputFlags) nowTime() (time.Time, error) {
	if f.now == "" {
		return time.Now(), nil
	}
	return chaindata.ParseTimestamp(f.now)
}

// configFromCommand returns the config stored by the root pre-run hook,
// exiting when it is missing
func configFromCommand(cmd *cobra.Command) *config.Config {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		slog.Error("no config found in context")
		os.Exit(1)
	}
	return cfg
}

func curveCommand() *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Sample the required approval and support curves of a track",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromCommand(cmd)
			commonRun()
			spec, err := loadTrack(flags.track, cfg)
			if err != nil {
				return err
			}
			blockTime, err := cfg.BlockTimeFunc()
			if err != nil {
				return err
			}
			minutes := decision.DecisionMinutes(spec, blockTime)
			series, err := decision.RequiredSeries(
				spec,
				minutes,
				decision.SeriesOptions{
					Step:          cfg.SampleResolution,
					ExtendMinutes: cfg.ExtendMinutes,
				},
			)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), chartView{
				Track:            spec.Name,
				DecisionMinutes:  minutes,
				RequiredApproval: newPointsView(series.Approval),
				RequiredSupport:  newPointsView(series.Support),
			})
		},
	}
	flags.register(cmd, false, false)
	return cmd
}

func tallyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally <votes-file>",
		Short: "Aggregate vote records into a tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFromCommand(cmd)
			logger := commonRun()
			records, err := loadVotes(args[0])
			if err != nil {
				return err
			}
			result := tally.Aggregate(records)
			if result.Degraded() {
				logger.Warn(
					"vote records needed correction",
					"component", programName,
					"clamped_convictions", result.ClampedConvictions,
					"malformed", result.Malformed,
				)
			}
			return writeJSON(cmd.OutOrStdout(), newTallyView(result))
		},
	}
	return cmd
}

func timelineCommand() *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Resolve the lifecycle state and periods of a referendum",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromCommand(cmd)
			commonRun()
			spec, err := loadTrack(flags.track, cfg)
			if err != nil {
				return err
			}
			events, err := loadEvents(flags.events)
			if err != nil {
				return err
			}
			now, err := flags.nowTime()
			if err != nil {
				return err
			}
			blockTime, err := cfg.BlockTimeFunc()
			if err != nil {
				return err
			}
			res := timeline.Resolve(spec, events, now, blockTime)
			return writeJSON(cmd.OutOrStdout(), newTimelineView(res))
		},
	}
	flags.register(cmd, false, true)
	return cmd
}

func evaluateCommand() *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a referendum against its track",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromCommand(cmd)
			logger := commonRun()
			in, err := flags.input(cfg)
			if err != nil {
				return err
			}
			registry := prometheus.NewRegistry()
			engine, shutdown, err := newEngine(cfg, logger, registry)
			if err != nil {
				return err
			}
			defer shutdown()
			report, err := engine.Evaluate(cmd.Context(), in)
			if err != nil {
				return err
			}
			logMetrics(logger, registry)
			return writeJSON(cmd.OutOrStdout(), newReportView(in.Track.Name, report))
		},
	}
	flags.register(cmd, true, true)
	return cmd
}

func chartCommand() *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Sample the required curves and the observed tally over the decision period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromCommand(cmd)
			logger := commonRun()
			in, err := flags.input(cfg)
			if err != nil {
				return err
			}
			registry := prometheus.NewRegistry()
			engine, shutdown, err := newEngine(cfg, logger, registry)
			if err != nil {
				return err
			}
			defer shutdown()
			blockTime, err := cfg.BlockTimeFunc()
			if err != nil {
				return err
			}
			issuance := in.TotalIssuance
			if issuance == nil {
				if issuance, err = cfg.Issuance(); err != nil {
					return err
				}
			}
			var snapshots []decision.Snapshot
			if start, ok := decidingBlock(in.Events); ok {
				snapshots = decision.VoteSnapshots(in.Votes, start, blockTime, issuance)
			} else if len(in.Votes) > 0 {
				logger.Warn(
					"no deciding event with a block, current curves omitted",
					"component", programName,
				)
			}
			chart, err := engine.Chart(cmd.Context(), in.Track, snapshots)
			if err != nil {
				return err
			}
			logMetrics(logger, registry)
			return writeJSON(cmd.OutOrStdout(), chartView{
				Track:            in.Track.Name,
				DecisionMinutes:  decision.DecisionMinutes(in.Track, blockTime),
				RequiredApproval: newPointsView(chart.Required.Approval),
				RequiredSupport:  newPointsView(chart.Required.Support),
				CurrentApproval:  newPointsView(chart.CurrentApproval),
				CurrentSupport:   newPointsView(chart.CurrentSupport),
				Degraded:         chart.Degraded,
			})
		},
	}
	flags.register(cmd, true, true)
	return cmd
}

func (f *inputFlags) input(cfg *config.Config) (referenda.Input, error) {
	var ret referenda.Input
	var err error
	if ret.Track, err = loadTrack(f.track, cfg); err != nil {
		return ret, err
	}
	if ret.Votes, err = loadVotes(f.votes); err != nil {
		return ret, err
	}
	if ret.Events, err = loadEvents(f.events); err != nil {
		return ret, err
	}
	if ret.Now, err = f.nowTime(); err != nil {
		return ret, fmt.Errorf("invalid --now: %w", err)
	}
	if f.issuance != "" {
		if ret.TotalIssuance, err = chaindata.ParseBalance(f.issuance); err != nil {
			return ret, fmt.Errorf("invalid --issuance: %w", err)
		}
	}
	return ret, nil
}
