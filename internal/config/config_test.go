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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/blinklabs-io/referenda/chaindata"
)

func resetGlobalConfig(t *testing.T) {
	t.Helper()
	globalConfig = &Config{
		Network:          DefaultNetwork,
		Track:            DefaultTrack,
		SampleResolution: DefaultSampleResolution,
	}
	// Keep the host's config files out of the tests
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "referenda.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfig(t, `
network: "kusama"
blockTime: "12s"
totalIssuance: "0x3b9aca00"
track: "root"
sampleResolution: 5
extendMinutes: 60
tracing: true
`)

	expected := &Config{
		Network:          "kusama",
		BlockTime:        "12s",
		TotalIssuance:    "0x3b9aca00",
		Track:            "root",
		SampleResolution: 5,
		ExtendMinutes:    60,
		Tracing:          true,
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
	issuance, err := actual.Issuance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issuance.Int64() != 1_000_000_000 {
		t.Errorf("expected issuance 1000000000, got %s", issuance)
	}
	bt, err := actual.BlockTimeFunc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bt(5) != time.Minute {
		t.Errorf("expected 5 blocks to be 1m, got %s", bt(5))
	}
}

func TestLoad_ConfigSection(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfig(t, `
config:
  network: "westend"
`)
	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Network != "westend" {
		t.Errorf("expected network westend, got %q", cfg.Network)
	}
	if cfg.SampleResolution != DefaultSampleResolution {
		t.Errorf("expected default sample resolution, got %d", cfg.SampleResolution)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	expected := &Config{
		Network:          DefaultNetwork,
		Track:            DefaultTrack,
		SampleResolution: DefaultSampleResolution,
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfig(t, `
network: "kusama"
extendMinutes: 10
`)
	t.Setenv("REFERENDA_NETWORK", "paseo")
	t.Setenv("REFERENDA_EXTEND_MINUTES", "30")
	t.Setenv("REFERENDA_TOTAL_ISSUANCE", "1,000")

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Network != "paseo" {
		t.Errorf("expected network paseo, got %q", cfg.Network)
	}
	if cfg.ExtendMinutes != 30 {
		t.Errorf("expected extendMinutes 30, got %d", cfg.ExtendMinutes)
	}
	if cfg.TotalIssuance != "1,000" {
		t.Errorf("expected totalIssuance from env, got %q", cfg.TotalIssuance)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "unknown network", content: `network: "cardano"`, wantErr: chaindata.ErrUnknownNetwork},
		{name: "bad block time", content: `blockTime: "soon"`},
		{name: "negative block time", content: `blockTime: "-6s"`},
		{name: "bad issuance", content: `totalIssuance: "lots"`, wantErr: chaindata.ErrInvalidValue},
		{name: "zero resolution", content: `sampleResolution: 0`},
		{name: "negative extension", content: `extendMinutes: -1`},
		{name: "not yaml", content: `network: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalConfig(t)
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_CustomBlockTimeSkipsNetwork(t *testing.T) {
	resetGlobalConfig(t)
	cfg, err := LoadConfig(writeConfig(t, "network: \"devchain\"\nblockTime: \"2s\"\n"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	bt, err := cfg.BlockTimeFunc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bt(30) != time.Minute {
		t.Errorf("expected 30 blocks to be 1m, got %s", bt(30))
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Errorf("expected no config in empty context")
	}
	cfg := &Config{Network: "kusama"}
	ctx := WithContext(context.Background(), cfg)
	if FromContext(ctx) != cfg {
		t.Errorf("expected config from context")
	}
}
