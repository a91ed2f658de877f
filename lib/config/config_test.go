// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gantry.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: development\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Agent.SampleInterval != "2s" {
		t.Fatalf("sample_interval = %q, want default 2s", cfg.Agent.SampleInterval)
	}
	if cfg.Agent.RetentionDays != 14 {
		t.Fatalf("retention_days = %d, want default 14", cfg.Agent.RetentionDays)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: production
agent:
  sample_interval: 2s
production:
  agent:
    sample_interval: 10s
    retention_days: 90
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Agent.SampleInterval != "10s" {
		t.Fatalf("sample_interval = %q, want production override 10s", cfg.Agent.SampleInterval)
	}
	if cfg.Agent.RetentionDays != 90 {
		t.Fatalf("retention_days = %d, want 90", cfg.Agent.RetentionDays)
	}
}

func TestLoadFileExpandsVariables(t *testing.T) {
	path := writeConfig(t, `
paths:
  root: /srv/gantry
agent:
  socket_path: ${GANTRY_ROOT}/agent.sock
  history_path: ${GANTRY_STATE}/history.db
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Agent.SocketPath != "/srv/gantry/agent.sock" {
		t.Fatalf("socket_path = %q", cfg.Agent.SocketPath)
	}
	if !strings.HasSuffix(cfg.Agent.HistoryPath, "/history.db") {
		t.Fatalf("history_path = %q", cfg.Agent.HistoryPath)
	}
}

func TestTourParamsResolution(t *testing.T) {
	edge := 2
	tour := TourConfig{
		IdleThreshold: "45s",
		CycleDuration: "6s",
		CaptionWidth:  60,
		EdgeMargin:    &edge,
	}

	params, err := tour.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if params.IdleThreshold != 45*time.Second {
		t.Fatalf("IdleThreshold = %v", params.IdleThreshold)
	}
	if params.CycleDuration != 6*time.Second {
		t.Fatalf("CycleDuration = %v", params.CycleDuration)
	}
	if params.CaptionSize.Width != 60 {
		t.Fatalf("CaptionSize.Width = %d", params.CaptionSize.Width)
	}
	if params.Margins.Edge != 2 {
		t.Fatalf("Margins.Edge = %d", params.Margins.Edge)
	}
	// Unset gap keeps the package default.
	if params.Margins.Gap != 1 {
		t.Fatalf("Margins.Gap = %d, want default 1", params.Margins.Gap)
	}
}

func TestTourParamsBadDuration(t *testing.T) {
	tour := TourConfig{IdleThreshold: "soonish"}
	if _, err := tour.Params(); err == nil {
		t.Fatal("Params accepted unparseable duration")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Environment = "orbit"
	cfg.Agent.SampleInterval = "never"
	cfg.Agent.RetentionDays = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted invalid config")
	}
	for _, fragment := range []string{"invalid environment", "sample_interval", "retention_days"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("Validate error %q missing %q", err, fragment)
		}
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("GANTRY_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without GANTRY_CONFIG")
	}
}
