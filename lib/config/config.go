// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Gantry binaries.
//
// Configuration is loaded from a single YAML file specified by:
//   - GANTRY_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections
// (development, production) that override base values when the
// environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gantry-foundation/gantry/lib/spotlight"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local workstations.
	Development Environment = "development"
	// Production is for managed fleet workstations.
	Production Environment = "production"
)

// Config is the master configuration for Gantry.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Agent configures the sampling agent.
	Agent AgentConfig `yaml:"agent"`

	// Dash configures the workstation dashboard.
	Dash ViewConfig `yaml:"dash"`

	// Hub configures the hub admin UI.
	Hub ViewConfig `yaml:"hub"`

	// EnvironmentOverrides contains per-environment overrides,
	// applied after the base config is loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Paths *PathsConfig `yaml:"paths,omitempty"`
	Agent *AgentConfig `yaml:"agent,omitempty"`
	Dash  *ViewConfig  `yaml:"dash,omitempty"`
	Hub   *ViewConfig  `yaml:"hub,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Gantry data.
	Root string `yaml:"root"`

	// State is where runtime state (history db, logs) is stored.
	State string `yaml:"state"`

	// Models is the installed-model directory the registry scans.
	Models string `yaml:"models"`
}

// AgentConfig configures the sampling agent.
type AgentConfig struct {
	// SocketPath is the Unix socket the agent serves on.
	// Default: ${GANTRY_ROOT}/agent.sock
	SocketPath string `yaml:"socket_path"`

	// SampleInterval is the time between hardware samples.
	// Default: 2s.
	SampleInterval string `yaml:"sample_interval"`

	// RetentionDays is how many day-partitions of sample history to
	// keep. Default: 14.
	RetentionDays int `yaml:"retention_days"`

	// HistoryPath is the SQLite history database file.
	// Default: ${GANTRY_STATE}/history.db
	HistoryPath string `yaml:"history_path"`

	// LogFile is the agent's JSON log destination; empty means
	// stderr.
	LogFile string `yaml:"log_file"`
}

// SampleIntervalDuration parses SampleInterval.
func (a *AgentConfig) SampleIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(a.SampleInterval)
	if err != nil {
		return 0, fmt.Errorf("agent.sample_interval %q: %w", a.SampleInterval, err)
	}
	return d, nil
}

// ViewConfig configures one TUI view (dashboard or hub) and its
// attention tour.
type ViewConfig struct {
	// CaptionCatalog is the JSONC file mapping card ids to tour
	// caption text. Empty means built-in fallback captions only.
	CaptionCatalog string `yaml:"caption_catalog"`

	// LogFile is the view's JSON log fan-out destination; empty
	// means ${GANTRY_STATE}/<view>.log.
	LogFile string `yaml:"log_file"`

	// Tour tunes the idle attention tour.
	Tour TourConfig `yaml:"tour"`
}

// TourConfig is the serialized form of spotlight.Params. The source
// views this engine replaced each hard-coded slightly different
// values; every one is configurable here.
type TourConfig struct {
	// IdleThreshold is the quiet period before the tour starts
	// ("30s"). Empty means the package default.
	IdleThreshold string `yaml:"idle_threshold"`

	// CycleDuration is how long each highlight stays ("8s").
	CycleDuration string `yaml:"cycle_duration"`

	// SettleDelay is the fade-out pause between highlights
	// ("400ms").
	SettleDelay string `yaml:"settle_delay"`

	// CaptionWidth and CaptionHeight are the caption box size in
	// terminal cells. Zero means the package default.
	CaptionWidth  int `yaml:"caption_width"`
	CaptionHeight int `yaml:"caption_height"`

	// EdgeMargin and AnchorGap are placement margins in cells.
	// Pointers because zero is a valid margin, distinct from "use
	// the package default".
	EdgeMargin *int `yaml:"edge_margin"`
	AnchorGap  *int `yaml:"anchor_gap"`
}

// Params resolves the tour configuration against
// spotlight.DefaultParams.
func (t *TourConfig) Params() (spotlight.Params, error) {
	params := spotlight.DefaultParams()

	durations := []struct {
		value  string
		target *time.Duration
		field  string
	}{
		{t.IdleThreshold, &params.IdleThreshold, "idle_threshold"},
		{t.CycleDuration, &params.CycleDuration, "cycle_duration"},
		{t.SettleDelay, &params.SettleDelay, "settle_delay"},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return params, fmt.Errorf("tour.%s %q: %w", d.field, d.value, err)
		}
		*d.target = parsed
	}

	if t.CaptionWidth > 0 {
		params.CaptionSize.Width = t.CaptionWidth
	}
	if t.CaptionHeight > 0 {
		params.CaptionSize.Height = t.CaptionHeight
	}
	if t.EdgeMargin != nil {
		params.Margins.Edge = *t.EdgeMargin
	}
	if t.AnchorGap != nil {
		params.Margins.Gap = *t.AnchorGap
	}
	return params, nil
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file; all fields have sensible
// values so a missing file is survivable for read-only tooling.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "gantry")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:   defaultRoot,
			State:  filepath.Join(defaultRoot, "state"),
			Models: filepath.Join(defaultRoot, "models"),
		},
		Agent: AgentConfig{
			SocketPath:     filepath.Join(defaultRoot, "agent.sock"),
			SampleInterval: "2s",
			RetentionDays:  14,
			HistoryPath:    filepath.Join(defaultRoot, "state", "history.db"),
		},
	}
}

// Load loads configuration from the GANTRY_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks — if GANTRY_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("GANTRY_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("GANTRY_CONFIG environment variable not set; " +
			"set it to the path of your gantry.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// applyEnvironmentOverrides applies the environment-specific override
// section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		applyString(&c.Paths.Root, overrides.Paths.Root)
		applyString(&c.Paths.State, overrides.Paths.State)
		applyString(&c.Paths.Models, overrides.Paths.Models)
	}
	if overrides.Agent != nil {
		applyString(&c.Agent.SocketPath, overrides.Agent.SocketPath)
		applyString(&c.Agent.SampleInterval, overrides.Agent.SampleInterval)
		applyString(&c.Agent.HistoryPath, overrides.Agent.HistoryPath)
		applyString(&c.Agent.LogFile, overrides.Agent.LogFile)
		if overrides.Agent.RetentionDays > 0 {
			c.Agent.RetentionDays = overrides.Agent.RetentionDays
		}
	}
	if overrides.Dash != nil {
		applyView(&c.Dash, overrides.Dash)
	}
	if overrides.Hub != nil {
		applyView(&c.Hub, overrides.Hub)
	}
}

func applyString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func applyView(target *ViewConfig, overrides *ViewConfig) {
	applyString(&target.CaptionCatalog, overrides.CaptionCatalog)
	applyString(&target.LogFile, overrides.LogFile)
	applyString(&target.Tour.IdleThreshold, overrides.Tour.IdleThreshold)
	applyString(&target.Tour.CycleDuration, overrides.Tour.CycleDuration)
	applyString(&target.Tour.SettleDelay, overrides.Tour.SettleDelay)
	if overrides.Tour.CaptionWidth > 0 {
		target.Tour.CaptionWidth = overrides.Tour.CaptionWidth
	}
	if overrides.Tour.CaptionHeight > 0 {
		target.Tour.CaptionHeight = overrides.Tour.CaptionHeight
	}
	if overrides.Tour.EdgeMargin != nil {
		target.Tour.EdgeMargin = overrides.Tour.EdgeMargin
	}
	if overrides.Tour.AnchorGap != nil {
		target.Tour.AnchorGap = overrides.Tour.AnchorGap
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"GANTRY_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["GANTRY_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["GANTRY_STATE"] = c.Paths.State
	c.Paths.Models = expandVars(c.Paths.Models, vars)
	c.Agent.SocketPath = expandVars(c.Agent.SocketPath, vars)
	c.Agent.HistoryPath = expandVars(c.Agent.HistoryPath, vars)
	c.Agent.LogFile = expandVars(c.Agent.LogFile, vars)
	c.Dash.CaptionCatalog = expandVars(c.Dash.CaptionCatalog, vars)
	c.Dash.LogFile = expandVars(c.Dash.LogFile, vars)
	c.Hub.CaptionCatalog = expandVars(c.Hub.CaptionCatalog, vars)
	c.Hub.LogFile = expandVars(c.Hub.LogFile, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting all of them
// at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Agent.SocketPath == "" {
		errs = append(errs, fmt.Errorf("agent.socket_path is required"))
	}
	if c.Agent.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("agent.retention_days must be at least 1"))
	}
	if _, err := c.Agent.SampleIntervalDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Dash.Tour.Params(); err != nil {
		errs = append(errs, fmt.Errorf("dash: %w", err))
	}
	if _, err := c.Hub.Tour.Params(); err != nil {
		errs = append(errs, fmt.Errorf("hub: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.State, c.Paths.Models} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
