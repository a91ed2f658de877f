// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/gantry-foundation/gantry/lib/captions"
	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/config"
	"github.com/gantry-foundation/gantry/lib/dashui"
	"github.com/gantry-foundation/gantry/lib/process"
	"github.com/gantry-foundation/gantry/lib/tui"
	"github.com/gantry-foundation/gantry/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("gantry-dash", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to gantry.yaml (overrides GANTRY_CONFIG)")
	socketPath := flags.String("socket", "", "agent socket path (overrides config)")
	replayPath := flags.String("replay", "", "replay a recorded sample fixture instead of connecting to an agent")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println("gantry-dash", version.Full())
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return process.NewValidation("gantry-dash requires an interactive terminal").
			WithHint("run from an interactive session, or use 'gantry-agent export' for scripted access to the same data")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	tuiHandler := tui.NewLogHandler(slog.LevelWarn)
	logger, closeLog, err := buildLogger(tuiHandler, cfg.Dash.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog, err := captions.Load(cfg.Dash.CaptionCatalog, logger)
	if err != nil {
		return err
	}
	stopCatalogWatch, err := catalog.Watch()
	if err != nil {
		logger.Warn("caption catalog watch unavailable", "error", err)
	} else {
		defer stopCatalogWatch()
	}

	source, err := openSource(*replayPath, *socketPath, cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	tourParams, err := cfg.Dash.Tour.Params()
	if err != nil {
		return err
	}

	model := dashui.NewModel(dashui.Options{
		Source:     source,
		Captions:   catalog,
		Clock:      clock.Real(),
		TourParams: &tourParams,
		Logger:     logger,
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	return err
}

// openSource picks the dashboard's data source: a replay fixture when
// --replay is given, otherwise a live connection to the agent socket.
func openSource(replayPath, socketFlag string, cfg *config.Config, logger *slog.Logger) (dashui.Source, error) {
	if replayPath != "" {
		source, err := dashui.NewReplaySource(replayPath)
		if err != nil {
			return nil, fmt.Errorf("loading replay fixture %s: %w", replayPath, err)
		}
		return source, nil
	}

	socket := socketFlag
	if socket == "" {
		socket = cfg.Agent.SocketPath
	}
	source, err := dashui.NewAgentSource(context.Background(), socket, logger)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// loadConfig resolves configuration for the dashboard. Unlike the
// agent, the TUI binaries fall back to built-in defaults when neither
// --config nor GANTRY_CONFIG is present, so --replay works on a
// machine with no Gantry installation.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv("GANTRY_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger routes records to the in-TUI status bar and, when a log
// file is configured, fans them out to a JSON file for post-mortem
// debugging. Stderr is never used: it would corrupt the alt-screen
// display.
func buildLogger(tuiHandler *tui.LogHandler, logFile string) (*slog.Logger, func(), error) {
	if logFile == "" {
		return slog.New(tuiHandler), func() {}, nil
	}

	file, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", logFile, err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(tui.Fanout{tuiHandler, fileHandler})
	return logger, func() { file.Close() }, nil
}
