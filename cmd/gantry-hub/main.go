// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/gantry-foundation/gantry/lib/captions"
	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/config"
	"github.com/gantry-foundation/gantry/lib/hubui"
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
	flags := pflag.NewFlagSet("gantry-hub", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to gantry.yaml (overrides GANTRY_CONFIG)")
	statePath := flags.String("state", "", "tenant state file, JSONC or YAML (default: <state dir>/hub-state.jsonc)")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println("gantry-hub", version.Full())
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return process.NewValidation("gantry-hub requires an interactive terminal")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	tuiHandler := tui.NewLogHandler(slog.LevelWarn)
	logger, closeLog, err := buildLogger(tuiHandler, cfg.Hub.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog, err := captions.Load(cfg.Hub.CaptionCatalog, logger)
	if err != nil {
		return err
	}
	stopCatalogWatch, err := catalog.Watch()
	if err != nil {
		logger.Warn("caption catalog watch unavailable", "error", err)
	} else {
		defer stopCatalogWatch()
	}

	stateFile := *statePath
	if stateFile == "" {
		stateFile = filepath.Join(cfg.Paths.State, "hub-state.jsonc")
	}
	source, err := hubui.NewFileSource(stateFile, logger)
	if err != nil {
		return process.NewValidation("cannot load tenant state from %s: %v", stateFile, err).
			WithHint("point --state at the tenant file exported by the hub gateway")
	}
	defer source.Close()

	tourParams, err := cfg.Hub.Tour.Params()
	if err != nil {
		return err
	}

	model := hubui.NewModel(hubui.Options{
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

// buildLogger mirrors gantry-dash: records go to the status bar, and
// to a JSON file as well when one is configured. Stderr stays clean
// for the alt-screen display.
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
