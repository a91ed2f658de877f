// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/gantry-foundation/gantry/lib/agentsock"
	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/config"
	"github.com/gantry-foundation/gantry/lib/modelstore"
	"github.com/gantry-foundation/gantry/lib/process"
	"github.com/gantry-foundation/gantry/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "export":
			return runExportCommand(os.Args[2:])
		case "keygen":
			return runKeygenCommand(os.Args[2:])
		case "inspect":
			return runInspectCommand(os.Args[2:])
		}
	}

	flags := pflag.NewFlagSet("gantry-agent", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to gantry.yaml (overrides GANTRY_CONFIG)")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println("gantry-agent", version.Full())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg.Agent.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	store, err := OpenStore(StoreConfig{
		Path:   cfg.Agent.HistoryPath,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	models := modelstore.NewStore(cfg.Paths.Models, logger)
	if _, err := models.Rescan(); err != nil {
		logger.Warn("initial model scan failed", "error", err)
	}
	stopWatch, err := models.Watch()
	if err != nil {
		logger.Warn("model directory watch unavailable", "error", err)
	} else {
		defer stopWatch()
	}

	agent := NewAgent(store, models, clk, logger)

	server := agentsock.NewServer(cfg.Agent.SocketPath, logger)
	agent.registerActions(server)

	interval, err := cfg.Agent.SampleIntervalDuration()
	if err != nil {
		return err
	}

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		agent.runSampling(ctx, interval)
	}()
	go func() {
		defer workers.Done()
		agent.runRetention(ctx, cfg.Agent.RetentionDays)
	}()

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(ctx)
	}()

	logger.Info("gantry-agent running",
		"socket", cfg.Agent.SocketPath,
		"history", cfg.Agent.HistoryPath,
		"interval", interval,
		"version", version.Short(),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	// Drain active socket connections, then the workers.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	workers.Wait()
	return nil
}

// runExportCommand handles the "export" subcommand: seal a diagnostic
// bundle for a support recipient.
func runExportCommand(args []string) error {
	flags := pflag.NewFlagSet("gantry-agent export", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to gantry.yaml (overrides GANTRY_CONFIG)")
	outputPath := flags.String("output", "gantry-bundle.age", "output path for the sealed bundle")
	recipients := flags.StringArray("recipient", nil, "age public key of a bundle recipient (repeatable)")
	days := flags.Int("days", 0, "days of history to include (default: the retention window)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runExport(ctx, cfg, *outputPath, *recipients, *days, logger)
}

// runKeygenCommand handles "keygen": mint an age keypair for sealed
// bundles, identity to a file, recipient to stdout.
func runKeygenCommand(args []string) error {
	flags := pflag.NewFlagSet("gantry-agent keygen", pflag.ContinueOnError)
	outputPath := flags.String("output", "gantry-identity.txt", "output path for the identity file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	return runKeygen(*outputPath, os.Stdout)
}

// runInspectCommand handles "inspect": open a sealed bundle with an
// identity file and print its summary.
func runInspectCommand(args []string) error {
	flags := pflag.NewFlagSet("gantry-agent inspect", pflag.ContinueOnError)
	identityPath := flags.String("identity", "", "path to the age identity file (from keygen)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *identityPath == "" {
		return fmt.Errorf("--identity is required")
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: gantry-agent inspect --identity <key file> <bundle>")
	}
	return runInspect(flags.Arg(0), *identityPath, os.Stdout)
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLogger builds the agent's JSON logger. An empty path logs to
// stderr.
func openLogger(path string) (*slog.Logger, func(), error) {
	var sink io.Writer = os.Stderr
	cleanup := func() {}

	if path != "" {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
		}
		sink = file
		cleanup = func() { file.Close() }
	}

	return slog.New(slog.NewJSONHandler(sink, nil)), cleanup, nil
}
