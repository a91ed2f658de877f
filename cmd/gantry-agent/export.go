// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/config"
	"github.com/gantry-foundation/gantry/lib/hwstat"
	"github.com/gantry-foundation/gantry/lib/modelstore"
	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/sealed"
	"github.com/gantry-foundation/gantry/lib/version"
)

// exportBundle is the plaintext payload of a sealed diagnostic
// bundle: a hardware inventory, the model registry, and the recent
// sample and workload history. Support staff decrypt it with the
// matching age identity.
type exportBundle struct {
	Hostname    string    `json:"hostname"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`

	Storage StorageStats `json:"storage"`

	CurrentSample    schema.MachineSample   `json:"current_sample"`
	CurrentWorkloads []schema.Workload      `json:"current_workloads,omitempty"`
	Models           []schema.ModelArtifact `json:"models,omitempty"`

	Samples   []schema.MachineSample `json:"samples,omitempty"`
	Workloads []WorkloadObservation  `json:"workloads,omitempty"`
}

// exportHistoryLimit bounds the bundle size. At a 2-second sample
// interval this covers roughly the last day at full resolution.
const exportHistoryLimit = 50000

// runExport builds and seals a diagnostic bundle. The history store
// is opened read-only alongside a possibly running agent; WAL mode
// makes the concurrent read safe.
func runExport(ctx context.Context, cfg *config.Config, outputPath string, recipients []string, days int, logger *slog.Logger) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one --recipient age public key is required")
	}
	for _, recipient := range recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", recipient, err)
		}
	}
	if days <= 0 {
		days = cfg.Agent.RetentionDays
	}

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

	now := clk.Now()
	from := now.Add(-time.Duration(days) * 24 * time.Hour)

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	samples, err := store.QuerySamples(ctx, from, now, exportHistoryLimit)
	if err != nil {
		return err
	}
	observations, err := store.QueryWorkloads(ctx, from, now, exportHistoryLimit)
	if err != nil {
		return err
	}

	hostname, _ := os.Hostname()
	bundle := exportBundle{
		Hostname:         hostname,
		Version:          version.Short(),
		GeneratedAt:      now,
		Storage:          stats,
		CurrentSample:    hwstat.NewSampler(logger).Sample(now),
		CurrentWorkloads: hwstat.NewWorkloadScanner().Scan(now),
		Samples:          samples,
		Workloads:        observations,
	}

	models := modelstore.NewStore(cfg.Paths.Models, logger)
	if _, err := models.Rescan(); err != nil {
		logger.Warn("model scan failed, bundle omits registry", "error", err)
	} else {
		bundle.Models = models.List()
	}

	output, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating bundle %s: %w", outputPath, err)
	}
	defer output.Close()

	sealer, err := sealed.SealWriter(output, recipients)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(sealer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(bundle); err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if err := sealer.Close(); err != nil {
		return fmt.Errorf("sealing bundle: %w", err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}

	logger.Info("diagnostic bundle sealed",
		"path", outputPath,
		"samples", len(samples),
		"recipients", len(recipients),
	)
	return nil
}
