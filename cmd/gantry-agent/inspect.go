// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gantry-foundation/gantry/lib/sealed"
	"github.com/gantry-foundation/gantry/lib/secret"
)

// writeIdentityFile writes a fresh age identity in the layout
// age-keygen uses, so the file round-trips through secret.ReadKeyFile
// and through age's own tooling.
func writeIdentityFile(path string, keypair *sealed.Keypair, now time.Time) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating identity file %s: %w", path, err)
	}

	header := fmt.Sprintf("# created: %s\n# public key: %s\n",
		now.UTC().Format(time.RFC3339), keypair.Recipient)
	if _, err := file.WriteString(header); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	if _, err := file.Write(keypair.Identity.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	if _, err := file.WriteString("\n"); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	return file.Close()
}

// runKeygen mints an age keypair for sealing bundles: the identity
// goes to a 0600 file, the recipient (safe to share) to out.
func runKeygen(outputPath string, out io.Writer) error {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return err
	}
	defer keypair.Close()

	if err := writeIdentityFile(outputPath, keypair, time.Now()); err != nil {
		return err
	}

	fmt.Fprintf(out, "identity written to %s\n", outputPath)
	fmt.Fprintf(out, "recipient: %s\n", keypair.Recipient)
	return nil
}

// runInspect opens a sealed bundle with an identity file and prints a
// summary. The bundle is decoded streaming, so inspecting a multi-day
// export does not hold its ciphertext and plaintext in memory at once.
func runInspect(bundlePath, identityPath string, out io.Writer) error {
	identity, err := secret.ReadKeyFile(identityPath)
	if err != nil {
		return fmt.Errorf("reading identity file: %w", err)
	}
	defer identity.Close()

	if err := sealed.ParsePrivateKey(identity); err != nil {
		return fmt.Errorf("identity file %s: %w", identityPath, err)
	}

	file, err := os.Open(bundlePath)
	if err != nil {
		return err
	}
	defer file.Close()

	opened, err := sealed.OpenSealed(file, identity)
	if err != nil {
		return err
	}

	var bundle exportBundle
	if err := json.NewDecoder(opened).Decode(&bundle); err != nil {
		return fmt.Errorf("decoding bundle: %w", err)
	}

	fmt.Fprintf(out, "host:       %s\n", bundle.Hostname)
	fmt.Fprintf(out, "version:    %s\n", bundle.Version)
	fmt.Fprintf(out, "generated:  %s\n", bundle.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "samples:    %d (storage: %d partitions, %d rows, %d bytes)\n",
		len(bundle.Samples),
		bundle.Storage.PartitionCount,
		bundle.Storage.SampleCount,
		bundle.Storage.DatabaseSizeBytes,
	)
	fmt.Fprintf(out, "workloads:  %d observations, %d live\n",
		len(bundle.Workloads), len(bundle.CurrentWorkloads))
	fmt.Fprintf(out, "models:     %d\n", len(bundle.Models))
	return nil
}
