// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package captions

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleCatalog = `{
	// Workstation dashboard tour captions.
	"fallback": "Worth a look.",
	"captions": {
		"gpu-0000:03:00.0": "Live utilization and VRAM for the primary GPU.",
		"memory": "System RAM and swap pressure.",
		"workloads": "Everything currently holding GPU memory.", // trailing comma ok
	},
}`

func TestParseJSONC(t *testing.T) {
	entries, fallback, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if fallback != "Worth a look." {
		t.Errorf("fallback = %q", fallback)
	}
	if entries["memory"] != "System RAM and swap pressure." {
		t.Errorf("memory caption = %q", entries["memory"])
	}
}

func TestParseMalformed(t *testing.T) {
	if _, _, err := Parse([]byte(`{"captions": [1, 2]}`)); err == nil {
		t.Fatal("expected error for malformed catalog")
	}
}

func TestResolveWithFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.jsonc")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := catalog.Resolve("memory"); got != "System RAM and swap pressure." {
		t.Errorf("mapped ID = %q", got)
	}
	if got := catalog.Resolve("unmapped-card"); got != "Worth a look." {
		t.Errorf("unmapped ID = %q, want file fallback", got)
	}
}

func TestLoadMissingFileYieldsEmptyCatalog(t *testing.T) {
	catalog, err := Load(filepath.Join(t.TempDir(), "absent.jsonc"), nil)
	if err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if catalog.Len() != 0 {
		t.Errorf("expected empty catalog, got %d entries", catalog.Len())
	}
	if got := catalog.Resolve("anything"); got != DefaultFallback {
		t.Errorf("fallback = %q, want %q", got, DefaultFallback)
	}
}

func TestReloadKeepsOldEntriesOnParseFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.jsonc")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := catalog.Reload(); err == nil {
		t.Fatal("expected reload error for broken file")
	}
	if got := catalog.Resolve("memory"); got != "System RAM and swap pressure." {
		t.Errorf("previous entries should survive a failed reload, got %q", got)
	}
}

func TestWatchReloadsOnRewrite(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "captions.jsonc")
	if err := os.WriteFile(path, []byte(`{"captions": {"a": "one"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop, err := catalog.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	// Atomic replace, the way editors save.
	temporary := filepath.Join(directory, ".captions.tmp")
	if err := os.WriteFile(temporary, []byte(`{"captions": {"a": "two"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(temporary, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if catalog.Resolve("a") == "two" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("caption not reloaded, still %q", catalog.Resolve("a"))
}
