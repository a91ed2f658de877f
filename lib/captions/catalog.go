// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package captions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tidwall/jsonc"
)

// DefaultFallback is the caption shown for candidate IDs that have no
// entry in the catalog.
const DefaultFallback = "Take a closer look."

// catalogFile is the on-disk JSONC schema.
type catalogFile struct {
	// Fallback overrides DefaultFallback for unmapped IDs.
	Fallback string `json:"fallback,omitempty"`

	// Captions maps candidate IDs to caption text.
	Captions map[string]string `json:"captions"`
}

// Catalog maps spotlight candidate IDs to caption text. Safe for
// concurrent use: the tour resolves captions from a timer goroutine
// while the watcher reloads the backing file.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	entries  map[string]string
	fallback string
}

// NewCatalog returns an empty in-memory catalog: every ID resolves to
// DefaultFallback. Used when no catalog file is configured.
func NewCatalog() *Catalog {
	return &Catalog{
		logger:   slog.New(slog.DiscardHandler),
		entries:  map[string]string{},
		fallback: DefaultFallback,
	}
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the catalog schema.
func Parse(data []byte) (map[string]string, string, error) {
	stripped := jsonc.ToJSON(data)

	var file catalogFile
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, "", fmt.Errorf("parsing caption catalog: %w", err)
	}

	fallback := file.Fallback
	if fallback == "" {
		fallback = DefaultFallback
	}
	return file.Captions, fallback, nil
}

// Load reads a JSONC catalog file. A missing file yields an empty
// catalog (every ID resolves to the fallback) rather than an error, so
// dashboards run without a catalog installed.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	catalog := &Catalog{
		path:     path,
		logger:   logger,
		entries:  map[string]string{},
		fallback: DefaultFallback,
	}
	if err := catalog.Reload(); err != nil {
		if os.IsNotExist(err) {
			return catalog, nil
		}
		return nil, err
	}
	return catalog, nil
}

// Reload re-reads the backing file. On parse failure the previous
// entries stay in effect and the error is returned.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	entries, fallback, err := Parse(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if entries == nil {
		entries = map[string]string{}
	}
	c.entries = entries
	c.fallback = fallback
	c.mu.Unlock()
	return nil
}

// Resolve returns the caption for a candidate ID, or the fallback for
// unmapped IDs. Implements the tour's caption resolver contract.
func (c *Catalog) Resolve(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if caption, ok := c.entries[id]; ok && caption != "" {
		return caption
	}
	return c.fallback
}

// Len returns the number of mapped IDs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
