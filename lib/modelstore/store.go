// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// manifestFilename is the per-model sidecar with display metadata.
const manifestFilename = "manifest.json"

// Manifest is the sidecar file an installer drops next to the weights.
// All fields are optional; a model directory with no manifest still
// registers under its directory name.
type Manifest struct {
	Name             string `json:"name,omitempty"`
	ParameterCount   uint64 `json:"parameter_count,omitempty"`
	QuantizationBits int    `json:"quantization_bits,omitempty"`
}

// Store is the registry of installed models. Each immediate
// subdirectory of the models root is one model; the subdirectory name
// is the model ID. Rescan walks the root and rebuilds the registry;
// Watch keeps it current via inotify.
//
// Store is safe for concurrent use.
type Store struct {
	root   string
	logger *slog.Logger

	mu       sync.Mutex
	models   map[string]schema.ModelArtifact
	digests  map[string]digestCacheEntry
	onChange func([]schema.ModelArtifact)
}

// digestCacheEntry memoizes a weights-file digest keyed by path, so a
// rescan only re-hashes files that actually changed. Hashing a 40 GB
// GGUF on every inotify event would starve the sampler.
type digestCacheEntry struct {
	modTime time.Time
	size    int64
	digest  string
}

// NewStore creates a registry over the given models root. The root
// does not need to exist yet; Rescan treats a missing root as empty.
func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		root:    root,
		logger:  logger,
		models:  make(map[string]schema.ModelArtifact),
		digests: make(map[string]digestCacheEntry),
	}
}

// Root returns the models root path.
func (s *Store) Root() string {
	return s.root
}

// OnChange registers a callback invoked (from the watcher goroutine)
// whenever a rescan changes the registry. The callback receives the
// full sorted model list.
func (s *Store) OnChange(callback func([]schema.ModelArtifact)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = callback
}

// List returns the registered models sorted by ID.
func (s *Store) List() []schema.ModelArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	models := make([]schema.ModelArtifact, 0, len(s.models))
	for _, model := range s.models {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// Get returns one model by ID.
func (s *Store) Get(id string) (schema.ModelArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	model, ok := s.models[id]
	return model, ok
}

// MarkUsed records that a workload referenced the model. No-op for
// unknown IDs.
func (s *Store) MarkUsed(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	model, ok := s.models[id]
	if !ok {
		return
	}
	model.LastUsedAt = at
	s.models[id] = model
}

// Rescan walks the models root and rebuilds the registry. Returns
// true when the registry changed. A missing root yields an empty
// registry, not an error — the agent may start before the first
// model is installed.
func (s *Store) Rescan() (bool, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return false, fmt.Errorf("reading models root: %w", err)
		}
	}

	scanned := make(map[string]schema.ModelArtifact)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		model, err := s.scanModelDir(entry.Name())
		if err != nil {
			s.logger.Warn("skipping model directory",
				"model", entry.Name(), "error", err)
			continue
		}
		if model != nil {
			scanned[model.ID] = *model
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Preserve LastUsedAt across rescans; it is runtime state, not
	// filesystem state.
	for id, model := range scanned {
		if previous, ok := s.models[id]; ok {
			model.LastUsedAt = previous.LastUsedAt
			scanned[id] = model
		}
	}

	changed := !reflect.DeepEqual(s.models, scanned)
	s.models = scanned
	return changed, nil
}

// scanModelDir builds the registry entry for one model directory.
// Returns nil (no error) when the directory holds no recognizable
// weights file.
func (s *Store) scanModelDir(id string) (*schema.ModelArtifact, error) {
	directory := filepath.Join(s.root, id)
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("reading model directory: %w", err)
	}

	model := schema.ModelArtifact{
		ID:          id,
		Name:        id,
		Format:      schema.FormatUnknown,
		InstallPath: directory,
	}

	// The primary weights file is the largest file with a recognized
	// extension; its format and digest become the model's.
	var primaryPath string
	var primarySize int64
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == manifestFilename {
			continue
		}
		format := schema.FormatForExtension(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if format == schema.FormatUnknown {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		model.SizeBytes += uint64(info.Size())
		if info.Size() >= primarySize {
			primarySize = info.Size()
			primaryPath = filepath.Join(directory, entry.Name())
			model.Format = format
			if model.InstalledAt.IsZero() || info.ModTime().Before(model.InstalledAt) {
				model.InstalledAt = info.ModTime()
			}
		}
	}
	if primaryPath == "" {
		return nil, nil
	}

	digest, err := s.cachedDigest(primaryPath)
	if err != nil {
		return nil, err
	}
	model.Digest = digest

	if manifest, err := readManifest(filepath.Join(directory, manifestFilename)); err != nil {
		s.logger.Warn("unreadable model manifest", "model", id, "error", err)
	} else if manifest != nil {
		if manifest.Name != "" {
			model.Name = manifest.Name
		}
		model.ParameterCount = manifest.ParameterCount
		model.QuantizationBits = manifest.QuantizationBits
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

// cachedDigest returns the BLAKE3 digest of a weights file, rehashing
// only when the file's size or mtime changed since the last scan.
func (s *Store) cachedDigest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat weights file: %w", err)
	}

	s.mu.Lock()
	cached, ok := s.digests[path]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.digest, nil
	}

	digest, err := DigestFile(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.digests[path] = digestCacheEntry{modTime: info.ModTime(), size: info.Size(), digest: digest}
	s.mu.Unlock()
	return digest, nil
}

// VerifyDigest re-hashes a model's primary weights file and compares
// it against the registered digest. Used by "gantry-agent verify" and
// after pack unpacking.
func (s *Store) VerifyDigest(id string) error {
	model, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("model %q is not registered", id)
	}
	if model.Digest == "" {
		return fmt.Errorf("model %q has no recorded digest", id)
	}

	primaryPath, err := s.primaryWeightsPath(model)
	if err != nil {
		return err
	}
	digest, err := DigestFile(primaryPath)
	if err != nil {
		return err
	}
	if digest != model.Digest {
		return fmt.Errorf("model %q digest mismatch: weights file hashes to %s, registry has %s",
			id, digest, model.Digest)
	}
	return nil
}

// primaryWeightsPath finds the largest recognized weights file in a
// model's directory.
func (s *Store) primaryWeightsPath(model schema.ModelArtifact) (string, error) {
	entries, err := os.ReadDir(model.InstallPath)
	if err != nil {
		return "", fmt.Errorf("reading model directory: %w", err)
	}
	var path string
	var size int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if schema.FormatForExtension(strings.TrimPrefix(filepath.Ext(entry.Name()), ".")) == schema.FormatUnknown {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() >= size {
			size = info.Size()
			path = filepath.Join(model.InstallPath, entry.Name())
		}
	}
	if path == "" {
		return "", fmt.Errorf("model %q has no weights file", model.ID)
	}
	return path, nil
}

// readManifest parses a manifest.json sidecar. A missing file returns
// (nil, nil).
func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &manifest, nil
}

// notifyChange invokes the registered change callback with the
// current list. Called by the watcher after a rescan that changed the
// registry.
func (s *Store) notifyChange() {
	s.mu.Lock()
	callback := s.onChange
	s.mu.Unlock()
	if callback != nil {
		callback(s.List())
	}
}
