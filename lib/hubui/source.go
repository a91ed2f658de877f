// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hubui

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/jsonc"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// HubSource supplies the hub's tenant state. The admin UI is
// read-only: mutations happen through the hub gateway, not here.
type HubSource interface {
	// Tenants returns the current tenant list, sorted by ID.
	Tenants() []schema.Tenant

	// Subscribe returns a channel that signals when the tenant state
	// changed. Nil when the source is static.
	Subscribe() <-chan struct{}

	// Close releases the source's watchers.
	Close() error
}

// hubStateFile is the on-disk schema shared by the JSONC and YAML
// encodings.
type hubStateFile struct {
	Tenants []schema.Tenant `json:"tenants" yaml:"tenants"`
}

// ParseState decodes a hub state document. The format follows the
// file extension: .yaml/.yml is YAML, anything else is JSONC.
func ParseState(path string, data []byte) ([]schema.Tenant, error) {
	var file hubStateFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing hub state %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return nil, fmt.Errorf("parsing hub state %s: %w", path, err)
		}
	}

	for index := range file.Tenants {
		if err := file.Tenants[index].Validate(); err != nil {
			return nil, fmt.Errorf("hub state %s: %w", path, err)
		}
	}
	sort.Slice(file.Tenants, func(i, j int) bool {
		return file.Tenants[i].ID < file.Tenants[j].ID
	})
	return file.Tenants, nil
}

// FileSource serves tenant state from a JSONC or YAML file, reloading
// on rewrite. It stands in for the hub gateway, which is out of scope
// for the admin UI.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	tenants []schema.Tenant

	subscribers []chan struct{}
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewFileSource loads the state file and starts the change watcher.
// Unlike a missing caption catalog, a missing state file is an error:
// an admin UI over no tenants is a misconfiguration.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	source := &FileSource{
		path:   path,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if err := source.reload(); err != nil {
		return nil, err
	}
	if err := source.watch(); err != nil {
		return nil, err
	}
	return source, nil
}

// Tenants returns the current tenant list.
func (s *FileSource) Tenants() []schema.Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenants := make([]schema.Tenant, len(s.tenants))
	copy(tenants, s.tenants)
	return tenants
}

// Subscribe returns a change-signal channel.
func (s *FileSource) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel := make(chan struct{}, 1)
	s.subscribers = append(s.subscribers, channel)
	return channel
}

// Close stops the watcher.
func (s *FileSource) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *FileSource) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading hub state: %w", err)
	}
	tenants, err := ParseState(s.path, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tenants = tenants
	subscribers := s.subscribers
	s.mu.Unlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- struct{}{}:
		default:
		}
	}
	return nil
}

// watch follows the caption catalog watcher's shape: inotify on the
// parent directory so editor rename-saves are seen.
func (s *FileSource) watch() error {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("inotify init: %w", err)
	}
	parent := filepath.Dir(s.path)
	if _, err := unix.InotifyAddWatch(fd, parent,
		unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO); err != nil {
		unix.Close(fd)
		return fmt.Errorf("watching hub state dir %q: %w", parent, err)
	}
	go s.watchLoop(fd)
	return nil
}

func (s *FileSource) watchLoop(fd int) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			s.logger.Warn("hub state watcher poll failed", "error", err)
			return
		}
		if count == 0 {
			continue
		}

		if _, err := unix.Read(fd, buffer); err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			s.logger.Warn("hub state watcher read failed", "error", err)
			return
		}

		// Debounce editor save sequences.
		time.Sleep(50 * time.Millisecond)
		for {
			if _, err := unix.Read(fd, buffer); err != nil {
				break
			}
		}

		if err := s.reload(); err != nil {
			// Keep serving the previous state; a later save retries.
			s.logger.Warn("hub state reload failed", "error", err)
		}
	}
}

// StaticHubSource is a fixed tenant list for tests.
type StaticHubSource struct {
	tenants []schema.Tenant
}

// NewStaticHubSource creates a source over a fixed tenant list.
func NewStaticHubSource(tenants []schema.Tenant) *StaticHubSource {
	sorted := make([]schema.Tenant, len(tenants))
	copy(sorted, tenants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &StaticHubSource{tenants: sorted}
}

// Tenants returns the fixed list.
func (s *StaticHubSource) Tenants() []schema.Tenant { return s.tenants }

// Subscribe returns nil: static data never changes.
func (s *StaticHubSource) Subscribe() <-chan struct{} { return nil }

// Close is a no-op.
func (s *StaticHubSource) Close() error { return nil }
