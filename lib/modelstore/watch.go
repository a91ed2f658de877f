// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Watch performs an initial rescan and starts an inotify watcher on
// the models root and every model subdirectory, rescanning on writes
// and renames. The cleanup function stops the watcher and closes the
// inotify fd.
//
// Watching directories (not files) catches atomic installs: tools
// that download to a temp name and rename create a new inode, which a
// file-level watch on the old inode would miss.
func (s *Store) Watch() (func(), error) {
	if _, err := s.Rescan(); err != nil {
		return nil, err
	}

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}

	if err := addModelWatches(fd, s.root); err != nil {
		unix.Close(fd)
		return nil, err
	}

	stopChannel := make(chan struct{})
	go s.watchLoop(fd, stopChannel)

	cleanedUp := false
	cleanup := func() {
		if cleanedUp {
			return
		}
		cleanedUp = true
		close(stopChannel)
	}
	return cleanup, nil
}

// addModelWatches registers the root and each current model
// subdirectory. IN_CLOSE_WRITE catches in-place writes finishing;
// IN_MOVED_TO catches atomic renames; IN_CREATE on the root catches
// new model directories appearing so the next pass can watch them.
func addModelWatches(fd int, root string) error {
	if _, err := unix.InotifyAddWatch(fd, root,
		unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO|unix.IN_CREATE|unix.IN_DELETE); err != nil {
		return fmt.Errorf("watching models root: %w", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading models root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Adding a watch for an already-watched directory replaces
		// the mask, so re-adding after each rescan is harmless.
		if _, err := unix.InotifyAddWatch(fd, filepath.Join(root, entry.Name()),
			unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO|unix.IN_DELETE); err != nil {
			// The directory may have vanished between ReadDir and
			// the watch call.
			continue
		}
	}
	return nil
}

// watchLoop polls the inotify fd, coalesces event bursts, and
// rescans. Poll runs with a 100ms timeout for responsive
// stop-channel checks.
func (s *Store) watchLoop(fd int, stopChannel <-chan struct{}) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-stopChannel:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			// Fatal poll error: the watcher exits and the registry
			// degrades to the last scan.
			s.logger.Warn("model watcher poll failed", "error", err)
			return
		}
		if count == 0 {
			continue
		}

		if _, err := unix.Read(fd, buffer); err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			s.logger.Warn("model watcher read failed", "error", err)
			return
		}

		// Debounce: installs touch many files in quick succession
		// (weights, tokenizer, manifest). Wait 50ms and drain the
		// queue so one install triggers one rescan.
		time.Sleep(50 * time.Millisecond)
		drainInotifyEvents(fd, buffer)

		changed, err := s.Rescan()
		if err != nil {
			// The root might be mid-rename. The next event retries.
			s.logger.Warn("model rescan failed", "error", err)
			continue
		}
		// New model directories need their own watches for
		// subsequent in-place updates.
		if err := addModelWatches(fd, s.root); err != nil {
			s.logger.Warn("refreshing model watches failed", "error", err)
		}
		if changed {
			s.notifyChange()
		}
	}
}

// drainInotifyEvents reads and discards queued events until the fd
// would block.
func drainInotifyEvents(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
