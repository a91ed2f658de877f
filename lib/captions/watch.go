// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package captions

import (
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Watch starts an inotify watcher on the catalog file's parent
// directory and reloads the catalog when the file is rewritten or
// atomically replaced. The cleanup function stops the watcher.
//
// The parent directory is watched rather than the file itself because
// editors save via rename, which creates a new inode that a file-level
// watch on the old inode would miss.
func (c *Catalog) Watch() (func(), error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}

	parent := filepath.Dir(c.path)
	if _, err := unix.InotifyAddWatch(fd, parent,
		unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("watching caption catalog dir %q: %w", parent, err)
	}

	stopChannel := make(chan struct{})
	go c.watchLoop(fd, stopChannel)

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

// watchLoop polls the inotify fd, coalesces event bursts, and reloads.
// Poll runs with a 100ms timeout for responsive stop-channel checks.
// Events for sibling files in the directory trigger spurious reloads;
// reloading is cheap enough that filtering by name is not worth
// decoding the event records.
func (c *Catalog) watchLoop(fd int, stopChannel <-chan struct{}) {
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
			c.logger.Warn("caption watcher poll failed", "error", err)
			return
		}
		if count == 0 {
			continue
		}

		if _, err := unix.Read(fd, buffer); err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			c.logger.Warn("caption watcher read failed", "error", err)
			return
		}

		// Debounce editor save sequences (write temp, rename, chmod).
		time.Sleep(50 * time.Millisecond)
		for {
			if _, err := unix.Read(fd, buffer); err != nil {
				break
			}
		}

		if err := c.Reload(); err != nil {
			// Keep serving the previous captions; a later save retries.
			c.logger.Warn("caption catalog reload failed", "error", err)
		}
	}
}
