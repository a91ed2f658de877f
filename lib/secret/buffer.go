// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds key material in memory the Go runtime never manages:
// an anonymous mmap region, locked into physical RAM so it cannot be
// swapped, excluded from core dumps, and zeroed before release. The
// garbage collector cannot copy or relocate it, so closing the buffer
// really does destroy the only durable copy.
//
// A Buffer must not be copied after creation. After Close, any read
// panics: key material outliving its buffer is a programming error,
// not a recoverable condition.
type Buffer struct {
	mu     sync.Mutex
	region []byte // nil once closed
	size   int
}

// New allocates a zero-filled buffer of the given size.
// The caller must Close it when the secret is no longer needed.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}

	region, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}

	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}

	// Best effort: MADV_DONTDUMP is missing on old kernels, and a key
	// that cannot be kept out of core dumps is still kept out of swap.
	_ = unix.Madvise(region, unix.MADV_DONTDUMP)

	return &Buffer{region: region, size: size}, nil
}

// NewFromBytes copies source into a new protected buffer and zeros
// source in place, so the caller's slice no longer holds the secret.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.region, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the secret data as a slice aliasing the mmap region.
// Do not retain it beyond the buffer's lifetime. Panics if closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		panic("secret: read from closed buffer")
	}
	return b.region[:b.size]
}

// String returns the secret as a string. Go strings are immutable
// heap copies, so use this only at API boundaries that demand a
// string (age key parsing). Prefer Bytes. Panics if closed.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		panic("secret: read from closed buffer")
	}
	return string(b.region[:b.size])
}

// Len returns the size of the secret data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Close zeros the contents, unlocks and unmaps the region. Idempotent.
// Unmap errors are returned but the buffer is unusable either way;
// the pages go back to the kernel at process exit regardless.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		return nil
	}

	Zero(b.region)
	region := b.region
	b.region = nil

	if err := unix.Munlock(region); err != nil {
		unix.Munmap(region)
		return fmt.Errorf("secret: munlock: %w", err)
	}
	if err := unix.Munmap(region); err != nil {
		return fmt.Errorf("secret: munmap: %w", err)
	}
	return nil
}

// Zero overwrites a byte slice with zeros. Use it on any heap slice
// that briefly held key material before it goes out of scope.
func Zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
