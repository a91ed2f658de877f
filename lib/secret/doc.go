// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps key material in memory the Go runtime never
// manages.
//
// [Buffer] allocates an anonymous mmap region outside the Go heap,
// locks it into physical RAM via mlock (no swap), and asks the kernel
// to exclude it from core dumps (MADV_DONTDUMP, best effort). On
// Close, the region is zeroed, unlocked, and unmapped. Because the
// garbage collector never sees the region, it cannot copy or relocate
// it, and closing the buffer destroys the only durable copy.
//
// [New] allocates a zero-filled buffer; [NewFromBytes] copies a slice
// into protected memory and zeros the source. [ReadKeyFile] loads a
// key from an age-style key file (comment lines skipped). [Zero]
// scrubs heap slices that briefly held key material.
//
// Imported by lib/sealed for age identities and by lib/modelstore for
// per-model encryption keys.
package secret
