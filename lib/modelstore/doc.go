// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelstore maintains the registry of models installed on a
// workstation. Each model lives in its own directory under the models
// root, holding the weights files plus a manifest.json sidecar with
// display metadata. The store scans the root, verifies BLAKE3 digests,
// and watches the directory with inotify so new installs show up in
// the dashboard without a restart.
//
// The package also implements the pack container format used to move
// models between machines: chunked archives with per-chunk compression
// (LZ4, zstd, or BG4+LZ4 byte-group transposition for float32 tensor
// data) and optional XChaCha20-Poly1305 chunk encryption for
// license-protected weights.
package modelstore
