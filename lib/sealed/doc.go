// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed streams Gantry diagnostic bundles through age
// encryption. It wraps filippo.io/age with exactly the surface the
// agent's export/inspect flow needs:
//
//   - [GenerateKeypair] -- new age x25519 keypair; the identity lands
//     in a [secret.Buffer] (mmap memory outside the Go heap, locked
//     against swap, excluded from core dumps, zeroed on Close)
//   - [SealWriter] -- encrypting io.WriteCloser over the bundle file
//   - [OpenSealed] -- decrypting io.Reader over a sealed bundle
//   - [ParsePublicKey] / [ParsePrivateKey] -- early key validation
//
// Bundles are streamed in both directions, so a multi-day history
// export never holds plaintext and ciphertext in memory at once.
//
// Used by "gantry-agent export" (seal to support recipients),
// "gantry-agent inspect" (open with an identity file), and
// "gantry-agent keygen" (mint the identity/recipient pair).
//
// Depends on lib/secret for secure key memory.
package sealed
