// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Gantry's standard CBOR encoding
// configuration.
//
// Gantry uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: config-adjacent files, caption
//     catalogs, CLI output, and exported diagnostic manifests.
//   - CBOR for internal protocols: the agent socket protocol, sample
//     history blobs, and model container metadata.
//
// This package provides the shared CBOR encoding and decoding modes
// so that every Gantry package encodes identically without
// duplicating configuration. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes.
//
// For buffer-oriented operations (files, history blobs):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the agent socket):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or shown by CLI tooling. Examples:
//     socket frame envelopes, history blob internals.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: the lib/schema types,
//     which travel over the socket as CBOR and appear in CLI --json
//     output and exported bundles as JSON.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
