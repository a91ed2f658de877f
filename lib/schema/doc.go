// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines Gantry's workstation and hub data types:
// machine and GPU telemetry samples, running workloads, installed
// model artifacts, and the tenant/usage records shown by the hub
// admin UI.
//
// These types travel over the agent socket as CBOR and appear in CLI
// --json output and exported diagnostic bundles as JSON. JSON struct
// tags are used so that the fxamacker/cbor library's json-tag
// fallback provides identical field naming for both formats (see
// lib/codec doc.go for the tagging convention).
package schema
