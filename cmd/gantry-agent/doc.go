// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// gantry-agent is the workstation sampling daemon. It collects
// CPU/memory/GPU telemetry and GPU workload observations on a fixed
// interval, stores them in a day-partitioned SQLite history database,
// and serves snapshots, history queries, and a live sample tail over
// a CBOR Unix socket for the dashboard.
//
// The "export" subcommand seals recent history plus a hardware and
// model inventory into an age-encrypted diagnostic bundle; "keygen"
// mints the identity/recipient pair for it, and "inspect" opens a
// bundle with the identity file and prints its summary.
package main
