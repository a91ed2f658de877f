// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// gantry-hub is the fleet hub administration UI: a terminal view of
// tenants, their members, and their GPU usage windows, with the same
// idle-triggered spotlight tour as the workstation dashboard.
//
// Tenant state is read from a JSONC or YAML file (exported by the hub
// gateway) and reloaded live when the file is rewritten.
package main
