// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package hubui implements the fleet hub administration TUI: a
// tenants table with member and usage panels for the selected
// tenant, read-only against a HubSource.
//
// The hub view embeds its own spotlight tour instance with its own
// candidate set and caption catalog, independent of the workstation
// dashboard's.
package hubui
