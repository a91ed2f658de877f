// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashui implements the workstation dashboard: a bubbletea
// model rendering live agent telemetry as a card grid (CPU, memory,
// one card per GPU, workloads, models) with a markdown detail pane,
// fuzzy filtering, a full-screen showcase mode, and the embedded
// spotlight tour that walks the cards after a period of inactivity.
//
// Data access goes through the Source interface. AgentSource serves a
// live gantry-agent socket; ReplaySource plays back a recorded frame
// file for demos and tests. Optional capabilities (history queries,
// workload control, loading progress) are discovered by type
// assertion on the source, so the UI degrades gracefully when a
// backend cannot provide them.
package dashui
