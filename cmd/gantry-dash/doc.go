// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// gantry-dash is the workstation dashboard: a full-screen terminal UI
// showing live hardware samples, running workloads, and the model
// registry, with an idle-triggered spotlight tour over the cards.
//
// By default it connects to the local gantry-agent socket. With
// --replay it plays back a recorded sample fixture instead, so the
// dashboard can be demonstrated without an agent running.
package main
