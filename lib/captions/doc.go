// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package captions loads spotlight tour caption catalogs from JSONC
// files. A catalog maps candidate IDs (card IDs in the dashboards) to
// the explanatory text shown in the caption box while that card is
// highlighted. JSONC allows // comments and trailing commas, so
// catalogs can be annotated and hand-edited.
//
// A catalog can watch its backing file and reload on change, so
// caption text is tunable without restarting the dashboard.
package captions
