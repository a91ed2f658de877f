// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentsock implements the Unix-socket protocol between
// gantry-agent and its clients (gantry-dash, scripts). Requests and
// responses are length-prefixed CBOR frames; most actions are one
// request-response cycle per connection, while the tail action keeps
// the connection open and streams live samples.
package agentsock
