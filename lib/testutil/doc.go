// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Gantry packages.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. This exists because Unix domain sockets have a
// 108-byte path limit (sun_path in sockaddr_un) and CI runners set
// TMPDIR to deeply nested paths that exceed it, making t.TempDir()
// unsuitable for socket files. The directory is removed when the test
// completes.
//
// [RequireReceive] waits for a channel value under a wall-clock
// deadline. It is the one place in the test suite where real timeouts
// appear; everything timer-driven runs on lib/clock's fake.
package testutil
