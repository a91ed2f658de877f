// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the agent's single-writer SQLite pool.
//
// Gantry's storage profile is narrow: one process (the agent) owns the
// database, exactly one goroutine at a time writes (the sampler loop
// or the retention sweep), and the socket handlers only read. The pool
// encodes that shape instead of abstracting it away: [Pool.TakeWriter]
// hands out the one write connection, [Pool.Take] hands out read-only
// connections from a separate set, and the two never compete for the
// same slot.
//
// Connections are NOT safe for concurrent use — each goroutine must
// hold its own connection for the duration of its work.
//
// # Pragmas
//
// The writer connection is initialized with:
//
//   - journal_mode=WAL: write-ahead logging so reads never block the
//     writer and the writer never blocks reads. Persistent, so the
//     readers inherit it.
//   - synchronous=NORMAL: transactions survive process crashes. Not
//     durable across OS crashes or power failure — acceptable for
//     sample history, whose source of truth is the live agent anyway.
//   - busy_timeout=5000: wait up to 5 seconds for a lock instead of
//     returning SQLITE_BUSY immediately.
//   - foreign_keys=OFF: the history store manages referential
//     integrity explicitly (partition tables have no FK relations).
//   - cache_size=-8192, temp_store=MEMORY.
//
// Reader connections get query_only=ON on top of the shared pragmas,
// plus mmap_size=268435456 (256 MB memory-mapped I/O, which only pays
// off on the read path). query_only turns an accidental write on a
// reader into an immediate error.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:    "/var/lib/gantry/history.db",
//	    Readers: 4,
//	    Logger:  logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        // Runs on the writer connection only.
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.TakeWriter(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.PutWriter(conn)
//
// # Design
//
// This package is intentionally thin: it applies the pragmas and
// exposes the underlying zombiezen types directly. There is no query
// builder and no transaction wrapper. The history store writes SQL,
// uses sqlitex.Execute for cached statements, and manages transactions
// with sqlitex.ImmediateTransaction on the writer connection.
package sqlitepool
