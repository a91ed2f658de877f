// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening a pool. Path is required;
// all other fields have defaults.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. The file is created if it does not
	// exist.
	Path string

	// Readers is the number of read-only connections. If zero or
	// negative, defaults to max(runtime.NumCPU(), 4). The writer
	// connection is always exactly one and is not counted here.
	Readers int

	// Logger receives operational messages (pool open/close, pragma
	// errors). If nil, a no-op logger is used.
	Logger *slog.Logger

	// OnConnect is called on the writer connection after standard
	// pragmas are applied. Use it for schema creation and custom
	// function registration. Reader connections never see it: they
	// run with query_only=ON and cannot modify the schema.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a single-writer SQLite pool: one dedicated write connection
// plus a set of read-only connections, all in WAL mode. The agent's
// sampler is the only writer; the socket handlers only read. Keeping
// exactly one write connection means writers never contend with each
// other, and query_only=ON on the readers turns an accidental write
// on the wrong connection into an immediate error instead of a
// SQLITE_BUSY stall.
//
// Pool is safe for concurrent use. Individual connections are not —
// each goroutine must Take its own connection and return it when done.
type Pool struct {
	writer  *sqlitex.Pool
	readers *sqlitex.Pool
	logger  *slog.Logger
	path    string
}

// Open creates the pool. Connections are established lazily on first
// use; the database file is created by whichever connection touches
// it first. The caller must call Close when the pool is no longer
// needed.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	readerCount := cfg.Readers
	if readerCount <= 0 {
		readerCount = runtime.NumCPU()
		if readerCount < 4 {
			readerCount = 4
		}
	}

	writer, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: 1,
		PrepareConn: func(conn *sqlite.Conn) error {
			if err := applyPragmas(conn, writerPragmas); err != nil {
				return err
			}
			if cfg.OnConnect != nil {
				if err := cfg.OnConnect(conn); err != nil {
					return fmt.Errorf("sqlitepool: OnConnect: %w", err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}

	readers, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: readerCount,
		PrepareConn: func(conn *sqlite.Conn) error {
			return applyPragmas(conn, readerPragmas)
		},
	})
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("sqlitepool: opening readers for %s: %w", cfg.Path, err)
	}

	logger.Info("sqlite pool opened",
		"path", cfg.Path,
		"readers", readerCount,
	)

	return &Pool{
		writer:  writer,
		readers: readers,
		logger:  logger,
		path:    cfg.Path,
	}, nil
}

// Take borrows a read-only connection. Blocks until one is available
// or ctx is cancelled. Return it with Put, typically via defer.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.readers.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take reader: %w", err)
	}
	return conn, nil
}

// Put returns a read-only connection to the pool. Safe to call with
// nil (no-op). After Put, the caller must not use the connection.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.readers.Put(conn)
}

// TakeWriter borrows the write connection. Blocks until the previous
// writer returns it or ctx is cancelled. Return it with PutWriter.
func (p *Pool) TakeWriter(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.writer.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take writer: %w", err)
	}
	return conn, nil
}

// PutWriter returns the write connection. Safe to call with nil.
func (p *Pool) PutWriter(conn *sqlite.Conn) {
	p.writer.Put(conn)
}

// Close closes all connections, readers first so a draining writer
// transaction can still commit. Blocks until all borrowed connections
// are returned. After Close, Take and TakeWriter return errors.
func (p *Pool) Close() error {
	err := errors.Join(p.readers.Close(), p.writer.Close())
	if err != nil {
		p.logger.Error("sqlite pool close error",
			"path", p.path,
			"error", err,
		)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite pool closed", "path", p.path)
	return nil
}

// writerPragmas configure the single write connection. WAL mode is
// set here once; it is a database-level property that the readers
// inherit.
var writerPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA cache_size=-8192",
	"PRAGMA temp_store=MEMORY",
}

// readerPragmas configure read-only connections. query_only rejects
// any statement that would write, including schema changes.
var readerPragmas = []string{
	"PRAGMA query_only=ON",
	"PRAGMA busy_timeout=5000",
	"PRAGMA cache_size=-8192",
	"PRAGMA mmap_size=268435456",
	"PRAGMA temp_store=MEMORY",
}

func applyPragmas(conn *sqlite.Conn, pragmas []string) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}
	return nil
}
