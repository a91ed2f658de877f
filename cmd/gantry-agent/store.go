// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/sqlitepool"
)

// Store manages SQLite storage for sample history. It handles
// time-partitioned tables (one set per day), batch writes, and
// retention-based cleanup. The partition scheme is an internal detail
// invisible to query callers.
//
// Write path: the sampling loop calls WriteSample once per tick.
// WriteSample inserts the machine row, its per-GPU rows, and the
// current workload observations in a single IMMEDIATE transaction,
// creating the day's partition tables on first write.
//
// Read path: QuerySamples searches across partitions in range,
// carrying the limit over between them. Callers see a flat result set
// with no partition boundaries.
//
// Retention: RunRetention drops partition tables older than the
// configured retention period. Called by a background ticker.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger

	// partitionMu serializes partition table creation and guards the
	// known-partition set.
	partitionMu     sync.Mutex
	knownPartitions map[string]bool // partition suffix → exists
}

// StoreConfig holds the parameters for opening a history store.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// Readers is the number of read-only connections in the pool.
	// Defaults to 4 if zero or negative. The writer is always one.
	Readers int

	// Clock provides the current time for partition naming and
	// retention decisions.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// OpenStore opens the history store, creating the database file if it
// does not exist. On open, the store discovers existing partition
// tables so that writes and queries include them immediately.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("history store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("history store: Logger is required")
	}

	readerCount := cfg.Readers
	if readerCount <= 0 {
		readerCount = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:    cfg.Path,
		Readers: readerCount,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	store := &Store{
		pool:            pool,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
		knownPartitions: make(map[string]bool),
	}

	// Discover existing partitions from a previous run.
	if err := store.discoverPartitions(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history store: discovering partitions: %w", err)
	}

	return store, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// WriteSample inserts one sample, its per-GPU rows, and the workloads
// observed alongside it. All rows land in the sample's day partition
// in a single IMMEDIATE transaction.
func (s *Store) WriteSample(ctx context.Context, sample *schema.MachineSample, workloads []schema.Workload) (err error) {
	conn, err := s.pool.TakeWriter(ctx)
	if err != nil {
		return fmt.Errorf("history store: write sample: %w", err)
	}
	defer s.pool.PutWriter(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("history store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	suffix := partitionSuffix(sample.TakenAt.UnixNano())
	if err := s.ensurePartition(conn, suffix); err != nil {
		return err
	}

	if err := s.insertSample(conn, suffix, sample); err != nil {
		return err
	}
	for i := range sample.GPUs {
		if err := s.insertGPU(conn, suffix, sample.TakenAt, &sample.GPUs[i]); err != nil {
			return err
		}
	}
	for i := range workloads {
		if err := s.insertWorkload(conn, suffix, sample.TakenAt, &workloads[i]); err != nil {
			return err
		}
	}

	return nil
}

// partitionSuffix returns the YYYYMMDD suffix for a Unix nanosecond
// timestamp.
func partitionSuffix(unixNanos int64) string {
	t := time.Unix(0, unixNanos).UTC()
	return t.Format("20060102")
}

// ensurePartition creates the day's partition tables if they don't
// exist. Safe to call concurrently — only one goroutine creates tables
// at a time.
func (s *Store) ensurePartition(conn *sqlite.Conn, suffix string) error {
	s.partitionMu.Lock()
	defer s.partitionMu.Unlock()

	if s.knownPartitions[suffix] {
		return nil
	}

	if err := sqlitex.ExecuteScript(conn, partitionSchema(suffix), nil); err != nil {
		return fmt.Errorf("history store: creating partition %s: %w", suffix, err)
	}

	s.knownPartitions[suffix] = true
	s.logger.Info("partition created", "suffix", suffix)
	return nil
}

// partitionSchema returns the CREATE TABLE and CREATE INDEX statements
// for a day partition.
func partitionSchema(suffix string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS samples_%[1]s (
			taken_at       INTEGER NOT NULL,
			hostname       TEXT NOT NULL,
			cpu_percent    REAL NOT NULL,
			load1          REAL NOT NULL,
			mem_total      INTEGER NOT NULL,
			mem_used       INTEGER NOT NULL,
			swap_total     INTEGER NOT NULL,
			swap_used      INTEGER NOT NULL,
			uptime_seconds INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_samples_%[1]s_time ON samples_%[1]s(taken_at);

		CREATE TABLE IF NOT EXISTS gpus_%[1]s (
			taken_at         INTEGER NOT NULL,
			pci_slot         TEXT NOT NULL,
			name             TEXT,
			vendor           TEXT,
			utilization      REAL NOT NULL,
			vram_total       INTEGER NOT NULL,
			vram_used        INTEGER NOT NULL,
			temperature_mdeg INTEGER NOT NULL,
			power_watts      REAL NOT NULL,
			clock_mhz        INTEGER NOT NULL,
			mem_clock_mhz    INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_gpus_%[1]s_time ON gpus_%[1]s(taken_at, pci_slot);

		CREATE TABLE IF NOT EXISTS workloads_%[1]s (
			observed_at   INTEGER NOT NULL,
			workload_id   TEXT NOT NULL,
			name          TEXT NOT NULL,
			kind          TEXT NOT NULL,
			principal     TEXT,
			state         TEXT NOT NULL,
			pid           INTEGER,
			model_id      TEXT,
			vram_reserved INTEGER NOT NULL,
			gpu_slots     TEXT,
			started_at    INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_workloads_%[1]s_time ON workloads_%[1]s(observed_at);
		CREATE INDEX IF NOT EXISTS idx_workloads_%[1]s_id ON workloads_%[1]s(workload_id, observed_at);
	`, suffix)
}

func (s *Store) insertSample(conn *sqlite.Conn, suffix string, sample *schema.MachineSample) error {
	query := fmt.Sprintf(`INSERT INTO samples_%s
		(taken_at, hostname, cpu_percent, load1, mem_total, mem_used,
		 swap_total, swap_used, uptime_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, suffix)

	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{
			sample.TakenAt.UnixNano(),
			sample.Hostname,
			sample.CPUPercent,
			sample.Load1,
			int64(sample.MemTotalBytes),
			int64(sample.MemUsedBytes),
			int64(sample.SwapTotalBytes),
			int64(sample.SwapUsedBytes),
			int64(sample.UptimeSeconds),
		},
	})
}

func (s *Store) insertGPU(conn *sqlite.Conn, suffix string, takenAt time.Time, gpu *schema.GPUSample) error {
	query := fmt.Sprintf(`INSERT INTO gpus_%s
		(taken_at, pci_slot, name, vendor, utilization, vram_total,
		 vram_used, temperature_mdeg, power_watts, clock_mhz,
		 mem_clock_mhz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, suffix)

	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{
			takenAt.UnixNano(),
			gpu.PCISlot,
			gpu.Name,
			gpu.Vendor,
			gpu.UtilizationPercent,
			int64(gpu.VRAMTotalBytes),
			int64(gpu.VRAMUsedBytes),
			gpu.TemperatureMillidegrees,
			gpu.PowerDrawWatts,
			int64(gpu.ClockMHz),
			int64(gpu.MemClockMHz),
		},
	})
}

func (s *Store) insertWorkload(conn *sqlite.Conn, suffix string, observedAt time.Time, workload *schema.Workload) error {
	var gpuSlotsJSON any
	if len(workload.GPUSlots) > 0 {
		data, err := json.Marshal(workload.GPUSlots)
		if err != nil {
			return fmt.Errorf("history store: marshal gpu slots: %w", err)
		}
		gpuSlotsJSON = string(data)
	}

	var startedAt any
	if !workload.StartedAt.IsZero() {
		startedAt = workload.StartedAt.UnixNano()
	}

	query := fmt.Sprintf(`INSERT INTO workloads_%s
		(observed_at, workload_id, name, kind, principal, state, pid,
		 model_id, vram_reserved, gpu_slots, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, suffix)

	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{
			observedAt.UnixNano(),
			workload.ID,
			workload.Name,
			string(workload.Kind),
			workload.Principal,
			string(workload.State),
			workload.PID,
			workload.ModelID,
			int64(workload.VRAMReservedBytes),
			gpuSlotsJSON,
			startedAt,
		},
	})
}

// discoverPartitions finds existing partition tables from a previous
// run. Called once during OpenStore.
func (s *Store) discoverPartitions() error {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"SELECT name FROM sqlite_master WHERE type='table' AND name LIKE 'samples_%'",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				suffix := strings.TrimPrefix(stmt.ColumnText(0), "samples_")
				s.knownPartitions[suffix] = true
				return nil
			},
		})
	if err != nil {
		return err
	}

	if len(s.knownPartitions) > 0 {
		s.logger.Info("discovered existing partitions",
			"count", len(s.knownPartitions),
		)
	}

	return nil
}

// RunRetention drops partition tables older than retentionDays. Safe
// to call from a background ticker.
func (s *Store) RunRetention(ctx context.Context, retentionDays int) error {
	conn, err := s.pool.TakeWriter(ctx)
	if err != nil {
		return fmt.Errorf("history store: retention: %w", err)
	}
	defer s.pool.PutWriter(conn)

	now := s.clock.Now().UTC()
	retention := time.Duration(retentionDays) * 24 * time.Hour

	s.partitionMu.Lock()
	defer s.partitionMu.Unlock()

	for suffix := range s.knownPartitions {
		partitionDate, err := time.Parse("20060102", suffix)
		if err != nil {
			s.logger.Warn("retention: unparseable partition suffix",
				"suffix", suffix,
				"error", err,
			)
			continue
		}

		// A partition covers its entire day, so it expires retention +
		// 24h after its date.
		age := now.Sub(partitionDate)
		if age <= retention+24*time.Hour {
			continue
		}

		for _, table := range []string{
			"samples_" + suffix,
			"gpus_" + suffix,
			"workloads_" + suffix,
		} {
			dropQuery := "DROP TABLE IF EXISTS " + table
			if err := sqlitex.ExecuteTransient(conn, dropQuery, nil); err != nil {
				s.logger.Error("retention: failed to drop table",
					"table", table,
					"error", err,
				)
				continue
			}
		}

		delete(s.knownPartitions, suffix)
		s.logger.Info("partition dropped by retention",
			"suffix", suffix,
			"age", age.Round(time.Hour),
		)
	}

	return nil
}

// activePartitions returns the known partition suffixes sorted oldest
// first, matching the oldest-first ordering of history queries.
func (s *Store) activePartitions() []string {
	s.partitionMu.Lock()
	partitions := make([]string, 0, len(s.knownPartitions))
	for suffix := range s.knownPartitions {
		partitions = append(partitions, suffix)
	}
	s.partitionMu.Unlock()

	sort.Strings(partitions)
	return partitions
}

// partitionsInRange returns partition suffixes that overlap with the
// given time range. A zero bound is open on that side.
func (s *Store) partitionsInRange(startNanos, endNanos int64) []string {
	all := s.activePartitions()
	if startNanos == 0 && endNanos == 0 {
		return all
	}

	var filtered []string
	for _, suffix := range all {
		partitionDate, err := time.Parse("20060102", suffix)
		if err != nil {
			continue
		}
		// The partition covers [partitionDate 00:00:00, +24h).
		partitionStart := partitionDate.UnixNano()
		partitionEnd := partitionDate.Add(24 * time.Hour).UnixNano()

		if startNanos != 0 && partitionEnd <= startNanos {
			continue
		}
		if endNanos != 0 && partitionStart >= endNanos {
			continue
		}
		filtered = append(filtered, suffix)
	}
	return filtered
}

// defaultQueryLimit bounds a history query when the caller does not
// set a limit.
const defaultQueryLimit = 1000

// QuerySamples returns samples in [from, until], oldest first, with
// their per-GPU rows reattached. Zero bounds are open; limit 0 means
// the default.
func (s *Store) QuerySamples(ctx context.Context, from, until time.Time, limit int) ([]schema.MachineSample, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("history store: query samples: %w", err)
	}
	defer s.pool.Put(conn)

	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var startNanos, endNanos int64
	if !from.IsZero() {
		startNanos = from.UnixNano()
	}
	if !until.IsZero() {
		endNanos = until.UnixNano()
	}

	partitions := s.partitionsInRange(startNanos, endNanos)
	if len(partitions) == 0 {
		return nil, nil
	}

	var results []schema.MachineSample
	for _, suffix := range partitions {
		if len(results) >= limit {
			break
		}
		samples, err := s.querySamplePartition(conn, suffix, startNanos, endNanos, limit-len(results))
		if err != nil {
			return nil, err
		}
		results = append(results, samples...)
	}

	return results, nil
}

func (s *Store) querySamplePartition(conn *sqlite.Conn, suffix string, startNanos, endNanos int64, limit int) ([]schema.MachineSample, error) {
	var conditions []string
	var args []any

	if startNanos > 0 {
		conditions = append(conditions, "taken_at >= ?")
		args = append(args, startNanos)
	}
	if endNanos > 0 {
		conditions = append(conditions, "taken_at <= ?")
		args = append(args, endNanos)
	}

	query := "SELECT taken_at, hostname, cpu_percent, load1, mem_total, " +
		"mem_used, swap_total, swap_used, uptime_seconds FROM samples_" + suffix
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY taken_at ASC LIMIT ?"
	args = append(args, limit)

	var samples []schema.MachineSample
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			samples = append(samples, schema.MachineSample{
				TakenAt:        time.Unix(0, stmt.ColumnInt64(0)).UTC(),
				Hostname:       stmt.ColumnText(1),
				CPUPercent:     stmt.ColumnFloat(2),
				Load1:          stmt.ColumnFloat(3),
				MemTotalBytes:  uint64(stmt.ColumnInt64(4)),
				MemUsedBytes:   uint64(stmt.ColumnInt64(5)),
				SwapTotalBytes: uint64(stmt.ColumnInt64(6)),
				SwapUsedBytes:  uint64(stmt.ColumnInt64(7)),
				UptimeSeconds:  uint64(stmt.ColumnInt64(8)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history store: query samples_%s: %w", suffix, err)
	}

	for i := range samples {
		gpus, err := s.queryGPURows(conn, suffix, samples[i].TakenAt.UnixNano())
		if err != nil {
			return nil, err
		}
		samples[i].GPUs = gpus
	}
	return samples, nil
}

func (s *Store) queryGPURows(conn *sqlite.Conn, suffix string, takenAtNanos int64) ([]schema.GPUSample, error) {
	query := "SELECT pci_slot, name, vendor, utilization, vram_total, " +
		"vram_used, temperature_mdeg, power_watts, clock_mhz, mem_clock_mhz " +
		"FROM gpus_" + suffix + " WHERE taken_at = ? ORDER BY pci_slot ASC"

	var gpus []schema.GPUSample
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{takenAtNanos},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			gpus = append(gpus, schema.GPUSample{
				PCISlot:                 stmt.ColumnText(0),
				Name:                    stmt.ColumnText(1),
				Vendor:                  stmt.ColumnText(2),
				UtilizationPercent:      stmt.ColumnFloat(3),
				VRAMTotalBytes:          uint64(stmt.ColumnInt64(4)),
				VRAMUsedBytes:           uint64(stmt.ColumnInt64(5)),
				TemperatureMillidegrees: stmt.ColumnInt64(6),
				PowerDrawWatts:          stmt.ColumnFloat(7),
				ClockMHz:                uint64(stmt.ColumnInt64(8)),
				MemClockMHz:             uint64(stmt.ColumnInt64(9)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history store: query gpus_%s: %w", suffix, err)
	}
	return gpus, nil
}

// WorkloadObservation is one stored workload row with the observation
// timestamp it was recorded under.
type WorkloadObservation struct {
	ObservedAt time.Time       `json:"observed_at"`
	Workload   schema.Workload `json:"workload"`
}

// QueryWorkloads returns workload observations in [from, until],
// oldest first. Used by the export bundle.
func (s *Store) QueryWorkloads(ctx context.Context, from, until time.Time, limit int) ([]WorkloadObservation, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("history store: query workloads: %w", err)
	}
	defer s.pool.Put(conn)

	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var startNanos, endNanos int64
	if !from.IsZero() {
		startNanos = from.UnixNano()
	}
	if !until.IsZero() {
		endNanos = until.UnixNano()
	}

	partitions := s.partitionsInRange(startNanos, endNanos)

	var results []WorkloadObservation
	for _, suffix := range partitions {
		if len(results) >= limit {
			break
		}
		rows, err := s.queryWorkloadPartition(conn, suffix, startNanos, endNanos, limit-len(results))
		if err != nil {
			return nil, err
		}
		results = append(results, rows...)
	}
	return results, nil
}

func (s *Store) queryWorkloadPartition(conn *sqlite.Conn, suffix string, startNanos, endNanos int64, limit int) ([]WorkloadObservation, error) {
	var conditions []string
	var args []any

	if startNanos > 0 {
		conditions = append(conditions, "observed_at >= ?")
		args = append(args, startNanos)
	}
	if endNanos > 0 {
		conditions = append(conditions, "observed_at <= ?")
		args = append(args, endNanos)
	}

	query := "SELECT observed_at, workload_id, name, kind, principal, state, " +
		"pid, model_id, vram_reserved, gpu_slots, started_at FROM workloads_" + suffix
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY observed_at ASC LIMIT ?"
	args = append(args, limit)

	var observations []WorkloadObservation
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			observation := WorkloadObservation{
				ObservedAt: time.Unix(0, stmt.ColumnInt64(0)).UTC(),
				Workload: schema.Workload{
					ID:                stmt.ColumnText(1),
					Name:              stmt.ColumnText(2),
					Kind:              schema.WorkloadKind(stmt.ColumnText(3)),
					Principal:         stmt.ColumnText(4),
					State:             schema.WorkloadState(stmt.ColumnText(5)),
					PID:               stmt.ColumnInt(6),
					ModelID:           stmt.ColumnText(7),
					VRAMReservedBytes: uint64(stmt.ColumnInt64(8)),
				},
			}
			if !stmt.ColumnIsNull(9) {
				slotsJSON := stmt.ColumnText(9)
				if err := json.Unmarshal([]byte(slotsJSON), &observation.Workload.GPUSlots); err != nil {
					return fmt.Errorf("unmarshal gpu slots: %w", err)
				}
			}
			if !stmt.ColumnIsNull(10) {
				observation.Workload.StartedAt = time.Unix(0, stmt.ColumnInt64(10)).UTC()
			}
			observations = append(observations, observation)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history store: query workloads_%s: %w", suffix, err)
	}
	return observations, nil
}

// StorageStats summarizes the store for status responses and the
// export bundle.
type StorageStats struct {
	PartitionCount    int    `json:"partition_count"`
	OldestPartition   string `json:"oldest_partition,omitempty"`
	NewestPartition   string `json:"newest_partition,omitempty"`
	SampleCount       int64  `json:"sample_count"`
	DatabaseSizeBytes int64  `json:"database_size_bytes"`
}

// Stats returns current storage statistics.
func (s *Store) Stats(ctx context.Context) (StorageStats, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return StorageStats{}, fmt.Errorf("history store: stats: %w", err)
	}
	defer s.pool.Put(conn)

	partitions := s.activePartitions()
	stats := StorageStats{PartitionCount: len(partitions)}
	if len(partitions) > 0 {
		stats.OldestPartition = partitions[0]
		stats.NewestPartition = partitions[len(partitions)-1]
	}

	err = sqlitex.Execute(conn,
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stats.DatabaseSizeBytes = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return stats, fmt.Errorf("history store: database size: %w", err)
	}

	for _, suffix := range partitions {
		count, err := tableRowCount(conn, "samples_"+suffix)
		if err != nil {
			return stats, err
		}
		stats.SampleCount += count
	}
	return stats, nil
}

func tableRowCount(conn *sqlite.Conn, tableName string) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + tableName
	err := sqlitex.ExecuteTransient(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("history store: count %s: %w", tableName, err)
	}
	return count, nil
}
