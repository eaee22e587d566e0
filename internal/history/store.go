// Package history archives observed telemetry and run transitions in a
// DuckDB file for trend review. Routes are never persisted here; the
// archive records observations only.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/motion-console/backend/internal/models"
)

// telemetryBatchSize batches 1 Hz samples so the appender is exercised
// once a minute instead of per tick.
const telemetryBatchSize = 60

// TelemetrySample is one archived machine snapshot.
type TelemetrySample struct {
	Timestamp int64   `json:"timestamp" msgpack:"ts"`
	PosX      float64 `json:"posX" msgpack:"px"`
	PosY      float64 `json:"posY" msgpack:"py"`
	PosZ      float64 `json:"posZ" msgpack:"pz"`
	SpeedX    float64 `json:"speedX" msgpack:"sx"`
	SpeedY    float64 `json:"speedY" msgpack:"sy"`
	SpeedZ    float64 `json:"speedZ" msgpack:"sz"`
}

// RunEvent is one observed run-state transition.
type RunEvent struct {
	Timestamp int64  `json:"timestamp" msgpack:"ts"`
	Running   bool   `json:"running" msgpack:"run"`
	Paused    bool   `json:"paused" msgpack:"pau"`
	Route     string `json:"route" msgpack:"rt"`
	Index     int    `json:"index" msgpack:"idx"`
	Total     int    `json:"total" msgpack:"tot"`
	Error     string `json:"error,omitempty" msgpack:"err"`
}

// Store is the DuckDB-backed archive.
type Store struct {
	db     *sql.DB
	dbPath string

	mu      sync.Mutex
	batch   []TelemetrySample
	lastRun models.RunState
	haveRun bool
}

// NewStore opens (or creates) the archive database in dir.
func NewStore(dir string, threads int, memoryLimit string) (*Store, error) {
	dbPath := filepath.Join(dir, "console_history.duckdb")

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", memoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS telemetry (
			ts      BIGINT NOT NULL,
			pos_x   DOUBLE,
			pos_y   DOUBLE,
			pos_z   DOUBLE,
			speed_x DOUBLE,
			speed_y DOUBLE,
			speed_z DOUBLE
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create telemetry table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			ts      BIGINT NOT NULL,
			running BOOLEAN NOT NULL,
			paused  BOOLEAN NOT NULL,
			route   VARCHAR,
			idx     INTEGER,
			total   INTEGER,
			error   VARCHAR
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create run_events table: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
		batch:  make([]TelemetrySample, 0, telemetryBatchSize),
	}, nil
}

// Path returns the archive file location.
func (s *Store) Path() string {
	return s.dbPath
}

// AppendTelemetry archives one snapshot. Samples are batched; a flush
// failure is logged and the batch retried on the next flush point.
func (s *Store) AppendTelemetry(snap *models.MachineSnapshot) {
	sample := TelemetrySample{
		Timestamp: time.Now().UnixMilli(),
		PosX:      snap.Current.Position.X,
		PosY:      snap.Current.Position.Y,
		PosZ:      snap.Current.Position.Z,
		SpeedX:    snap.Current.Speed.X,
		SpeedY:    snap.Current.Speed.Y,
		SpeedZ:    snap.Current.Speed.Z,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = append(s.batch, sample)
	if len(s.batch) >= telemetryBatchSize {
		if err := s.flushLocked(); err != nil {
			fmt.Printf("[history] telemetry flush failed: %v\n", err)
		}
	}
}

// RecordRunState archives a run state when it differs from the last
// observed one, so the 1 Hz poll does not produce a row per tick.
func (s *Store) RecordRunState(state models.RunState) {
	s.mu.Lock()
	changed := !s.haveRun || state != s.lastRun
	s.lastRun = state
	s.haveRun = true
	s.mu.Unlock()
	if !changed {
		return
	}

	_, err := s.db.Exec(
		`INSERT INTO run_events (ts, running, paused, route, idx, total, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(), state.Running, state.Paused, state.Route, state.Index, state.Total, state.Error,
	)
	if err != nil {
		fmt.Printf("[history] run event insert failed: %v\n", err)
	}
}

// flushLocked writes the pending batch with the appender API. Callers
// hold s.mu.
func (s *Store) flushLocked() error {
	if len(s.batch) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "telemetry")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for _, sm := range s.batch {
			if err := appender.AppendRow(sm.Timestamp, sm.PosX, sm.PosY, sm.PosZ, sm.SpeedX, sm.SpeedY, sm.SpeedZ); err != nil {
				return fmt.Errorf("failed to append row: %w", err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return err
	}

	s.batch = s.batch[:0]
	return nil
}

// Flush forces pending samples to disk; used before queries and on
// shutdown.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// QueryTelemetry returns archived samples in [from, to] (Unix ms,
// zero values mean unbounded), oldest first, capped at limit.
func (s *Store) QueryTelemetry(ctx context.Context, from, to int64, limit int) ([]TelemetrySample, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1000
	}
	if to == 0 {
		to = time.Now().UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, pos_x, pos_y, pos_z, speed_x, speed_y, speed_z
		 FROM telemetry WHERE ts >= ? AND ts <= ? ORDER BY ts LIMIT ?`,
		from, to, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry query failed: %w", err)
	}
	defer rows.Close()

	samples := make([]TelemetrySample, 0, limit)
	for rows.Next() {
		var sm TelemetrySample
		if err := rows.Scan(&sm.Timestamp, &sm.PosX, &sm.PosY, &sm.PosZ, &sm.SpeedX, &sm.SpeedY, &sm.SpeedZ); err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// RunEvents returns the most recent run transitions, newest first.
func (s *Store) RunEvents(ctx context.Context, limit int) ([]RunEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, running, paused, route, idx, total, error
		 FROM run_events ORDER BY ts DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("run event query failed: %w", err)
	}
	defer rows.Close()

	events := make([]RunEvent, 0, limit)
	for rows.Next() {
		var ev RunEvent
		var route, errText sql.NullString
		if err := rows.Scan(&ev.Timestamp, &ev.Running, &ev.Paused, &route, &ev.Index, &ev.Total, &errText); err != nil {
			return nil, err
		}
		ev.Route = route.String
		ev.Error = errText.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// PruneOlderThan deletes archived rows older than the cutoff.
func (s *Store) PruneOlderThan(cutoff time.Time) error {
	ms := cutoff.UnixMilli()
	if _, err := s.db.Exec(`DELETE FROM telemetry WHERE ts < ?`, ms); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM run_events WHERE ts < ?`, ms)
	return err
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		fmt.Printf("[history] final flush failed: %v\n", err)
	}
	return s.db.Close()
}
