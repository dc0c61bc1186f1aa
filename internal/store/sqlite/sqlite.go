// Package sqlite is a point store backed by a local SQLite database.
//
// Points written through this Store are pushed to its update streams
// immediately. Writes by other processes sharing the database file are
// detected by polling PRAGMA data_version.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/relay"
	"github.com/roach88/fieldmap/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty database
// 1 - map_points table plus seq index
const currentSchemaVersion = 1

// DefaultPollInterval is how often foreign writes are checked for.
const DefaultPollInterval = time.Second

// Option configures a Store.
type Option func(*Store)

// WithPollInterval sets how often writes by other processes are detected.
// Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		s.pollInterval = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store persists points in SQLite.
type Store struct {
	db           *sql.DB
	logger       *slog.Logger
	pollInterval time.Duration

	changes *relay.Publish[struct{}]

	stop      chan struct{}
	poller    sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

var _ store.Store = (*Store)(nil)

// Open creates or opens a database at path and applies pragmas and
// migrations. Safe to call on an existing database.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time. A single connection also keeps
	// PRAGMA data_version meaningful: it only moves for other connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:           db,
		pollInterval: DefaultPollInterval,
		changes:      relay.NewPublish[struct{}](),
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.pollInterval > 0 {
		version, err := s.dataVersion(context.Background())
		if err != nil {
			db.Close()
			return nil, err
		}
		s.poller.Add(1)
		go s.poll(version)
	}

	return s, nil
}

// Updates implements store.Store.
func (s *Store) Updates(ctx context.Context) <-chan store.Update {
	return store.Feed(ctx, s.List, s.changes.Subscribe(), s.logger)
}

// Save implements store.Store. Upserts by id.
func (s *Store) Save(ctx context.Context, p point.MapPoint) error {
	record, err := store.EncodeRecord(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO map_points (id, record, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM map_points))
		ON CONFLICT(id) DO UPDATE SET
			record = excluded.record,
			seq = excluded.seq
	`, p.ID, string(record))
	if err != nil {
		return fmt.Errorf("save point %q: %w", p.ID, err)
	}

	s.logger.Debug("point saved", "id", p.ID, "type", p.Type.String())
	s.changes.Publish(struct{}{})
	return nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context) ([]point.MapPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM map_points
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		records = append(records, []byte(record))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}

	return store.DecodeRecords(records, s.logger)
}

// Close stops polling, ends every update stream and closes the database.
// Idempotent.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.poller.Wait()
		s.changes.Close()
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// poll publishes a change whenever another connection commits.
func (s *Store) poll(last int64) {
	defer s.poller.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			version, err := s.dataVersion(context.Background())
			if err != nil {
				s.logger.Warn("data_version poll failed", "error", err)
				continue
			}
			if version != last {
				last = version
				s.logger.Debug("foreign write detected", "data_version", version)
				s.changes.Publish(struct{}{})
			}
		}
	}
}

func (s *Store) dataVersion(ctx context.Context) (int64, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("query data_version: %w", err)
	}
	return version, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes the write counter.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_map_points_seq ON map_points(seq)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// schemaVersion reports PRAGMA user_version. Used for testing.
func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

// pragma reads a pragma value. Used for testing.
func (s *Store) pragma(name string) (string, error) {
	var value string
	err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value)
	return value, err
}
