// Package storage persists the referee's append-only tables: telemetry,
// lock events, dive events and the team roster.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iha-referee/backend/internal/models"
)

// ErrUnavailable wraps every persistence failure.
var ErrUnavailable = errors.New("store unavailable")

// Store defines the persistence operations of the referee. Rows are never
// updated or deleted.
type Store interface {
	// AppendTelemetry stores rec and sets rec.Seq.
	AppendTelemetry(ctx context.Context, rec *models.TelemetryRecord) error
	// LatestPerTeam returns, for every team with a record newer than sinceMs,
	// its most recent such record ordered by team id. Equal server times are
	// resolved in favour of the later append.
	LatestPerTeam(ctx context.Context, sinceMs int64) ([]models.TelemetryRecord, error)
	AppendLock(ctx context.Context, ev *models.LockEvent) error
	AppendDive(ctx context.Context, ev *models.DiveEvent) error
	// SeedRoster inserts teams that are not stored yet.
	SeedRoster(ctx context.Context, entries []models.RosterEntry) error
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	Stats(ctx context.Context) (models.Stats, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// Config selects and tunes a backend.
type Config struct {
	Driver string
	Path   string // database file; empty means in-memory for SQL backends

	DuckDBThreads     int
	DuckDBMemoryLimit string
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		return NewMemoryStore(), nil
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverDuckDB:
		return OpenDuckStore(cfg.Path, cfg.DuckDBThreads, cfg.DuckDBMemoryLimit)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func copyRecord(rec models.TelemetryRecord) models.TelemetryRecord {
	if rec.TargetBox != nil {
		box := *rec.TargetBox
		rec.TargetBox = &box
	}
	return rec
}
