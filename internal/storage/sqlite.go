package storage

import (
	"database/sql"
	"fmt"

	"github.com/iha-referee/backend/internal/logging"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS telemetry (
		seq             INTEGER PRIMARY KEY AUTOINCREMENT,
		team_id         INTEGER NOT NULL,
		lat             REAL NOT NULL,
		lon             REAL NOT NULL,
		alt             REAL NOT NULL,
		pitch           REAL NOT NULL,
		yaw             REAL NOT NULL,
		roll            REAL NOT NULL,
		speed           REAL NOT NULL,
		battery         REAL NOT NULL,
		autonomous      INTEGER NOT NULL,
		locked          INTEGER NOT NULL,
		has_target      INTEGER NOT NULL,
		target_cx       INTEGER NOT NULL,
		target_cy       INTEGER NOT NULL,
		target_w        INTEGER NOT NULL,
		target_h        INTEGER NOT NULL,
		gps_hour        INTEGER NOT NULL,
		gps_minute      INTEGER NOT NULL,
		gps_second      INTEGER NOT NULL,
		gps_millisecond INTEGER NOT NULL,
		server_time_ms  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_telemetry_server_time ON telemetry(server_time_ms);

	CREATE TABLE IF NOT EXISTS lock_events (
		id             TEXT PRIMARY KEY,
		team_id        INTEGER NOT NULL,
		end_time       TEXT NOT NULL,
		autonomous     INTEGER NOT NULL,
		received_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dive_events (
		id             TEXT PRIMARY KEY,
		team_id        INTEGER NOT NULL,
		start_time     TEXT NOT NULL,
		end_time       TEXT NOT NULL,
		marker_text    TEXT NOT NULL,
		received_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS teams (
		team_id    INTEGER PRIMARY KEY,
		login      TEXT NOT NULL,
		credential TEXT NOT NULL
	);
`

// SQLiteStore persists the tables in a SQLite database.
type SQLiteStore struct {
	sqlStore
}

// OpenSQLite opens or creates a SQLite database at path. An empty path opens
// a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	logger := logging.New("sqlite")

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Infof("opened database at %s", dsn)
	return &SQLiteStore{sqlStore{db: db, name: DriverSQLite, logger: logger}}, nil
}
