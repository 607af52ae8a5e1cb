package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/iha-referee/backend/internal/logging"
	"github.com/marcboeker/go-duckdb"
)

// DuckDB executes one statement per call.
var duckSchema = []string{
	`CREATE SEQUENCE IF NOT EXISTS telemetry_seq START 1`,
	`CREATE TABLE IF NOT EXISTS telemetry (
		seq             BIGINT PRIMARY KEY DEFAULT nextval('telemetry_seq'),
		team_id         INTEGER NOT NULL,
		lat             DOUBLE NOT NULL,
		lon             DOUBLE NOT NULL,
		alt             DOUBLE NOT NULL,
		pitch           DOUBLE NOT NULL,
		yaw             DOUBLE NOT NULL,
		roll            DOUBLE NOT NULL,
		speed           DOUBLE NOT NULL,
		battery         DOUBLE NOT NULL,
		autonomous      BOOLEAN NOT NULL,
		locked          BOOLEAN NOT NULL,
		has_target      BOOLEAN NOT NULL,
		target_cx       INTEGER NOT NULL,
		target_cy       INTEGER NOT NULL,
		target_w        INTEGER NOT NULL,
		target_h        INTEGER NOT NULL,
		gps_hour        INTEGER NOT NULL,
		gps_minute      INTEGER NOT NULL,
		gps_second      INTEGER NOT NULL,
		gps_millisecond INTEGER NOT NULL,
		server_time_ms  BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lock_events (
		id             VARCHAR PRIMARY KEY,
		team_id        INTEGER NOT NULL,
		end_time       VARCHAR NOT NULL,
		autonomous     BOOLEAN NOT NULL,
		received_at_ms BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dive_events (
		id             VARCHAR PRIMARY KEY,
		team_id        INTEGER NOT NULL,
		start_time     VARCHAR NOT NULL,
		end_time       VARCHAR NOT NULL,
		marker_text    VARCHAR NOT NULL,
		received_at_ms BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		team_id    INTEGER PRIMARY KEY,
		login      VARCHAR NOT NULL,
		credential VARCHAR NOT NULL
	)`,
}

// DuckStore persists the tables in a DuckDB database file.
type DuckStore struct {
	sqlStore
	dbPath string
}

// OpenDuckStore opens or creates a DuckDB database at dbPath. An empty path
// opens an in-memory database. threads and memoryLimit tune the engine and
// fall back to 4 threads / 1GB when unset.
func OpenDuckStore(dbPath string, threads int, memoryLimit string) (*DuckStore, error) {
	logger := logging.New("duckdb")
	if threads <= 0 {
		threads = 4
	}
	if memoryLimit == "" {
		memoryLimit = "1GB"
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", memoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				logger.Errorf("pragma %q: %v", pragma, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	for _, stmt := range duckSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	where := dbPath
	if where == "" {
		where = "memory"
	}
	logger.Infof("opened database at %s (threads=%d, memory_limit=%s)", where, threads, memoryLimit)

	return &DuckStore{
		sqlStore: sqlStore{db: db, name: DriverDuckDB, logger: logger},
		dbPath:   dbPath,
	}, nil
}

// Path returns the database file, empty for in-memory stores.
func (ds *DuckStore) Path() string {
	return ds.dbPath
}
