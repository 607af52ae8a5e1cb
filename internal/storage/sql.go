package storage

import (
	"context"
	"database/sql"

	"github.com/iha-referee/backend/internal/models"
	"github.com/labstack/gommon/log"
)

const telemetryColumns = `seq, team_id, lat, lon, alt, pitch, yaw, roll, speed, battery,
	autonomous, locked, has_target, target_cx, target_cy, target_w, target_h,
	gps_hour, gps_minute, gps_second, gps_millisecond, server_time_ms`

const insertTelemetrySQL = `
	INSERT INTO telemetry (team_id, lat, lon, alt, pitch, yaw, roll, speed, battery,
		autonomous, locked, has_target, target_cx, target_cy, target_w, target_h,
		gps_hour, gps_minute, gps_second, gps_millisecond, server_time_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING seq`

// Latest row per team above the threshold; equal times go to the higher seq.
const latestPerTeamSQL = `
	SELECT ` + telemetryColumns + `
	FROM (
		SELECT *, ROW_NUMBER() OVER (
			PARTITION BY team_id ORDER BY server_time_ms DESC, seq DESC
		) AS rn
		FROM telemetry
		WHERE server_time_ms > ?
	) AS latest
	WHERE rn = 1
	ORDER BY team_id`

const statsSQL = `
	SELECT
		(SELECT COUNT(*) FROM telemetry),
		(SELECT COUNT(*) FROM lock_events),
		(SELECT COUNT(*) FROM dive_events),
		(SELECT COUNT(*) FROM teams)`

// sqlStore implements Store over database/sql. The SQLite and DuckDB
// backends differ only in how they open the database and in their DDL.
type sqlStore struct {
	db     *sql.DB
	name   string
	logger *log.Logger
}

func (s *sqlStore) AppendTelemetry(ctx context.Context, rec *models.TelemetryRecord) error {
	var box models.TargetBox
	hasTarget := rec.TargetBox != nil
	if hasTarget {
		box = *rec.TargetBox
	}

	err := s.db.QueryRowContext(ctx, insertTelemetrySQL,
		rec.TeamID, rec.Latitude, rec.Longitude, rec.Altitude,
		rec.Pitch, rec.Yaw, rec.Roll, rec.Speed, rec.Battery,
		rec.Autonomous, rec.Locked, hasTarget,
		box.CenterX, box.CenterY, box.Width, box.Height,
		rec.ClientTime.Hour, rec.ClientTime.Minute, rec.ClientTime.Second, rec.ClientTime.Millisecond,
		rec.ServerTimeMs,
	).Scan(&rec.Seq)
	if err != nil {
		s.logger.Errorf("append telemetry for team %d: %v", rec.TeamID, err)
		return unavailable("append telemetry", err)
	}
	return nil
}

func (s *sqlStore) LatestPerTeam(ctx context.Context, sinceMs int64) ([]models.TelemetryRecord, error) {
	rows, err := s.db.QueryContext(ctx, latestPerTeamSQL, sinceMs)
	if err != nil {
		return nil, unavailable("latest per team", err)
	}
	defer rows.Close()

	out := make([]models.TelemetryRecord, 0)
	for rows.Next() {
		rec, err := scanTelemetry(rows)
		if err != nil {
			return nil, unavailable("scan telemetry", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("latest per team", err)
	}
	return out, nil
}

func scanTelemetry(rows *sql.Rows) (models.TelemetryRecord, error) {
	var (
		rec       models.TelemetryRecord
		box       models.TargetBox
		hasTarget bool
	)
	err := rows.Scan(
		&rec.Seq, &rec.TeamID, &rec.Latitude, &rec.Longitude, &rec.Altitude,
		&rec.Pitch, &rec.Yaw, &rec.Roll, &rec.Speed, &rec.Battery,
		&rec.Autonomous, &rec.Locked, &hasTarget,
		&box.CenterX, &box.CenterY, &box.Width, &box.Height,
		&rec.ClientTime.Hour, &rec.ClientTime.Minute, &rec.ClientTime.Second, &rec.ClientTime.Millisecond,
		&rec.ServerTimeMs,
	)
	if err != nil {
		return rec, err
	}
	if hasTarget {
		rec.TargetBox = &box
	}
	return rec, nil
}

func (s *sqlStore) AppendLock(ctx context.Context, ev *models.LockEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lock_events (id, team_id, end_time, autonomous, received_at_ms) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.TeamID, ev.EndTime.String(), ev.Autonomous, ev.ReceivedAtMs)
	if err != nil {
		s.logger.Errorf("append lock event for team %d: %v", ev.TeamID, err)
		return unavailable("append lock", err)
	}
	return nil
}

func (s *sqlStore) AppendDive(ctx context.Context, ev *models.DiveEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dive_events (id, team_id, start_time, end_time, marker_text, received_at_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.TeamID, ev.StartTime.String(), ev.EndTime.String(), ev.MarkerText, ev.ReceivedAtMs)
	if err != nil {
		s.logger.Errorf("append dive event for team %d: %v", ev.TeamID, err)
		return unavailable("append dive", err)
	}
	return nil
}

func (s *sqlStore) SeedRoster(ctx context.Context, entries []models.RosterEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("seed roster", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO teams (team_id, login, credential) VALUES (?, ?, ?)`)
	if err != nil {
		return unavailable("seed roster", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.TeamID, e.Login, e.Credential); err != nil {
			return unavailable("seed roster", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("seed roster", err)
	}
	s.logger.Infof("roster seeded with %d teams", len(entries))
	return nil
}

func (s *sqlStore) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT team_id, login, credential FROM teams ORDER BY team_id`)
	if err != nil {
		return nil, unavailable("roster", err)
	}
	defer rows.Close()

	var out []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.TeamID, &e.Login, &e.Credential); err != nil {
			return nil, unavailable("roster", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("roster", err)
	}
	return out, nil
}

func (s *sqlStore) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, statsSQL).Scan(&st.Telemetry, &st.Locks, &st.Dives, &st.Teams)
	if err != nil {
		return st, unavailable("stats", err)
	}
	return st, nil
}

func (s *sqlStore) Close() error {
	s.logger.Infof("closing %s store", s.name)
	return s.db.Close()
}
