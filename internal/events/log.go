// Package events records target-lock and terminal-dive reports for later
// adjudication. Competitors cannot read the log back.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iha-referee/backend/internal/logging"
	"github.com/iha-referee/backend/internal/models"
	"github.com/labstack/gommon/log"
)

// Sink persists events.
type Sink interface {
	AppendLock(ctx context.Context, ev *models.LockEvent) error
	AppendDive(ctx context.Context, ev *models.DiveEvent) error
}

// Log is the append-only audit trail of lock and dive reports.
type Log struct {
	sink   Sink
	now    func() time.Time
	logger *log.Logger
}

// NewLog creates an event log writing to sink.
func NewLog(sink Sink) *Log {
	return NewLogWithClock(sink, time.Now)
}

// NewLogWithClock creates an event log that stamps events using now.
func NewLogWithClock(sink Sink, now func() time.Time) *Log {
	return &Log{sink: sink, now: now, logger: logging.New("events")}
}

// RecordLock appends a lock event for teamID.
func (l *Log) RecordLock(ctx context.Context, teamID int, end models.ClockTime, autonomous bool) (*models.LockEvent, error) {
	ev := &models.LockEvent{
		ID:           uuid.NewString(),
		TeamID:       teamID,
		EndTime:      end,
		Autonomous:   autonomous,
		ReceivedAtMs: l.now().UnixMilli(),
	}
	if err := l.sink.AppendLock(ctx, ev); err != nil {
		return nil, fmt.Errorf("record lock for team %d: %w", teamID, err)
	}
	l.logger.Infof("lock team=%d end=%s autonomous=%t id=%s", teamID, end, autonomous, ev.ID)
	return ev, nil
}

// RecordDive appends a dive event for teamID.
func (l *Log) RecordDive(ctx context.Context, teamID int, start, end models.ClockTime, marker string) (*models.DiveEvent, error) {
	ev := &models.DiveEvent{
		ID:           uuid.NewString(),
		TeamID:       teamID,
		StartTime:    start,
		EndTime:      end,
		MarkerText:   marker,
		ReceivedAtMs: l.now().UnixMilli(),
	}
	if err := l.sink.AppendDive(ctx, ev); err != nil {
		return nil, fmt.Errorf("record dive for team %d: %w", teamID, err)
	}
	l.logger.Infof("dive team=%d start=%s end=%s marker=%q id=%s", teamID, start, end, marker, ev.ID)
	return ev, nil
}
