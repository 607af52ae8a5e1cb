// Package referee orchestrates team submissions: it authenticates teams,
// checks session ownership, enforces the telemetry rate, validates and stores
// reports and answers with the rival snapshot.
package referee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iha-referee/backend/internal/aggregator"
	"github.com/iha-referee/backend/internal/competition"
	"github.com/iha-referee/backend/internal/events"
	"github.com/iha-referee/backend/internal/logging"
	"github.com/iha-referee/backend/internal/models"
	"github.com/iha-referee/backend/internal/observability"
	"github.com/iha-referee/backend/internal/ratelimit"
	"github.com/iha-referee/backend/internal/roster"
	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/storage"
	"github.com/iha-referee/backend/internal/validation"
	"github.com/labstack/gommon/log"
)

// Options configures a Service. Roster, Sessions, Store and Board are
// required.
type Options struct {
	Roster   *roster.Roster
	Sessions *session.Registry
	Store    storage.Store
	Board    *competition.Board
	Metrics  *observability.Collector

	RateInterval   time.Duration // default ratelimit.DefaultInterval
	SnapshotWindow time.Duration // default aggregator.DefaultWindow
	Now            func() time.Time
}

// Service is the referee core. Safe for concurrent use.
type Service struct {
	roster     *roster.Roster
	sessions   *session.Registry
	governor   *ratelimit.Governor
	store      storage.Store
	aggregator *aggregator.Aggregator
	events     *events.Log
	board      *competition.Board
	metrics    *observability.Collector
	now        func() time.Time
	logger     *log.Logger
}

// New creates a Service from opts.
func New(opts Options) (*Service, error) {
	switch {
	case opts.Roster == nil:
		return nil, errors.New("referee: roster is required")
	case opts.Sessions == nil:
		return nil, errors.New("referee: session registry is required")
	case opts.Store == nil:
		return nil, errors.New("referee: store is required")
	case opts.Board == nil:
		return nil, errors.New("referee: board is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		roster:     opts.Roster,
		sessions:   opts.Sessions,
		governor:   ratelimit.NewGovernor(opts.RateInterval),
		store:      opts.Store,
		aggregator: aggregator.New(opts.Store, opts.SnapshotWindow),
		events:     events.NewLogWithClock(opts.Store, now),
		board:      opts.Board,
		metrics:    opts.Metrics,
		now:        now,
		logger:     logging.New("referee"),
	}, nil
}

// Sessions returns the session registry.
func (s *Service) Sessions() *session.Registry {
	return s.sessions
}

// Governor returns the telemetry rate governor.
func (s *Service) Governor() *ratelimit.Governor {
	return s.governor
}

// Login authenticates a login request and binds identity to the team.
// Any decode failure is reported as roster.ErrAuthFailure.
func (s *Service) Login(_ context.Context, identity string, body []byte) (int, error) {
	creds, err := validation.DecodeLogin(body)
	if err != nil {
		s.reject(observability.KindLogin, roster.ErrAuthFailure)
		return 0, fmt.Errorf("%w: %v", roster.ErrAuthFailure, err)
	}

	teamID, err := s.roster.Authenticate(creds.Login, creds.Credential)
	if err != nil {
		s.reject(observability.KindLogin, err)
		s.logger.Warnf("failed login for %q from %s", creds.Login, identity)
		return 0, err
	}

	s.sessions.Bind(identity, teamID)
	s.metrics.ObserveSubmission(observability.KindLogin, outcomeAccepted)
	s.metrics.SetSessions(s.sessions.Len())
	s.logger.Infof("team %d logged in (%s)", teamID, creds.Login)
	return teamID, nil
}

// SubmitTelemetry runs a position report through the full pipeline and
// returns the server time and rival snapshot. The team's rate clock only
// advances when the report is stored.
func (s *Service) SubmitTelemetry(ctx context.Context, caller session.Caller, body []byte) (*models.TelemetryResponse, error) {
	rec, err := validation.DecodeTelemetry(body)
	if err != nil {
		return nil, s.reject(observability.KindTelemetry, err)
	}

	if _, err := s.sessions.Resolve(caller.Identity); err != nil {
		return nil, s.reject(observability.KindTelemetry, err)
	}
	if err := s.sessions.Authorize(caller, rec.TeamID); err != nil {
		return nil, s.reject(observability.KindTelemetry, err)
	}

	now := s.now()
	nowMs := now.UnixMilli()
	res, err := s.governor.Admit(rec.TeamID, nowMs)
	if err != nil {
		return nil, s.reject(observability.KindTelemetry, err)
	}
	defer res.Release()

	if err := validation.CheckRanges(rec); err != nil {
		return nil, s.reject(observability.KindTelemetry, err)
	}

	rec.ServerTimeMs = nowMs
	if err := s.store.AppendTelemetry(ctx, rec); err != nil {
		return nil, s.reject(observability.KindTelemetry, err)
	}
	res.Commit()

	rivals, err := s.aggregator.Snapshot(ctx, rec.TeamID, nowMs)
	if err != nil {
		s.logger.Errorf("team %d: %v", rec.TeamID, err)
		return nil, err
	}
	s.metrics.ObserveSubmission(observability.KindTelemetry, outcomeAccepted)
	s.metrics.ObserveSnapshot(len(rivals))
	s.logger.Debugf("telemetry team=%d seq=%d rivals=%d", rec.TeamID, rec.Seq, len(rivals))

	return &models.TelemetryResponse{
		ServerTime: models.NewServerTime(now),
		Rivals:     rivals,
	}, nil
}

// SubmitLock records a target-lock report for the caller's team.
func (s *Service) SubmitLock(ctx context.Context, caller session.Caller, body []byte) error {
	report, err := validation.DecodeLock(body)
	if err != nil {
		return s.reject(observability.KindLock, err)
	}
	teamID, err := s.sessions.Resolve(caller.Identity)
	if err != nil {
		return s.reject(observability.KindLock, err)
	}
	if _, err := s.events.RecordLock(ctx, teamID, report.EndTime, report.Autonomous); err != nil {
		return s.reject(observability.KindLock, err)
	}
	s.metrics.ObserveSubmission(observability.KindLock, outcomeAccepted)
	return nil
}

// SubmitDive records a terminal-dive report for the caller's team.
func (s *Service) SubmitDive(ctx context.Context, caller session.Caller, body []byte) error {
	report, err := validation.DecodeDive(body)
	if err != nil {
		return s.reject(observability.KindDive, err)
	}
	teamID, err := s.sessions.Resolve(caller.Identity)
	if err != nil {
		return s.reject(observability.KindDive, err)
	}
	if _, err := s.events.RecordDive(ctx, teamID, report.StartTime, report.EndTime, report.MarkerText); err != nil {
		return s.reject(observability.KindDive, err)
	}
	s.metrics.ObserveSubmission(observability.KindDive, outcomeAccepted)
	return nil
}

// ServerTime returns the current authority time.
func (s *Service) ServerTime() models.ServerTime {
	return models.NewServerTime(s.now())
}

// TargetLocation returns the visual marker location.
func (s *Service) TargetLocation() models.TargetLocation {
	return s.board.Target()
}

// HazardZones returns the active hazard zones stamped with the server time.
func (s *Service) HazardZones() models.HazardResponse {
	return models.HazardResponse{
		ServerTime: s.ServerTime(),
		Zones:      s.board.Hazards(),
	}
}

// Stats returns the store row counts.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	return s.store.Stats(ctx)
}

// reject counts a failed submission and returns err unchanged.
func (s *Service) reject(kind string, err error) error {
	outcome := Outcome(err)
	s.metrics.ObserveSubmission(kind, outcome)
	if outcome == outcomeError {
		s.logger.Errorf("%s submission failed: %v", kind, err)
	} else {
		s.logger.Debugf("%s rejected: %v", kind, err)
	}
	return err
}
