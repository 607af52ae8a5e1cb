package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iha-referee/backend/internal/competition"
	"github.com/iha-referee/backend/internal/config"
	"github.com/iha-referee/backend/internal/models"
	"github.com/iha-referee/backend/internal/observability"
	"github.com/iha-referee/backend/internal/roster"
	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/storage"
	"github.com/labstack/gommon/log"
)

// defaultTeam is registered when no roster file exists, so a single
// simulator can log in out of the box.
var defaultTeam = models.RosterEntry{Login: "rota_takim", Credential: "parola123", TeamID: 1}

// loadRoster reads the roster file and seeds the store's teams table.
func loadRoster(ctx context.Context, path string, store storage.Store, logger *log.Logger) (*roster.Roster, error) {
	var teams *roster.Roster
	_, statErr := os.Stat(path)
	switch {
	case path == "" || errors.Is(statErr, os.ErrNotExist):
		logger.Warnf("roster %q not found, registering default team %q", path, defaultTeam.Login)
		r, err := roster.New([]models.RosterEntry{defaultTeam})
		if err != nil {
			return nil, err
		}
		teams = r
	default:
		r, err := roster.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
		teams = r
		logger.Infof("%d teams loaded from %s", r.Len(), path)
	}

	if err := store.SeedRoster(ctx, teams.Entries()); err != nil {
		return nil, fmt.Errorf("failed to seed roster: %w", err)
	}
	return teams, nil
}

// loadBoard reads the published target and hazard zones, falling back to
// the configured target with no zones.
func loadBoard(cfg *config.AppConfig, logger *log.Logger) (*competition.Board, error) {
	target := models.TargetLocation{Lat: cfg.Competition.TargetLat, Lon: cfg.Competition.TargetLon}
	path := cfg.Competition.BoardFile
	if path == "" {
		return competition.NewBoard(target), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Infof("board %q not found, no hazard zones announced", path)
		return competition.NewBoard(target), nil
	}

	board, err := competition.LoadBoard(path, target)
	if err != nil {
		return nil, err
	}
	logger.Infof("%d hazard zones loaded from %s", len(board.Hazards()), path)
	return board, nil
}

// cleanupSessions drops idle sessions when a session timeout is configured.
func cleanupSessions(ctx context.Context, cfg *config.AppConfig, sessions *session.Registry, metrics *observability.Collector, logger *log.Logger) {
	timeout := cfg.SessionTimeout()
	interval := time.Duration(cfg.Session.CleanupIntervalMinutes) * time.Minute
	if timeout <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.CleanupExpired(timeout); n > 0 {
				logger.Infof("expired %d idle sessions", n)
			}
			metrics.SetSessions(sessions.Len())
		}
	}
}

// reloadBoardOnHangup re-reads the hazard zones on SIGHUP.
func reloadBoardOnHangup(ctx context.Context, path string, board *competition.Board, metrics *observability.Collector, logger *log.Logger) {
	if path == "" {
		return
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			n, err := board.Reload(path)
			if err != nil {
				logger.Errorf("hazard reload failed, keeping current zones: %v", err)
				continue
			}
			metrics.SetHazardZones(n)
			logger.Infof("announced %d hazard zones", n)
		}
	}
}
