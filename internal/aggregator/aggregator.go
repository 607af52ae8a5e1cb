// Package aggregator builds the rival snapshot returned with every accepted
// telemetry submission.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/iha-referee/backend/internal/models"
)

// DefaultWindow is how far back a rival's last report is still relayed.
const DefaultWindow = 5 * time.Second

// Source provides the latest record per team.
type Source interface {
	LatestPerTeam(ctx context.Context, sinceMs int64) ([]models.TelemetryRecord, error)
}

// Aggregator computes windowed rival snapshots.
type Aggregator struct {
	source   Source
	windowMs int64
}

// New creates an aggregator. A non-positive window selects DefaultWindow.
func New(source Source, window time.Duration) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{source: source, windowMs: window.Milliseconds()}
}

// Window returns the configured snapshot window.
func (a *Aggregator) Window() time.Duration {
	return time.Duration(a.windowMs) * time.Millisecond
}

// Snapshot returns the latest position of every team other than requester
// that reported within the window ending at nowMs, ordered by team id.
func (a *Aggregator) Snapshot(ctx context.Context, requester int, nowMs int64) ([]models.RivalPosition, error) {
	latest, err := a.source.LatestPerTeam(ctx, nowMs-a.windowMs)
	if err != nil {
		return nil, fmt.Errorf("snapshot for team %d: %w", requester, err)
	}

	rivals := make([]models.RivalPosition, 0, len(latest))
	for _, rec := range latest {
		if rec.TeamID == requester {
			continue
		}
		age := nowMs - rec.ServerTimeMs
		if age < 0 {
			age = 0
		}
		rivals = append(rivals, models.RivalPosition{
			TeamID:    rec.TeamID,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Altitude:  rec.Altitude,
			Pitch:     rec.Pitch,
			Yaw:       rec.Yaw,
			Roll:      rec.Roll,
			Speed:     rec.Speed,
			AgeMs:     age,
		})
	}
	return rivals, nil
}
