package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iha-referee/backend/internal/models"
)

var errClosed = errors.New("store closed")

// MemoryStore keeps all tables in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	telemetry []models.TelemetryRecord
	latest    map[int]int // team id -> index into telemetry
	locks     []models.LockEvent
	dives     []models.DiveEvent
	teams     map[int]models.RosterEntry
	closed    bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		latest: make(map[int]int),
		teams:  make(map[int]models.RosterEntry),
	}
}

func (s *MemoryStore) AppendTelemetry(_ context.Context, rec *models.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable("append telemetry", errClosed)
	}

	rec.Seq = int64(len(s.telemetry)) + 1
	s.telemetry = append(s.telemetry, copyRecord(*rec))

	idx := len(s.telemetry) - 1
	if cur, ok := s.latest[rec.TeamID]; !ok || s.telemetry[cur].ServerTimeMs <= rec.ServerTimeMs {
		s.latest[rec.TeamID] = idx
	}
	return nil
}

func (s *MemoryStore) LatestPerTeam(_ context.Context, sinceMs int64) ([]models.TelemetryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, unavailable("latest per team", errClosed)
	}

	out := make([]models.TelemetryRecord, 0, len(s.latest))
	for _, idx := range s.latest {
		rec := s.telemetry[idx]
		if rec.ServerTimeMs > sinceMs {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (s *MemoryStore) AppendLock(_ context.Context, ev *models.LockEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable("append lock", errClosed)
	}
	s.locks = append(s.locks, *ev)
	return nil
}

func (s *MemoryStore) AppendDive(_ context.Context, ev *models.DiveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable("append dive", errClosed)
	}
	s.dives = append(s.dives, *ev)
	return nil
}

func (s *MemoryStore) SeedRoster(_ context.Context, entries []models.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable("seed roster", errClosed)
	}
	for _, e := range entries {
		if _, ok := s.teams[e.TeamID]; !ok {
			s.teams[e.TeamID] = e
		}
	}
	return nil
}

func (s *MemoryStore) Roster(_ context.Context) ([]models.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, unavailable("roster", errClosed)
	}

	out := make([]models.RosterEntry, 0, len(s.teams))
	for _, e := range s.teams {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (s *MemoryStore) Stats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return models.Stats{}, unavailable("stats", errClosed)
	}
	return models.Stats{
		Telemetry: int64(len(s.telemetry)),
		Locks:     int64(len(s.locks)),
		Dives:     int64(len(s.dives)),
		Teams:     int64(len(s.teams)),
	}, nil
}

// Telemetry returns a copy of every stored record in append order.
func (s *MemoryStore) Telemetry() []models.TelemetryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TelemetryRecord, len(s.telemetry))
	for i, rec := range s.telemetry {
		out[i] = copyRecord(rec)
	}
	return out
}

// Locks returns a copy of the stored lock events.
func (s *MemoryStore) Locks() []models.LockEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LockEvent(nil), s.locks...)
}

// Dives returns a copy of the stored dive events.
func (s *MemoryStore) Dives() []models.DiveEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DiveEvent(nil), s.dives...)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
