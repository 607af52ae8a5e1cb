// mock_storage.go - Fault-injecting store and fixtures for testing
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iha-referee/backend/internal/models"
	"github.com/iha-referee/backend/internal/storage"
)

// ErrInjected is the cause of every injected failure.
var ErrInjected = errors.New("injected failure")

// MockStorage wraps an in-memory store and can be told to fail operations.
type MockStorage struct {
	*storage.MemoryStore

	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

// Operation names accepted by FailOn.
const (
	OpAppendTelemetry = "AppendTelemetry"
	OpLatestPerTeam   = "LatestPerTeam"
	OpAppendLock      = "AppendLock"
	OpAppendDive      = "AppendDive"
	OpStats           = "Stats"
)

// NewMockStorage creates a mock backed by a fresh memory store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		MemoryStore: storage.NewMemoryStore(),
		fail:        make(map[string]bool),
		calls:       make(map[string]int),
	}
}

// FailOn makes op fail until Reset is called.
func (m *MockStorage) FailOn(ops ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		m.fail[op] = true
	}
}

// Reset clears all injected failures.
func (m *MockStorage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = make(map[string]bool)
}

// Calls returns how many times op was invoked.
func (m *MockStorage) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockStorage) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if m.fail[op] {
		return fmt.Errorf("%w: %s: %w", storage.ErrUnavailable, op, ErrInjected)
	}
	return nil
}

func (m *MockStorage) AppendTelemetry(ctx context.Context, rec *models.TelemetryRecord) error {
	if err := m.enter(OpAppendTelemetry); err != nil {
		return err
	}
	return m.MemoryStore.AppendTelemetry(ctx, rec)
}

func (m *MockStorage) LatestPerTeam(ctx context.Context, sinceMs int64) ([]models.TelemetryRecord, error) {
	if err := m.enter(OpLatestPerTeam); err != nil {
		return nil, err
	}
	return m.MemoryStore.LatestPerTeam(ctx, sinceMs)
}

func (m *MockStorage) AppendLock(ctx context.Context, ev *models.LockEvent) error {
	if err := m.enter(OpAppendLock); err != nil {
		return err
	}
	return m.MemoryStore.AppendLock(ctx, ev)
}

func (m *MockStorage) AppendDive(ctx context.Context, ev *models.DiveEvent) error {
	if err := m.enter(OpAppendDive); err != nil {
		return err
	}
	return m.MemoryStore.AppendDive(ctx, ev)
}

func (m *MockStorage) Stats(ctx context.Context) (models.Stats, error) {
	if err := m.enter(OpStats); err != nil {
		return models.Stats{}, err
	}
	return m.MemoryStore.Stats(ctx)
}

var _ storage.Store = (*MockStorage)(nil)
