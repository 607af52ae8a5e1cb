package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iha-referee/backend/internal/models"
	"github.com/iha-referee/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAt(t *testing.T, s storage.Store, team int, serverMs int64, lat float64) {
	t.Helper()
	require.NoError(t, s.AppendTelemetry(context.Background(), &models.TelemetryRecord{
		TeamID:       team,
		Latitude:     lat,
		Longitude:    36.1,
		Altitude:     50,
		Yaw:          90,
		Speed:        20,
		ServerTimeMs: serverMs,
	}))
}

func TestSnapshot_ThreeTeams(t *testing.T) {
	s := storage.NewMemoryStore()
	agg := New(s, 0)
	assert.Equal(t, DefaultWindow, agg.Window())

	appendAt(t, s, 1, 0, 41.0)
	appendAt(t, s, 2, 100, 41.1)
	appendAt(t, s, 3, 200, 41.2)

	rivals, err := agg.Snapshot(context.Background(), 1, 200)
	require.NoError(t, err)
	require.Len(t, rivals, 2)
	assert.Equal(t, 2, rivals[0].TeamID)
	assert.Equal(t, int64(100), rivals[0].AgeMs)
	assert.Equal(t, 41.1, rivals[0].Latitude)
	assert.Equal(t, 3, rivals[1].TeamID)
	assert.Equal(t, int64(0), rivals[1].AgeMs)
}

func TestSnapshot_Window(t *testing.T) {
	s := storage.NewMemoryStore()
	agg := New(s, 5*time.Second)

	appendAt(t, s, 2, 1000, 41)
	appendAt(t, s, 3, 1001, 41)

	rivals, err := agg.Snapshot(context.Background(), 1, 6000)
	require.NoError(t, err)
	require.Len(t, rivals, 1, "a record exactly one window old is dropped")
	assert.Equal(t, 3, rivals[0].TeamID)
	assert.Equal(t, int64(4999), rivals[0].AgeMs)

	rivals, err = agg.Snapshot(context.Background(), 1, 7000)
	require.NoError(t, err)
	assert.Empty(t, rivals)
	assert.NotNil(t, rivals)
}

func TestSnapshot_UsesLatestRecordOnly(t *testing.T) {
	s := storage.NewMemoryStore()
	agg := New(s, 0)

	appendAt(t, s, 2, 100, 40.0)
	appendAt(t, s, 2, 600, 40.5)

	rivals, err := agg.Snapshot(context.Background(), 1, 1000)
	require.NoError(t, err)
	require.Len(t, rivals, 1)
	assert.Equal(t, 40.5, rivals[0].Latitude)
	assert.Equal(t, int64(400), rivals[0].AgeMs)
}

func TestSnapshot_ClampsFutureRecords(t *testing.T) {
	s := storage.NewMemoryStore()
	agg := New(s, 0)
	appendAt(t, s, 2, 1500, 40)

	rivals, err := agg.Snapshot(context.Background(), 1, 1000)
	require.NoError(t, err)
	require.Len(t, rivals, 1)
	assert.Equal(t, int64(0), rivals[0].AgeMs)
}

func TestSnapshot_OnlyRequester(t *testing.T) {
	s := storage.NewMemoryStore()
	agg := New(s, 0)
	appendAt(t, s, 7, 100, 40)

	rivals, err := agg.Snapshot(context.Background(), 7, 200)
	require.NoError(t, err)
	assert.Empty(t, rivals)
}

type failingSource struct{}

func (failingSource) LatestPerTeam(context.Context, int64) ([]models.TelemetryRecord, error) {
	return nil, storage.ErrUnavailable
}

func TestSnapshot_SourceError(t *testing.T) {
	_, err := New(failingSource{}, 0).Snapshot(context.Background(), 1, 0)
	assert.True(t, errors.Is(err, storage.ErrUnavailable))
}
