package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iha-referee/backend/internal/competition"
	"github.com/iha-referee/backend/internal/config"
	"github.com/iha-referee/backend/internal/logging"
	"github.com/iha-referee/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--roster", "teams.yaml", "--driver=duckdb", "-p", "6000"})
	require.NoError(t, err)
	assert.Equal(t, "teams.yaml", opts.rosterPath)
	assert.Equal(t, "duckdb", opts.driver)
	assert.Equal(t, 6000, opts.port)

	_, err = parseFlags([]string{"extra"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"--nope"})
	assert.Error(t, err)
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := loadConfig(&options{
		configPath: filepath.Join(dir, "RefereeServer.config"),
		driver:     "memory",
		port:       7001,
		boardPath:  "/etc/referee/board.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "RefereeServer.config"), path)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "/etc/referee/board.yaml", cfg.Competition.BoardFile)
}

func TestLoadRoster(t *testing.T) {
	logger := logging.New("test")
	ctx := context.Background()

	store := storage.NewMemoryStore()
	teams, err := loadRoster(ctx, filepath.Join(t.TempDir(), "missing.json"), store, logger)
	require.NoError(t, err)
	team, err := teams.Authenticate("rota_takim", "parola123")
	require.NoError(t, err)
	assert.Equal(t, 1, team)

	path := filepath.Join(t.TempDir(), "teams.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"kadi": "a", "sifre": "1", "takim_no": 4},
		{"kadi": "b", "sifre": "2", "takim_no": 5}
	]`), 0644))
	store = storage.NewMemoryStore()
	teams, err = loadRoster(ctx, path, store, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, teams.Len())
	seeded, err := store.Roster(ctx)
	require.NoError(t, err)
	assert.Len(t, seeded, 2)

	require.NoError(t, os.WriteFile(path, []byte(`[{"kadi": "a", "takim_no": 1}, {"kadi": "a", "takim_no": 2}]`), 0644))
	_, err = loadRoster(ctx, path, storage.NewMemoryStore(), logger)
	assert.Error(t, err)
}

func TestLoadBoard(t *testing.T) {
	logger := logging.New("test")
	cfg := config.DefaultConfig()
	cfg.Competition.BoardFile = filepath.Join(t.TempDir(), "missing.yaml")

	board, err := loadBoard(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, competition.DefaultTarget, board.Target())
	assert.Empty(t, board.Hazards())

	cfg.Competition.BoardFile = filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(cfg.Competition.BoardFile, []byte("hazards:\n  - {id: 1, lat: 41.513, lon: 36.12, radius: 50}\n"), 0644))
	board, err = loadBoard(cfg, logger)
	require.NoError(t, err)
	assert.Len(t, board.Hazards(), 1)
}
