package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Lvl{
		"debug":   log.DEBUG,
		"INFO":    log.INFO,
		"":        log.INFO,
		"warning": log.WARN,
		"error":   log.ERROR,
		"off":     log.OFF,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure("warn", &buf))
	t.Cleanup(func() { _ = Configure("info", os.Stdout) })

	l := New("storage")
	l.Info("hidden")
	l.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "[storage]")
	assert.Equal(t, log.WARN, Level())
}
