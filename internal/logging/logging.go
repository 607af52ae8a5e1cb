// Package logging builds the prefixed, leveled component loggers used across
// the server. Loggers are gommon loggers, the same type echo logs with.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} [${prefix}]`

var (
	mu     sync.RWMutex
	level            = log.INFO
	output io.Writer = os.Stdout
)

// ParseLevel converts a config level name to a gommon level.
func ParseLevel(name string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return log.INFO, fmt.Errorf("unknown log level %q", name)
	}
}

// Configure sets the level and output of loggers created afterwards.
func Configure(levelName string, w io.Writer) error {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	if w != nil {
		output = w
	}
	return nil
}

// Level returns the configured level.
func Level() log.Lvl {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// New returns a logger for component prefix.
func New(prefix string) *log.Logger {
	mu.RLock()
	defer mu.RUnlock()

	l := log.New(prefix)
	l.SetHeader(header)
	l.SetLevel(level)
	l.SetOutput(output)
	return l
}
