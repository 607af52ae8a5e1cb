// Package config provides XML-based configuration management for the referee server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"RefereeServer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Competition rules and published data
	Competition CompetitionConfig `xml:"Competition"`

	// Session handling
	Session SessionConfig `xml:"Session"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port"`
	BindAddress       string `xml:"BindAddress"`
	AllowOrigins      string `xml:"AllowOrigins"`
	TrustProxy        bool   `xml:"TrustProxy"`
	ReadTimeout       int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds"`
	RequestTimeout    int    `xml:"RequestTimeoutSeconds"`
	ShutdownTimeout   int    `xml:"ShutdownTimeoutSeconds"`
	BodyLimit         string `xml:"BodyLimit"`
	EnableCompression bool   `xml:"EnableCompression"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	Driver        string `xml:"Driver"` // memory, sqlite or duckdb
	DataDirectory string `xml:"DataDirectory"`
	DatabaseFile  string `xml:"DatabaseFile"`
}

// CompetitionConfig contains the referee rules
type CompetitionConfig struct {
	RosterFile       string  `xml:"RosterFile"`
	BoardFile        string  `xml:"BoardFile"`
	RateLimitMs      int     `xml:"RateLimitMs"`
	SnapshotWindowMs int     `xml:"SnapshotWindowMs"`
	TargetLat        float64 `xml:"TargetLatitude"`
	TargetLon        float64 `xml:"TargetLongitude"`
	ExemptAddresses  string  `xml:"ExemptAddresses"`
}

// SessionConfig contains session binding settings
type SessionConfig struct {
	Mode                   string `xml:"Mode"` // address or token
	TimeoutMinutes         int    `xml:"TimeoutMinutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	EnableMetrics        bool   `xml:"EnableMetrics"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		XMLName: xml.Name{Local: "RefereeServer"},
		Server: ServerConfig{
			Port:              5000,
			BindAddress:       "0.0.0.0",
			AllowOrigins:      "",
			TrustProxy:        false,
			ReadTimeout:       10,
			WriteTimeout:      10,
			IdleTimeout:       120,
			RequestTimeout:    5,
			ShutdownTimeout:   10,
			BodyLimit:         "64K",
			EnableCompression: false,
		},
		Storage: StorageConfig{
			Driver:        "sqlite",
			DataDirectory: "./data",
			DatabaseFile:  "referee.db",
		},
		Competition: CompetitionConfig{
			RosterFile:       "teams.json",
			BoardFile:        "board.yaml",
			RateLimitMs:      490,
			SnapshotWindowMs: 5000,
			TargetLat:        41.51238882,
			TargetLon:        36.11935778,
			ExemptAddresses:  "127.0.0.1,::1,localhost",
		},
		Session: SessionConfig{
			Mode:                   "address",
			TimeoutMinutes:         0,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableMetrics:        true,
			DuckDBThreads:        4,
			DuckDBMemoryLimit:    "1GB",
		},
	}
}

// LoadConfig loads configuration from XML file. Elements missing from the
// file keep their default values.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Competition Referee Server Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if mode := os.Getenv("SESSION_MODE"); mode != "" {
		c.Session.Mode = mode
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	c.Competition.RosterFile = c.ResolveDataPath(c.Competition.RosterFile)
	c.Competition.BoardFile = c.ResolveDataPath(c.Competition.BoardFile)
}

// ResolveDataPath resolves a path relative to the data directory. Empty paths
// stay empty.
func (c *AppConfig) ResolveDataPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Storage.DataDirectory, path)
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetDatabasePath returns the database file path, or "" for in-memory stores
func (c *AppConfig) GetDatabasePath() string {
	if strings.EqualFold(c.Storage.Driver, "memory") || c.Storage.DatabaseFile == "" {
		return ""
	}
	return c.ResolveDataPath(c.Storage.DatabaseFile)
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetExemptAddresses returns the addresses allowed to submit for any team
func (c *AppConfig) GetExemptAddresses() []string {
	return splitList(c.Competition.ExemptAddresses)
}

// GetAllowOrigins returns the CORS origins; empty disables CORS
func (c *AppConfig) GetAllowOrigins() []string {
	return splitList(c.Server.AllowOrigins)
}

// RateInterval returns the minimum telemetry interval per team
func (c *AppConfig) RateInterval() time.Duration {
	return time.Duration(c.Competition.RateLimitMs) * time.Millisecond
}

// SnapshotWindow returns how long a rival report stays visible
func (c *AppConfig) SnapshotWindow() time.Duration {
	return time.Duration(c.Competition.SnapshotWindowMs) * time.Millisecond
}

// SessionTimeout returns the idle session lifetime; zero means never expire
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.DataDirectory, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
