package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iha-referee/backend/internal/api"
	"github.com/iha-referee/backend/internal/config"
	"github.com/iha-referee/backend/internal/logging"
	"github.com/iha-referee/backend/internal/observability"
	"github.com/iha-referee/backend/internal/referee"
	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	configPath string
	rosterPath string
	boardPath  string
	driver     string
	port       int
	version    bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("referee-server", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to the XML config (default: RefereeServer.config next to the binary)")
	flagSet.StringVar(&opts.rosterPath, "roster", "", "team roster file, JSON or YAML (overrides Competition.RosterFile)")
	flagSet.StringVar(&opts.boardPath, "hazards", "", "target and hazard zone YAML file (overrides Competition.BoardFile)")
	flagSet.StringVar(&opts.driver, "driver", "", "store driver: sqlite, duckdb or memory (overrides Storage.Driver)")
	flagSet.IntVarP(&opts.port, "port", "p", 0, "listen port (overrides Server.Port)")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return &opts, nil
}

func loadConfig(opts *options) (*config.AppConfig, string, error) {
	configPath := opts.configPath
	if configPath == "" {
		// Get the executable's directory for config resolution
		exePath, err := os.Executable()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get executable path: %w", err)
		}
		configPath = filepath.Join(filepath.Dir(exePath), "RefereeServer.config")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", err
	}

	// Command line flags win over the file and the environment.
	if opts.rosterPath != "" {
		cfg.Competition.RosterFile = opts.rosterPath
	}
	if opts.boardPath != "" {
		cfg.Competition.BoardFile = opts.boardPath
	}
	if opts.driver != "" {
		cfg.Storage.Driver = opts.driver
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	return cfg, configPath, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Printf("referee-server %s (built %s)\n", Version, BuildTime)
		return nil
	}

	cfg, configPath, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Configure(cfg.Advanced.LogLevel, os.Stdout); err != nil {
		return err
	}
	logger := logging.New("main")
	api.SetExposeDetails(cfg.Advanced.LogLevel == "debug")

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := storage.Open(storage.Config{
		Driver:            cfg.Storage.Driver,
		Path:              cfg.GetDatabasePath(),
		DuckDBThreads:     cfg.Advanced.DuckDBThreads,
		DuckDBMemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	teams, err := loadRoster(ctx, cfg.Competition.RosterFile, store, logger)
	if err != nil {
		return err
	}
	board, err := loadBoard(cfg, logger)
	if err != nil {
		return err
	}

	var metrics *observability.Collector
	if cfg.Advanced.EnableMetrics {
		if metrics, err = observability.NewCollector(nil); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		metrics.SetHazardZones(len(board.Hazards()))
	}

	identifier, err := session.NewIdentifier(cfg.Session.Mode)
	if err != nil {
		return err
	}
	sessions := session.NewRegistry(cfg.GetExemptAddresses())

	svc, err := referee.New(referee.Options{
		Roster:         teams,
		Sessions:       sessions,
		Store:          store,
		Board:          board,
		Metrics:        metrics,
		RateInterval:   cfg.RateInterval(),
		SnapshotWindow: cfg.SnapshotWindow(),
	})
	if err != nil {
		return err
	}

	go cleanupSessions(ctx, cfg, sessions, metrics, logger)
	go reloadBoardOnHangup(ctx, cfg.Competition.BoardFile, board, metrics, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(logging.Level())

	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		Timeout:        time.Duration(cfg.Server.RequestTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		Compression:    cfg.Server.EnableCompression,
		AllowOrigins:   cfg.GetAllowOrigins(),
		TrustProxy:     cfg.Server.TrustProxy,
		Metrics:        metrics,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Referee:    svc,
		Identifier: identifier,
		Sessions:   sessions,
		Metrics:    metrics,
		Version:    Version,
	}))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, teams.Len(), len(board.Hazards()))

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func printBanner(cfg *config.AppConfig, configPath string, teams, zones int) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Competition Referee Server                      ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Store:      %-45s║\n", cfg.Storage.Driver)
	fmt.Printf("║  Sessions:   %-45s║\n", cfg.Session.Mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Teams:     %-46d║\n", teams)
	fmt.Printf("║  Hazards:   %-46d║\n", zones)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
