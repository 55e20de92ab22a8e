package app

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/watchlog/internal/config"
	"github.com/ayoisaiah/watchlog/internal/logging"
	"github.com/ayoisaiah/watchlog/internal/pathutil"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/internal/ui"
	"github.com/ayoisaiah/watchlog/store"
	"github.com/ayoisaiah/watchlog/store/sqlite"
)

// env holds what a command needs to run.
type env struct {
	cfg    *config.Config
	db     store.DB
	logger *slog.Logger
	closer io.Closer
	now    time.Time
}

// today returns the current day key in the configured time zone.
func (e *env) today() string {
	return timeutil.DayKey(e.now, e.cfg.Location())
}

func (e *env) Close() error {
	var errs []error

	if e.db != nil {
		errs = append(errs, e.db.Close())
	}

	if e.closer != nil {
		errs = append(errs, e.closer.Close())
	}

	return errors.Join(errs...)
}

// loadConfig reads the config file and overlays the command-line flags.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	return config.New(
		config.WithViperConfig(pathutil.ConfigFilePath()),
		config.WithCLIConfig(ctx),
	)
}

// openStore opens the configured storage backend.
func openStore(cfg *config.Config, logger *slog.Logger) (store.DB, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		path := cfg.Storage.Path
		if path == "" {
			path = pathutil.SQLiteFilePath()
		}

		return sqlite.Open(path, sqlite.Options{
			BusyTimeout: cfg.Tracking.FlushTimeout,
		}, logger)
	default:
		path := cfg.Storage.Path
		if path == "" {
			path = pathutil.BoltFilePath()
		}

		return store.NewClient(path, logger)
	}
}

// setup loads the configuration, the logger, and the store.
func setup(ctx *cli.Context) (*env, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	ui.DarkTheme = cfg.Display.DarkTheme

	logger, closer := logging.New(cfg.Log, pathutil.LogFilePath())

	db, err := openStore(cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	logger.Debug("command started",
		slog.String("command", ctx.Command.Name),
		slog.String("config", cfg.String()),
	)

	return &env{
		cfg:    cfg,
		db:     db,
		logger: logger,
		closer: closer,
		now:    time.Now().In(cfg.Location()),
	}, nil
}
