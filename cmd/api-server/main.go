package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/protomem/car-rental/internal/database"
	"github.com/protomem/car-rental/internal/env"
	"github.com/protomem/car-rental/internal/rental"
	"github.com/protomem/car-rental/internal/version"
)

var (
	_cfgFile     = flag.String("cfg", "", "path to config file")
	_showVersion = flag.Bool("version", false, "display version and exit")
)

func main() {
	flag.Parse()

	level := parseLevel(env.GetString("LOG_LEVEL", "debug"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

type config struct {
	httpHost string
	httpPort int
	db       struct {
		dsn         string
		automigrate bool
	}
	rental struct {
		timeZone string
	}
}

type application struct {
	config  config
	db      *database.DB
	rentals *rental.Manager
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func run(logger *slog.Logger) error {
	var cfg config

	if *_showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	if *_cfgFile != "" {
		err := env.Load(*_cfgFile)
		if err != nil {
			return err
		}
	}

	cfg.httpHost = env.GetString("HTTP_HOST", "localhost")
	cfg.httpPort = env.GetInt("HTTP_PORT", 8080)
	cfg.db.dsn = env.GetString("DB_DSN", "postgres:postgres@localhost:5432/postgres")
	cfg.db.automigrate = env.GetBool("DB_AUTOMIGRATE", true)
	cfg.rental.timeZone = env.GetString("RENTAL_TIME_ZONE", rental.DefaultLocation)

	loc, err := time.LoadLocation(cfg.rental.timeZone)
	if err != nil {
		return fmt.Errorf("rental time zone: %w", err)
	}

	db, err := database.New(logger, cfg.db.dsn, cfg.db.automigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	app := &application{
		config:  cfg,
		db:      db,
		rentals: rental.NewManager(logger, db, rental.WithLocation(loc)),
		logger:  logger,
	}

	return app.serveHTTP()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
