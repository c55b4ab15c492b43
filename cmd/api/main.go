package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate-ledger/internal/config"
	"estate-ledger/internal/infrastructure/database"
	"estate-ledger/internal/interfaces/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "estate-ledger",
		Usage: "fractional property ownership ledger API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides PORT)"},
			&cli.StringFlag{Name: "store", Usage: "memory, sqlite or postgres (overrides STORE_DRIVER)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the stats job",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the ledger tables and exit",
				Action: migrate,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("estate-ledger exited")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if p := c.String("port"); p != "" {
		cfg.Port = p
	}
	if s := c.String("store"); s != "" {
		cfg.StoreDriver = s
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, deps, err := router.CreateApp(cfg, router.Options{})
	if err != nil {
		return fmt.Errorf("app create: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := deps.Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Str("store", cfg.StoreDriver).Msg("Redis connected")

	cr, err := deps.Stats.Start(cfg.StatsSchedule)
	if err != nil {
		return fmt.Errorf("stats job: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("Server running at http://localhost:%s", cfg.Port)
		log.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		<-cr.Stop().Done()
		shutdownErr := app.ShutdownWithTimeout(10 * time.Second)
		if cerr := deps.Rdb.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Redis close failed")
		}
		return shutdownErr
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	var dsnDriver string
	switch cfg.StoreDriver {
	case config.StorePostgres:
		dsnDriver = "postgres"
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	case config.StoreSQLite:
		dsnDriver = "sqlite"
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	default:
		log.Info().Msg("Memory store has no schema to migrate")
		return nil
	}
	log.Info().Str("driver", dsnDriver).Msg("Ledger tables migrated")
	return nil
}
