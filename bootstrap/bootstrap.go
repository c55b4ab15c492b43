package bootstrap

import (
	"estate-ledger/internal/config"
	"estate-ledger/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployments (api handler imports this package, not internal).
// No stats job runs here; the health dashboard shows the last snapshot a long-running instance published.
// Instances share nothing but the database, so the store must be Postgres.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireSharedStore(); err != nil {
		return nil, err
	}
	app, _, err := router.CreateApp(cfg, router.Options{})
	return app, err
}
