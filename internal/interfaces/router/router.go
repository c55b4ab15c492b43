package router

import (
	"fmt"
	"net/http"

	authsvc "estate-ledger/internal/application/auth"
	compliancesvc "estate-ledger/internal/application/compliance"
	divsvc "estate-ledger/internal/application/dividends"
	holdsvc "estate-ledger/internal/application/holdings"
	listsvc "estate-ledger/internal/application/listings"
	settlesvc "estate-ledger/internal/application/settlement"
	"estate-ledger/internal/application/stats"
	tradesvc "estate-ledger/internal/application/trading"
	txsvc "estate-ledger/internal/application/transactions"
	"estate-ledger/internal/config"
	"estate-ledger/internal/infrastructure/database"
	"estate-ledger/internal/infrastructure/memory"
	"estate-ledger/internal/infrastructure/metrics"
	authhandler "estate-ledger/internal/interfaces/handlers/auth"
	divhandler "estate-ledger/internal/interfaces/handlers/dividends"
	healthhandler "estate-ledger/internal/interfaces/handlers/health"
	kychandler "estate-ledger/internal/interfaces/handlers/kyc"
	listhandler "estate-ledger/internal/interfaces/handlers/listings"
	settlehandler "estate-ledger/internal/interfaces/handlers/settlement"
	tradehandler "estate-ledger/internal/interfaces/handlers/trading"
	txhandler "estate-ledger/internal/interfaces/handlers/transactions"
	"estate-ledger/internal/ledger"
	"estate-ledger/internal/middleware"
	"estate-ledger/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// pingStore is a ledger store that the health check can probe.
type pingStore interface {
	ledger.Store
	ledger.Pinger
}

// Options overrides dependencies CreateApp would otherwise build from config. Tests use it
// to inject miniredis and a manual clock.
type Options struct {
	Rdb   *redis.Client
	Clock clock.Clock
	Store pingStore
}

// Deps exposes what CreateApp built so the caller can run background jobs and close resources.
type Deps struct {
	Store    ledger.Store
	DB       *gorm.DB // nil for the memory store
	Rdb      *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Stats    *stats.Job
}

// OpenStore builds the ledger store selected by cfg.StoreDriver and migrates SQL schemas.
func OpenStore(cfg *config.Config) (pingStore, *gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return memory.New(), nil, nil
	case config.StoreSQLite:
		db, err = database.OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		db, err = database.Open(cfg.DatabaseURL)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, err
	}
	return database.NewStore(db), db, nil
}

func CreateApp(cfg *config.Config, opts Options) (*fiber.App, *Deps, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	rdb := opts.Rdb
	if rdb == nil {
		var err error
		rdb, err = middleware.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
	}

	store := opts.Store
	var db *gorm.DB
	if store == nil {
		var err error
		store, db, err = OpenStore(cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.NewMonotonic()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.LedgerTime(clk))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             store,
		HealthAdminKey: cfg.AdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.Service{Rdb: rdb},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)
	authGroup.Delete("/sessions", ah.LogoutAll)

	// Compliance registry
	cs := &compliancesvc.Service{Store: store, Policy: cfg.Policy}
	kh := &kychandler.Handlers{Service: cs, Clock: clk, Metrics: m}
	kg := app.Group("/api/v1/kyc")
	kg.Post("/register-kyc", middleware.RequireAuth(), kh.RegisterKyc)
	kg.Get("/is-verified/:identity", kh.IsVerified)

	// Property registry
	ls := &listsvc.Service{Store: store, Policy: cfg.Policy}
	lh := &listhandler.Handlers{Service: ls, Clock: clk, Metrics: m}
	pg := app.Group("/api/v1/properties")
	pg.Post("/list-property", middleware.RequireAuth(), lh.ListProperty)
	pg.Get("/get-property/:id", lh.GetProperty)
	pg.Get("/get-all-properties", lh.GetAllProperties)

	// Share issuance and transfer
	ts := &tradesvc.Service{Store: store, Policy: cfg.Policy}
	th := &tradehandler.Handlers{Service: ts, Holdings: &holdsvc.Service{Store: store}, Clock: clk, Metrics: m}
	sg := app.Group("/api/v1/shares")
	sg.Post("/buy-shares", middleware.RequireAuth(), th.BuyShares)
	sg.Post("/transfer-shares", middleware.RequireAuth(), th.TransferShares)
	sg.Get("/shareholder-info/:property_id/:holder", th.ShareholderInfo)

	// Income and dividends
	ds := &divsvc.Service{Store: store, Policy: cfg.Policy}
	dh := &divhandler.Handlers{Service: ds, Clock: clk, Metrics: m}
	ig := app.Group("/api/v1/income")
	ig.Post("/distribute-income", middleware.RequireAuth(), dh.DistributeIncome)
	ig.Post("/claim-dividends", middleware.RequireAuth(), dh.ClaimDividends)
	ig.Get("/dividend-share/:property_id/:holder", dh.DividendShare)
	ig.Get("/period/:property_id/:period", dh.Period)

	// Ledger views
	txs := &txsvc.Service{Store: store}
	txh := &txhandler.Handlers{Service: txs}
	lg := app.Group("/api/v1/ledger")
	lg.Get("/stats", txh.GetStats)
	lg.Get("/events", txh.GetEvents)

	// Settlement
	ss := &settlesvc.Service{Store: store}
	sh := &settlehandler.Handlers{Service: ss, Clock: clk, Metrics: m}
	stg := app.Group("/api/v1/settlement")
	stg.Post("/deposit", middleware.AuthorizeAdmin(cfg.AdminKey), sh.Deposit)
	stg.Get("/balance", middleware.RequireAuth(), sh.Balance)

	deps := &Deps{
		Store:    store,
		DB:       db,
		Rdb:      rdb,
		Registry: reg,
		Metrics:  m,
		Clock:    clk,
		Stats:    &stats.Job{Stats: txs, Rdb: rdb, Metrics: m},
	}
	return app, deps, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
