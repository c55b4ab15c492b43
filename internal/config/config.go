package config

import (
	"fmt"
	"strings"

	"estate-ledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	StoreDriver         string // memory, sqlite or postgres
	DatabaseURL         string
	SQLitePath          string
	SessionSecret       string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	AdminKey            string // guards /reset and settlement deposits
	StatsSchedule       string // cron spec for the ledger stats snapshot
	Policy              domain.Policy
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	def := domain.DefaultPolicy()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", StoreMemory)
	viper.SetDefault("SQLITE_PATH", "estate-ledger.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("STATS_SCHEDULE", "@every 1m")
	viper.SetDefault("LEDGER_MIN_INVESTMENT", def.MinInvestment.String())
	viper.SetDefault("LEDGER_MAX_SHAREHOLDERS", def.MaxShareholders)
	viper.SetDefault("LEDGER_LOCKUP_SECONDS", def.LockupPeriod)
	viper.SetDefault("LEDGER_KYC_VALIDITY_SECONDS", def.KycValidity)
	viper.SetDefault("LEDGER_MANAGEMENT_FEE_BPS", def.ManagementFeeBps)
	viper.SetDefault("LEDGER_MIN_TOTAL_SHARES", def.MinTotalShares)

	minInvestment, err := decimal.NewFromString(viper.GetString("LEDGER_MIN_INVESTMENT"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_MIN_INVESTMENT: %w", err)
	}

	cfg := &Config{
		Env:                 viper.GetString("APP_ENV"),
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		StoreDriver:         strings.ToLower(viper.GetString("STORE_DRIVER")),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		SQLitePath:          viper.GetString("SQLITE_PATH"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		AdminKey:            viper.GetString("ADMIN_KEY"),
		StatsSchedule:       viper.GetString("STATS_SCHEDULE"),
		Policy: domain.Policy{
			MinInvestment:    minInvestment,
			MaxShareholders:  viper.GetInt64("LEDGER_MAX_SHAREHOLDERS"),
			LockupPeriod:     viper.GetInt64("LEDGER_LOCKUP_SECONDS"),
			KycValidity:      viper.GetInt64("LEDGER_KYC_VALIDITY_SECONDS"),
			ManagementFeeBps: viper.GetInt64("LEDGER_MANAGEMENT_FEE_BPS"),
			MinTotalShares:   viper.GetInt64("LEDGER_MIN_TOTAL_SHARES"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireSharedStore rejects stores that live inside a single process or machine.
// Serverless instances come and go independently, so only Postgres keeps one ledger.
func (c *Config) RequireSharedStore() error {
	if c.StoreDriver != StorePostgres {
		return fmt.Errorf("STORE_DRIVER=%s is not shared between instances; set STORE_DRIVER=postgres", c.StoreDriver)
	}
	return nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	p := c.Policy
	if p.MinInvestment.IsNegative() {
		return fmt.Errorf("LEDGER_MIN_INVESTMENT must not be negative")
	}
	if p.MaxShareholders <= 0 || p.MinTotalShares <= 0 {
		return fmt.Errorf("LEDGER_MAX_SHAREHOLDERS and LEDGER_MIN_TOTAL_SHARES must be positive")
	}
	if p.LockupPeriod < 0 || p.KycValidity <= 0 {
		return fmt.Errorf("LEDGER_LOCKUP_SECONDS must not be negative and LEDGER_KYC_VALIDITY_SECONDS must be positive")
	}
	if p.ManagementFeeBps < 0 || p.ManagementFeeBps > domain.BasisPoints {
		return fmt.Errorf("LEDGER_MANAGEMENT_FEE_BPS must be between 0 and %d", domain.BasisPoints)
	}
	return nil
}
