package database

import (
	"fmt"
	"reflect"

	"estate-ledger/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN (Postgres or pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// OpenSQLite opens an embedded SQLite database; path may be ":memory:".
// A single connection keeps an in-memory database alive and shared across calls.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := textAmounts(db); err != nil {
		return nil, err
	}
	return db, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// textAmounts stores every decimal column as TEXT. SQLite gives numeric(38,0)
// NUMERIC affinity, which keeps anything wider than int64 as a lossy REAL.
// The schemas are cached on db, so later migrations and queries see the change.
func textAmounts(db *gorm.DB) error {
	for _, model := range domain.Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse %T: %w", model, err)
		}
		for _, field := range stmt.Schema.Fields {
			if field.IndirectFieldType == decimalType {
				field.DataType = "text"
			}
		}
	}
	return nil
}

// AutoMigrate creates or updates every ledger table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("migrate ledger tables: %w", err)
	}
	return nil
}
