package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAttempts bounds how often a transaction is replayed after a serialization failure.
const maxAttempts = 5

// Store is a ledger.Store over a relational database. The mutex orders transactions
// inside this process. On Postgres every transaction also runs SERIALIZABLE, so
// instances sharing the database cannot interleave read-modify-write cycles; the
// loser of a conflict is rolled back and replayed.
type Store struct {
	DB *gorm.DB
	mu sync.Mutex
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var opts []*sql.TxOptions
	if s.DB.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}
	for attempt := 1; ; attempt++ {
		err := s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			return fn(&gormTx{db: db})
		}, opts...)
		if err == nil || attempt == maxAttempts || !retryable(err) {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Ledger transaction conflicted, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
}

// retryable reports whether err is a Postgres serialization failure or deadlock,
// after which the whole transaction can be replayed.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// Ping checks the underlying connection for the health endpoint.
func (s *Store) Ping() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

type gormTx struct {
	db *gorm.DB
}

// first loads one row into dest, mapping an empty result to ledger.ErrNotFound.
func first(q *gorm.DB, dest interface{}) error {
	res := q.Limit(1).Find(dest)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (t *gormTx) upsert(v interface{}) error {
	return t.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
}

func (t *gormTx) Compliance(identity string) (domain.ComplianceRecord, error) {
	var rec domain.ComplianceRecord
	err := first(t.db.Where("identity = ?", identity), &rec)
	return rec, err
}

func (t *gormTx) PutCompliance(rec domain.ComplianceRecord) error {
	return t.upsert(&rec)
}

func (t *gormTx) Property(id uint64) (domain.Property, error) {
	var p domain.Property
	err := first(t.db.Where("id = ?", id), &p)
	return p, err
}

func (t *gormTx) Properties() ([]domain.Property, error) {
	var out []domain.Property
	if err := t.db.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (t *gormTx) PutProperty(p domain.Property) error {
	return t.upsert(&p)
}

func (t *gormTx) Certificate(propertyID uint64) (domain.Certificate, error) {
	var c domain.Certificate
	err := first(t.db.Where("property_id = ?", propertyID), &c)
	return c, err
}

func (t *gormTx) PutCertificate(c domain.Certificate) error {
	return t.db.Create(&c).Error
}

func (t *gormTx) Position(propertyID uint64, holder string) (domain.ShareholderPosition, error) {
	var p domain.ShareholderPosition
	err := first(t.db.Where("property_id = ? AND holder = ?", propertyID, holder), &p)
	return p, err
}

func (t *gormTx) PutPosition(p domain.ShareholderPosition) error {
	return t.upsert(&p)
}

func (t *gormTx) CountHolders(propertyID uint64) (int64, error) {
	var n int64
	err := t.db.Model(&domain.ShareholderPosition{}).
		Where("property_id = ? AND shares_owned > 0", propertyID).
		Count(&n).Error
	return n, err
}

func (t *gormTx) Holders(propertyID uint64) ([]domain.ShareholderPosition, error) {
	var out []domain.ShareholderPosition
	err := t.db.Where("property_id = ? AND shares_owned > 0", propertyID).
		Order("holder ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *gormTx) IncomePeriod(propertyID, period uint64) (domain.IncomePeriod, error) {
	var rec domain.IncomePeriod
	err := first(t.db.Where("property_id = ? AND period = ?", propertyID, period), &rec)
	return rec, err
}

func (t *gormTx) PutIncomePeriod(rec domain.IncomePeriod) error {
	return t.upsert(&rec)
}

func (t *gormTx) Claim(propertyID, period uint64, holder string) (domain.DividendClaim, error) {
	var c domain.DividendClaim
	err := first(t.db.Where("property_id = ? AND period = ? AND holder = ?", propertyID, period, holder), &c)
	return c, err
}

func (t *gormTx) PutClaim(c domain.DividendClaim) error {
	return t.upsert(&c)
}

func (t *gormTx) Balance(account string) (domain.Balance, error) {
	var b domain.Balance
	err := first(t.db.Where("account = ?", account), &b)
	return b, err
}

func (t *gormTx) PutBalance(b domain.Balance) error {
	return t.upsert(&b)
}

func (t *gormTx) Counters() (domain.Counters, error) {
	var c domain.Counters
	err := first(t.db.Where("id = ?", domain.CountersRowID), &c)
	if err == ledger.ErrNotFound {
		return domain.Counters{ID: domain.CountersRowID}, nil
	}
	return c, err
}

func (t *gormTx) PutCounters(c domain.Counters) error {
	c.ID = domain.CountersRowID
	return t.upsert(&c)
}

func (t *gormTx) AppendEvent(e domain.LedgerEvent) error {
	return t.db.Create(&e).Error
}

func (t *gormTx) Events(f domain.EventFilter) ([]domain.LedgerEvent, error) {
	q := t.db.Model(&domain.LedgerEvent{})
	if f.PropertyID != 0 {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.Identity != "" {
		q = q.Where("actor = ? OR counterparty = ?", f.Identity, f.Identity)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []domain.LedgerEvent
	if err := q.Order("at DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
