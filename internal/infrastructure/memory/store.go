// Package memory is an in-process ledger.Store. Each Atomic call stages its writes
// and merges them into the committed tables only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/google/uuid"
)

type positionKey struct {
	propertyID uint64
	holder     string
}

type periodKey struct {
	propertyID uint64
	period     uint64
}

type claimKey struct {
	propertyID uint64
	period     uint64
	holder     string
}

// Store keeps all tables in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	compliance   map[string]domain.ComplianceRecord
	properties   map[uint64]domain.Property
	certificates map[uint64]domain.Certificate
	positions    map[positionKey]domain.ShareholderPosition
	income       map[periodKey]domain.IncomePeriod
	claims       map[claimKey]domain.DividendClaim
	balances     map[string]domain.Balance
	counters     map[int]domain.Counters
	events       []domain.LedgerEvent
}

func New() *Store {
	return &Store{
		compliance:   map[string]domain.ComplianceRecord{},
		properties:   map[uint64]domain.Property{},
		certificates: map[uint64]domain.Certificate{},
		positions:    map[positionKey]domain.ShareholderPosition{},
		income:       map[periodKey]domain.IncomePeriod{},
		claims:       map[claimKey]domain.DividendClaim{},
		balances:     map[string]domain.Balance{},
		counters:     map[int]domain.Counters{},
	}
}

// Atomic runs fn with exclusive access to the store.
func (s *Store) Atomic(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		compliance:   newTable(s.compliance),
		properties:   newTable(s.properties),
		certificates: newTable(s.certificates),
		positions:    newTable(s.positions),
		income:       newTable(s.income),
		claims:       newTable(s.claims),
		balances:     newTable(s.balances),
		counters:     newTable(s.counters),
		committed:    s.events,
	}
	if err := fn(t); err != nil {
		return err
	}
	t.compliance.commit()
	t.properties.commit()
	t.certificates.commit()
	t.positions.commit()
	t.income.commit()
	t.claims.commit()
	t.balances.commit()
	t.counters.commit()
	s.events = append(s.events, t.pending...)
	return nil
}

// table overlays staged writes on a committed map.
type table[K comparable, V any] struct {
	base   map[K]V
	staged map[K]V
}

func newTable[K comparable, V any](base map[K]V) *table[K, V] {
	return &table[K, V]{base: base, staged: map[K]V{}}
}

func (t *table[K, V]) get(k K) (V, error) {
	if v, ok := t.staged[k]; ok {
		return v, nil
	}
	if v, ok := t.base[k]; ok {
		return v, nil
	}
	var zero V
	return zero, ledger.ErrNotFound
}

func (t *table[K, V]) put(k K, v V) {
	t.staged[k] = v
}

func (t *table[K, V]) each(fn func(K, V)) {
	for k, v := range t.base {
		if _, ok := t.staged[k]; ok {
			continue
		}
		fn(k, v)
	}
	for k, v := range t.staged {
		fn(k, v)
	}
}

func (t *table[K, V]) commit() {
	for k, v := range t.staged {
		t.base[k] = v
	}
}

type tx struct {
	compliance   *table[string, domain.ComplianceRecord]
	properties   *table[uint64, domain.Property]
	certificates *table[uint64, domain.Certificate]
	positions    *table[positionKey, domain.ShareholderPosition]
	income       *table[periodKey, domain.IncomePeriod]
	claims       *table[claimKey, domain.DividendClaim]
	balances     *table[string, domain.Balance]
	counters     *table[int, domain.Counters]
	committed    []domain.LedgerEvent
	pending      []domain.LedgerEvent
}

func (t *tx) Compliance(identity string) (domain.ComplianceRecord, error) {
	return t.compliance.get(identity)
}

func (t *tx) PutCompliance(rec domain.ComplianceRecord) error {
	now := time.Now()
	if prev, err := t.compliance.get(rec.Identity); err == nil {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	t.compliance.put(rec.Identity, rec)
	return nil
}

func (t *tx) Property(id uint64) (domain.Property, error) {
	return t.properties.get(id)
}

func (t *tx) Properties() ([]domain.Property, error) {
	out := make([]domain.Property, 0)
	t.properties.each(func(_ uint64, p domain.Property) {
		out = append(out, p)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) PutProperty(p domain.Property) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	t.properties.put(p.ID, p)
	return nil
}

func (t *tx) Certificate(propertyID uint64) (domain.Certificate, error) {
	return t.certificates.get(propertyID)
}

func (t *tx) PutCertificate(c domain.Certificate) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	t.certificates.put(c.PropertyID, c)
	return nil
}

func (t *tx) Position(propertyID uint64, holder string) (domain.ShareholderPosition, error) {
	return t.positions.get(positionKey{propertyID, holder})
}

func (t *tx) PutPosition(p domain.ShareholderPosition) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	t.positions.put(positionKey{p.PropertyID, p.Holder}, p)
	return nil
}

func (t *tx) CountHolders(propertyID uint64) (int64, error) {
	var n int64
	t.positions.each(func(k positionKey, p domain.ShareholderPosition) {
		if k.propertyID == propertyID && p.SharesOwned > 0 {
			n++
		}
	})
	return n, nil
}

func (t *tx) Holders(propertyID uint64) ([]domain.ShareholderPosition, error) {
	out := make([]domain.ShareholderPosition, 0)
	t.positions.each(func(k positionKey, p domain.ShareholderPosition) {
		if k.propertyID == propertyID && p.SharesOwned > 0 {
			out = append(out, p)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Holder < out[j].Holder })
	return out, nil
}

func (t *tx) IncomePeriod(propertyID, period uint64) (domain.IncomePeriod, error) {
	return t.income.get(periodKey{propertyID, period})
}

func (t *tx) PutIncomePeriod(rec domain.IncomePeriod) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	t.income.put(periodKey{rec.PropertyID, rec.Period}, rec)
	return nil
}

func (t *tx) Claim(propertyID, period uint64, holder string) (domain.DividendClaim, error) {
	return t.claims.get(claimKey{propertyID, period, holder})
}

func (t *tx) PutClaim(c domain.DividendClaim) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	t.claims.put(claimKey{c.PropertyID, c.Period, c.Holder}, c)
	return nil
}

func (t *tx) Balance(account string) (domain.Balance, error) {
	return t.balances.get(account)
}

func (t *tx) PutBalance(b domain.Balance) error {
	b.UpdatedAt = time.Now()
	t.balances.put(b.Account, b)
	return nil
}

func (t *tx) Counters() (domain.Counters, error) {
	c, err := t.counters.get(domain.CountersRowID)
	if err != nil {
		return domain.Counters{ID: domain.CountersRowID}, nil
	}
	return c, nil
}

func (t *tx) PutCounters(c domain.Counters) error {
	c.ID = domain.CountersRowID
	c.UpdatedAt = time.Now()
	t.counters.put(domain.CountersRowID, c)
	return nil
}

func (t *tx) AppendEvent(e domain.LedgerEvent) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	t.pending = append(t.pending, e)
	return nil
}

func (t *tx) Events(f domain.EventFilter) ([]domain.LedgerEvent, error) {
	all := make([]domain.LedgerEvent, 0, len(t.committed)+len(t.pending))
	all = append(all, t.committed...)
	all = append(all, t.pending...)

	out := make([]domain.LedgerEvent, 0)
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if f.PropertyID != 0 && e.PropertyID != f.PropertyID {
			continue
		}
		if f.Identity != "" && e.Actor != f.Identity && e.Counterparty != f.Identity {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping() error {
	return nil
}
