// Package ledger defines the storage contract every ledger operation runs against,
// plus the settlement and certificate primitives that execute inside a transaction.
package ledger

import (
	"context"
	"errors"

	"estate-ledger/internal/domain"
)

// ErrNotFound is returned by Tx getters when no row exists for the key.
var ErrNotFound = errors.New("record not found")

// Store owns every ledger table. Implementations serialize Atomic calls so that
// concurrent operations are linearizable in the order they acquire the store.
type Store interface {
	// Atomic runs fn against a consistent snapshot. Writes become visible only if fn returns nil.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the read-modify-write view of the ledger inside one Atomic call.
// Getters return value copies; callers build a new value and Put it back.
type Tx interface {
	Compliance(identity string) (domain.ComplianceRecord, error)
	PutCompliance(rec domain.ComplianceRecord) error

	Property(id uint64) (domain.Property, error)
	Properties() ([]domain.Property, error)
	PutProperty(p domain.Property) error

	Certificate(propertyID uint64) (domain.Certificate, error)
	PutCertificate(c domain.Certificate) error

	Position(propertyID uint64, holder string) (domain.ShareholderPosition, error)
	PutPosition(p domain.ShareholderPosition) error
	// CountHolders counts distinct holders of the property with a positive share balance.
	CountHolders(propertyID uint64) (int64, error)
	// Holders lists the property's positions with a positive share balance, ordered by holder.
	Holders(propertyID uint64) ([]domain.ShareholderPosition, error)

	IncomePeriod(propertyID, period uint64) (domain.IncomePeriod, error)
	PutIncomePeriod(rec domain.IncomePeriod) error

	Claim(propertyID, period uint64, holder string) (domain.DividendClaim, error)
	// PutClaim inserts or replaces a holder's entitlement row.
	PutClaim(c domain.DividendClaim) error

	Balance(account string) (domain.Balance, error)
	PutBalance(b domain.Balance) error

	// Counters returns the running totals, zero-valued before the first write.
	Counters() (domain.Counters, error)
	PutCounters(c domain.Counters) error

	AppendEvent(e domain.LedgerEvent) error
	// Events lists journal rows, newest first.
	Events(f domain.EventFilter) ([]domain.LedgerEvent, error)
}

// Pinger is implemented by stores backed by a remote database.
type Pinger interface {
	Ping() error
}
