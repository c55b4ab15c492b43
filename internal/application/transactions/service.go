package transactions

import (
	"context"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Service struct {
	Store ledger.Store
}

// Stats is the ledger-wide summary served by the stats endpoint and snapshotted by the stats job.
type Stats struct {
	TotalProperties      uint64          `json:"total_properties"`
	ActiveProperties     int             `json:"active_properties"`
	TotalValueTokenized  decimal.Decimal `json:"total_value_tokenized"`
	DividendsDistributed decimal.Decimal `json:"dividends_distributed"`
	CustodyBalance       decimal.Decimal `json:"custody_balance"`
}

// ViewEvents lists journal rows newest first, optionally narrowed to a property and/or identity.
func (s *Service) ViewEvents(ctx context.Context, f domain.EventFilter) ([]domain.LedgerEvent, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	var out []domain.LedgerEvent
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Events(f)
		return err
	})
	if out == nil {
		out = []domain.LedgerEvent{}
	}
	return out, err
}

// ViewStats reads the global counters together with the custody balance.
func (s *Service) ViewStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		c, err := tx.Counters()
		if err != nil {
			return err
		}
		props, err := tx.Properties()
		if err != nil {
			return err
		}
		custody, err := ledger.BalanceOf(tx, domain.CustodyAccount)
		if err != nil {
			return err
		}
		active := 0
		for _, p := range props {
			if p.IsActive {
				active++
			}
		}
		st = Stats{
			TotalProperties:      c.TotalProperties,
			ActiveProperties:     active,
			TotalValueTokenized:  c.TotalValueTokenized,
			DividendsDistributed: c.DividendsDistributed,
			CustodyBalance:       custody,
		}
		return nil
	})
	return st, err
}
