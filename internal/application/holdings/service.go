package holdings

import (
	"context"
	"errors"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"
)

var ErrPositionNotFound = errors.New("Shareholder position not found")

// Service encapsulates shareholder ledger reads.
type Service struct {
	Store ledger.Store
}

// GetShareholderInfo returns holder's position in a property. Zero-share positions are still returned.
func (s *Service) GetShareholderInfo(ctx context.Context, propertyID uint64, holder string) (domain.ShareholderPosition, error) {
	var pos domain.ShareholderPosition
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		pos, err = tx.Position(propertyID, holder)
		return err
	})
	if errors.Is(err, ledger.ErrNotFound) {
		return domain.ShareholderPosition{}, ErrPositionNotFound
	}
	return pos, err
}
