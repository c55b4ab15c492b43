package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"estate-ledger/internal/application/compliance"
	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ErrPropertyNotFound is returned by the property queries.
var ErrPropertyNotFound = errors.New("Property not found")

// Service is the property registry.
type Service struct {
	Store  ledger.Store
	Policy domain.Policy
}

type ListPropertyInput struct {
	Address        string
	PropertyType   string
	Valuation      decimal.Decimal
	TotalShares    int64
	RentalIncome   decimal.Decimal
	Expenses       decimal.Decimal
	ComplianceHash string
}

// ListProperty registers a property managed by the caller, mints its ownership
// certificate and returns the new property id.
func (s *Service) ListProperty(ctx context.Context, call domain.Call, in ListPropertyInput) (uint64, error) {
	var prop domain.Property
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		_, verified, err := compliance.Verified(tx, call.Caller, call.Now)
		if err != nil {
			return err
		}
		if !verified {
			return domain.ErrNotVerified
		}
		if in.Valuation.Sign() <= 0 {
			return domain.ErrInvalidValuation
		}
		if in.TotalShares < s.Policy.MinTotalShares {
			return domain.ErrInsufficientShareCount
		}

		counters, err := tx.Counters()
		if err != nil {
			return fmt.Errorf("load counters: %w", err)
		}
		id := counters.TotalProperties + 1

		prop = domain.Property{
			ID:                id,
			Address:           in.Address,
			PropertyType:      in.PropertyType,
			Valuation:         in.Valuation,
			TotalShares:       in.TotalShares,
			AvailableShares:   in.TotalShares,
			SharePrice:        ledger.MulDiv(in.Valuation, decimal.NewFromInt(1), decimal.NewFromInt(in.TotalShares)),
			RentalIncome:      in.RentalIncome,
			Expenses:          in.Expenses,
			ManagementCompany: call.Caller,
			ListingDate:       call.Now,
			IsActive:          true,
			ComplianceHash:    in.ComplianceHash,
		}
		if err := ledger.Mint(tx, id, call.Caller, call.Now); err != nil {
			return err
		}
		if err := tx.PutProperty(prop); err != nil {
			return fmt.Errorf("save property: %w", err)
		}

		counters.TotalProperties = id
		counters.TotalValueTokenized = counters.TotalValueTokenized.Add(in.Valuation)
		if err := tx.PutCounters(counters); err != nil {
			return fmt.Errorf("save counters: %w", err)
		}

		data, _ := json.Marshal(map[string]interface{}{
			"address":       prop.Address,
			"property_type": prop.PropertyType,
			"total_shares":  prop.TotalShares,
			"share_price":   prop.SharePrice.String(),
		})
		return tx.AppendEvent(domain.LedgerEvent{
			Type:       domain.EventPropertyListed,
			PropertyID: id,
			Actor:      call.Caller,
			Shares:     prop.TotalShares,
			Amount:     prop.Valuation,
			Data:       datatypes.JSON(data),
			At:         call.Now,
		})
	})
	if err != nil {
		return 0, err
	}
	log.Info().
		Uint64("property_id", prop.ID).
		Str("manager", prop.ManagementCompany).
		Str("valuation", prop.Valuation.String()).
		Str("share_price", prop.SharePrice.String()).
		Msg("Property listed")
	return prop.ID, nil
}

// GetProperty returns one property by id.
func (s *Service) GetProperty(ctx context.Context, id uint64) (domain.Property, error) {
	var prop domain.Property
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		prop, err = tx.Property(id)
		return err
	})
	if errors.Is(err, ledger.ErrNotFound) {
		return domain.Property{}, ErrPropertyNotFound
	}
	return prop, err
}

// GetAllProperties returns every listed property ordered by id.
func (s *Service) GetAllProperties(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Properties()
		return err
	})
	if out == nil {
		out = []domain.Property{}
	}
	return out, err
}
