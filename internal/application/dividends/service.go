package dividends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Service is the income and dividend engine.
type Service struct {
	Store  ledger.Store
	Policy domain.Policy
}

type DistributeIncomeInput struct {
	PropertyID        uint64
	Period            uint64
	RentalIncome      decimal.Decimal
	OtherIncome       decimal.Decimal
	OperatingExpenses decimal.Decimal
}

// DistributeIncome records a property's income statement for one period and returns its net income.
// Only the property's management company may call it, once per period.
func (s *Service) DistributeIncome(ctx context.Context, call domain.Call, in DistributeIncomeInput) (decimal.Decimal, error) {
	var (
		rec     domain.IncomePeriod
		holders int
	)
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		prop, err := tx.Property(in.PropertyID)
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.ErrInvalidProperty
		}
		if err != nil {
			return fmt.Errorf("load property: %w", err)
		}
		if call.Caller != prop.ManagementCompany {
			return domain.ErrUnauthorized
		}
		_, err = tx.IncomePeriod(in.PropertyID, in.Period)
		if err == nil {
			return domain.ErrPeriodAlreadyDistributed
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("load income period: %w", err)
		}
		if in.RentalIncome.IsNegative() || in.OtherIncome.IsNegative() || in.OperatingExpenses.IsNegative() {
			return domain.ErrInvalidIncome
		}

		gross := in.RentalIncome.Add(in.OtherIncome)
		fees := ledger.MulDiv(gross, decimal.NewFromInt(s.Policy.ManagementFeeBps), decimal.NewFromInt(domain.BasisPoints))
		outflow := in.OperatingExpenses.Add(fees)
		if outflow.GreaterThan(gross) {
			return domain.ErrInvalidIncome
		}

		rec = domain.IncomePeriod{
			PropertyID:        in.PropertyID,
			Period:            in.Period,
			RentalIncome:      in.RentalIncome,
			OtherIncome:       in.OtherIncome,
			OperatingExpenses: in.OperatingExpenses,
			ManagementFees:    fees,
			NetIncome:         gross.Sub(outflow),
			Claimed:           decimal.Zero,
			RecordedAt:        call.Now,
		}
		if err := tx.PutIncomePeriod(rec); err != nil {
			return fmt.Errorf("save income period: %w", err)
		}
		holders, err = snapshotEntitlements(tx, prop, rec)
		if err != nil {
			return err
		}

		prop.RentalIncome = in.RentalIncome
		prop.Expenses = in.OperatingExpenses
		if err := tx.PutProperty(prop); err != nil {
			return fmt.Errorf("save property: %w", err)
		}

		counters, err := tx.Counters()
		if err != nil {
			return fmt.Errorf("load counters: %w", err)
		}
		counters.DividendsDistributed = counters.DividendsDistributed.Add(rec.NetIncome)
		if err := tx.PutCounters(counters); err != nil {
			return fmt.Errorf("save counters: %w", err)
		}

		data, _ := json.Marshal(map[string]interface{}{
			"period":             rec.Period,
			"gross_income":       gross.String(),
			"operating_expenses": rec.OperatingExpenses.String(),
			"management_fees":    rec.ManagementFees.String(),
			"holders":            holders,
		})
		return tx.AppendEvent(domain.LedgerEvent{
			Type:       domain.EventIncomeDistributed,
			PropertyID: in.PropertyID,
			Actor:      call.Caller,
			Amount:     rec.NetIncome,
			Data:       datatypes.JSON(data),
			At:         call.Now,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	log.Info().
		Uint64("property_id", in.PropertyID).
		Uint64("period", in.Period).
		Str("net_income", rec.NetIncome.String()).
		Str("management_fees", rec.ManagementFees.String()).
		Int("holders", holders).
		Msg("Income distributed")
	return rec.NetIncome, nil
}

// snapshotEntitlements writes one unclaimed entitlement per current holder of prop,
// priced on the shares they hold now. Shares that move after this point do not
// change what the period pays out.
func snapshotEntitlements(tx ledger.Tx, prop domain.Property, rec domain.IncomePeriod) (int, error) {
	positions, err := tx.Holders(prop.ID)
	if err != nil {
		return 0, fmt.Errorf("list holders: %w", err)
	}
	total := decimal.NewFromInt(prop.TotalShares)
	for _, pos := range positions {
		if err := tx.PutClaim(domain.DividendClaim{
			PropertyID: rec.PropertyID,
			Period:     rec.Period,
			Holder:     pos.Holder,
			Shares:     pos.SharesOwned,
			Amount:     ledger.MulDiv(rec.NetIncome, decimal.NewFromInt(pos.SharesOwned), total),
		}); err != nil {
			return 0, fmt.Errorf("save entitlement: %w", err)
		}
	}
	return len(positions), nil
}

// ClaimDividends pays the caller's pro-rata share of a period's net income out of custody.
// The share is fixed by the caller's position when the period was distributed, and each
// holder can claim a given period once.
func (s *Service) ClaimDividends(ctx context.Context, call domain.Call, propertyID, period uint64) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		rec, err := tx.IncomePeriod(propertyID, period)
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.ErrNoDistribution
		}
		if err != nil {
			return fmt.Errorf("load income period: %w", err)
		}
		claim, err := tx.Claim(propertyID, period, call.Caller)
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.ErrInsufficientShares
		}
		if err != nil {
			return fmt.Errorf("load claim: %w", err)
		}
		if claim.Claimed {
			return domain.ErrAlreadyClaimed
		}
		amount = claim.Amount
		if amount.Sign() <= 0 {
			return domain.ErrInsufficientShares
		}
		if amount.GreaterThan(rec.Remaining()) {
			return fmt.Errorf("claim of %s exceeds unclaimed income %s for period %d", amount, rec.Remaining(), period)
		}
		pos, err := tx.Position(propertyID, call.Caller)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if err := ledger.Pay(tx, domain.CustodyAccount, call.Caller, amount); err != nil {
			return err
		}

		pos.DividendsEarned = pos.DividendsEarned.Add(amount)
		if err := tx.PutPosition(pos); err != nil {
			return fmt.Errorf("save position: %w", err)
		}
		rec.Claimed = rec.Claimed.Add(amount)
		if err := tx.PutIncomePeriod(rec); err != nil {
			return fmt.Errorf("save income period: %w", err)
		}
		claim.Claimed = true
		claim.ClaimedAt = call.Now
		if err := tx.PutClaim(claim); err != nil {
			return fmt.Errorf("save claim: %w", err)
		}

		data, _ := json.Marshal(map[string]interface{}{
			"period":          period,
			"entitled_shares": claim.Shares,
			"shares_owned":    pos.SharesOwned,
		})
		return tx.AppendEvent(domain.LedgerEvent{
			Type:         domain.EventDividendClaimed,
			PropertyID:   propertyID,
			Actor:        call.Caller,
			Counterparty: domain.CustodyAccount,
			Shares:       claim.Shares,
			Amount:       amount,
			Data:         datatypes.JSON(data),
			At:           call.Now,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	log.Info().
		Uint64("property_id", propertyID).
		Uint64("period", period).
		Str("holder", call.Caller).
		Str("amount", amount.String()).
		Msg("Dividends claimed")
	return amount, nil
}

// CalculateDividendShare previews holder's share of the property's current rental income.
// Missing records yield zero rather than an error.
func (s *Service) CalculateDividendShare(ctx context.Context, propertyID uint64, holder string) (decimal.Decimal, error) {
	share := decimal.Zero
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		prop, err := tx.Property(propertyID)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		pos, err := tx.Position(propertyID, holder)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		share = ledger.MulDiv(prop.RentalIncome, decimal.NewFromInt(pos.SharesOwned), decimal.NewFromInt(prop.TotalShares))
		return nil
	})
	return share, err
}

// GetIncomePeriod returns the recorded income statement for a period.
func (s *Service) GetIncomePeriod(ctx context.Context, propertyID, period uint64) (domain.IncomePeriod, error) {
	var rec domain.IncomePeriod
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		rec, err = tx.IncomePeriod(propertyID, period)
		return err
	})
	if errors.Is(err, ledger.ErrNotFound) {
		return domain.IncomePeriod{}, domain.ErrNoDistribution
	}
	return rec, err
}
