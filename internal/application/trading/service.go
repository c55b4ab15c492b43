package trading

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

// Service is the share issuance and transfer engine.
type Service struct {
	Store  ledger.Store
	Policy domain.Policy
}

// Purchase is the outcome of a primary share purchase.
type Purchase struct {
	PropertyID      uint64                     `json:"property_id"`
	Shares          int64                      `json:"shares"`
	Cost            decimal.Decimal            `json:"cost"`
	AvailableShares int64                      `json:"available_shares"`
	Position        domain.ShareholderPosition `json:"position"`
}

// BuyShares sells shares from the property's available pool to the caller at the listed price.
// The cost moves from the buyer's settlement balance into custody in the same transaction.
func (s *Service) BuyShares(ctx context.Context, call domain.Call, propertyID uint64, shares int64) (Purchase, error) {
	var out Purchase
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		prop, err := tx.Property(propertyID)
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.ErrInvalidProperty
		}
		if err != nil {
			return fmt.Errorf("load property: %w", err)
		}
		rec, verified, err := compliance.Verified(tx, call.Caller, call.Now)
		if err != nil {
			return err
		}
		if !verified {
			return domain.ErrKycRequired
		}
		if !prop.IsActive {
			return domain.ErrInvalidProperty
		}
		if shares <= 0 || shares > prop.AvailableShares {
			return domain.ErrInsufficientShares
		}
		cost := prop.SharePrice.Mul(decimal.NewFromInt(shares))
		if cost.LessThan(s.Policy.MinInvestment) {
			return domain.ErrInsufficientShares
		}
		holders, err := tx.CountHolders(propertyID)
		if err != nil {
			return fmt.Errorf("count holders: %w", err)
		}
		if holders >= s.Policy.MaxShareholders {
			return domain.ErrTransferRestricted
		}
		if prop.IsCommercial() && !rec.AccreditedInvestor {
			return domain.ErrNotAccredited
		}

		if err := ledger.Pay(tx, call.Caller, domain.CustodyAccount, cost); err != nil {
			return err
		}

		lockedUntil := call.Now + s.Policy.LockupPeriod
		pos, err := tx.Position(propertyID, call.Caller)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			pos = domain.ShareholderPosition{
				PropertyID:       propertyID,
				Holder:           call.Caller,
				InvestmentAmount: decimal.Zero,
				PurchaseDate:     call.Now,
				DividendsEarned:  decimal.Zero,
			}
		case err != nil:
			return fmt.Errorf("load position: %w", err)
		}
		pos.SharesOwned += shares
		pos.VotingPower += shares
		pos.InvestmentAmount = pos.InvestmentAmount.Add(cost)
		if lockedUntil > pos.LockedUntil {
			pos.LockedUntil = lockedUntil
		}
		pos.IsAccredited = rec.AccreditedInvestor
		if err := tx.PutPosition(pos); err != nil {
			return fmt.Errorf("save position: %w", err)
		}

		prop.AvailableShares -= shares
		if err := tx.PutProperty(prop); err != nil {
			return fmt.Errorf("save property: %w", err)
		}

		data, _ := json.Marshal(map[string]interface{}{
			"share_price":      prop.SharePrice.String(),
			"available_shares": prop.AvailableShares,
			"locked_until":     pos.LockedUntil,
		})
		if err := tx.AppendEvent(domain.LedgerEvent{
			Type:         domain.EventSharesBought,
			PropertyID:   propertyID,
			Actor:        call.Caller,
			Counterparty: domain.CustodyAccount,
			Shares:       shares,
			Amount:       cost,
			Data:         datatypes.JSON(data),
			At:           call.Now,
		}); err != nil {
			return err
		}

		out = Purchase{
			PropertyID:      propertyID,
			Shares:          shares,
			Cost:            cost,
			AvailableShares: prop.AvailableShares,
			Position:        pos,
		}
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	log.Info().
		Uint64("property_id", propertyID).
		Str("buyer", call.Caller).
		Int64("shares", shares).
		Str("cost", out.Cost.String()).
		Msg("Shares bought")
	return out, nil
}

// TransferShares moves shares between holders after the sender's lockup has elapsed.
// No settlement asset moves; a new recipient position carries no investment and no lockup.
func (s *Service) TransferShares(ctx context.Context, call domain.Call, propertyID uint64, to string, shares int64) error {
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		if shares <= 0 {
			return domain.ErrInsufficientShares
		}
		sender, err := tx.Position(propertyID, call.Caller)
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.ErrInsufficientShares
		}
		if err != nil {
			return fmt.Errorf("load sender position: %w", err)
		}
		if sender.SharesOwned < shares {
			return domain.ErrInsufficientShares
		}
		if !sender.Transferable(call.Now) {
			return domain.ErrTransferRestricted
		}
		rec, verified, err := compliance.Verified(tx, to, call.Now)
		if err != nil {
			return err
		}
		if !verified {
			return domain.ErrKycRequired
		}
		prop, err := tx.Property(propertyID)
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.ErrInvalidProperty
		}
		if err != nil {
			return fmt.Errorf("load property: %w", err)
		}
		if prop.IsCommercial() && !rec.AccreditedInvestor {
			return domain.ErrNotAccredited
		}

		sender.SharesOwned -= shares
		sender.VotingPower -= shares
		senderRec, err := tx.Compliance(call.Caller)
		switch {
		case err == nil:
			sender.IsAccredited = senderRec.AccreditedInvestor
		case !errors.Is(err, ledger.ErrNotFound):
			return fmt.Errorf("load sender compliance: %w", err)
		}
		// The sender is written before the recipient is read so a self-transfer nets to zero.
		if err := tx.PutPosition(sender); err != nil {
			return fmt.Errorf("save sender position: %w", err)
		}

		recipient, err := tx.Position(propertyID, to)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			recipient = domain.ShareholderPosition{
				PropertyID:       propertyID,
				Holder:           to,
				InvestmentAmount: decimal.Zero,
				PurchaseDate:     call.Now,
				LockedUntil:      call.Now,
				DividendsEarned:  decimal.Zero,
			}
		case err != nil:
			return fmt.Errorf("load recipient position: %w", err)
		}
		recipient.SharesOwned += shares
		recipient.VotingPower += shares
		recipient.IsAccredited = rec.AccreditedInvestor
		if err := tx.PutPosition(recipient); err != nil {
			return fmt.Errorf("save recipient position: %w", err)
		}

		return tx.AppendEvent(domain.LedgerEvent{
			Type:         domain.EventSharesTransferred,
			PropertyID:   propertyID,
			Actor:        call.Caller,
			Counterparty: to,
			Shares:       shares,
			Amount:       decimal.Zero,
			At:           call.Now,
		})
	})
	if err != nil {
		return err
	}
	log.Info().
		Uint64("property_id", propertyID).
		Str("from", call.Caller).
		Str("to", to).
		Int64("shares", shares).
		Msg("Shares transferred")
	return nil
}
