package settlement

import (
	"context"
	"errors"
	"fmt"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("Amount must be greater than zero")
	ErrReservedAccount = errors.New("Account is reserved")
)

// Service moves the settlement asset in and out of investor accounts.
type Service struct {
	Store ledger.Store
}

// Deposit credits an investor account with funds received off-ledger and returns the new balance.
// Deposits are idempotent per reference: replaying a reference returns the current balance unchanged.
func (s *Service) Deposit(ctx context.Context, call domain.Call, account string, amount decimal.Decimal, reference string) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	if account == "" || account == domain.CustodyAccount {
		return decimal.Zero, ErrReservedAccount
	}
	var bal decimal.Decimal
	replayed := false
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		if reference != "" {
			prior, err := tx.Events(domain.EventFilter{Identity: account})
			if err != nil {
				return fmt.Errorf("load deposits: %w", err)
			}
			for _, e := range prior {
				if e.Type == domain.EventDeposit && e.Counterparty == reference {
					replayed = true
					bal, err = ledger.BalanceOf(tx, account)
					return err
				}
			}
		}
		var err error
		bal, err = ledger.Credit(tx, account, amount)
		if err != nil {
			return err
		}
		return tx.AppendEvent(domain.LedgerEvent{
			Type:         domain.EventDeposit,
			Actor:        account,
			Counterparty: reference,
			Amount:       amount,
			At:           call.Now,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	if replayed {
		log.Warn().Str("account", account).Str("reference", reference).Msg("Deposit already processed, skipping")
		return bal, nil
	}
	log.Info().Str("account", account).Str("amount", amount.String()).Str("by", call.Caller).Msg("Deposit credited")
	return bal, nil
}

// Balance returns account's settlement balance, zero if it never received funds.
func (s *Service) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		bal, err = ledger.BalanceOf(tx, account)
		return err
	})
	return bal, err
}
