package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"estate-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// BalanceOf returns the settlement balance of account, zero when it has never been credited.
func BalanceOf(tx Tx, account string) (decimal.Decimal, error) {
	b, err := tx.Balance(account)
	if errors.Is(err, ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load balance: %w", err)
	}
	return b.Amount, nil
}

// Pay moves amount of the settlement asset from one account to another.
// Either both sides are written or, on ErrInsufficientFunds, neither.
func Pay(tx Tx, from, to string, amount decimal.Decimal) error {
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := BalanceOf(tx, from)
	if err != nil {
		return err
	}
	if fromBal.LessThan(amount) {
		return domain.ErrInsufficientFunds
	}
	toBal, err := BalanceOf(tx, to)
	if err != nil {
		return err
	}
	if err := tx.PutBalance(domain.Balance{Account: from, Amount: fromBal.Sub(amount)}); err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if err := tx.PutBalance(domain.Balance{Account: to, Amount: toBal.Add(amount)}); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

// Credit adds amount to account without a counter-entry. Used for external deposits.
func Credit(tx Tx, account string, amount decimal.Decimal) (decimal.Decimal, error) {
	bal, err := BalanceOf(tx, account)
	if err != nil {
		return decimal.Zero, err
	}
	bal = bal.Add(amount)
	if err := tx.PutBalance(domain.Balance{Account: account, Amount: bal}); err != nil {
		return decimal.Zero, fmt.Errorf("credit %s: %w", account, err)
	}
	return bal, nil
}

// Mint issues the ownership certificate for a property. It fails if one was already minted.
func Mint(tx Tx, propertyID uint64, owner string, now int64) error {
	_, err := tx.Certificate(propertyID)
	if err == nil {
		return domain.ErrCertificateExists
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load certificate: %w", err)
	}
	return tx.PutCertificate(domain.Certificate{PropertyID: propertyID, Owner: owner, MintedAt: now})
}

// MulDiv returns a*b/c truncated toward zero, computed on integers so no precision is lost.
// Fractional parts of the operands are discarded first.
func MulDiv(a, b, c decimal.Decimal) decimal.Decimal {
	if c.Sign() == 0 {
		return decimal.Zero
	}
	n := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return decimal.NewFromBigInt(n.Quo(n, c.BigInt()), 0)
}
