package settlement

import (
	"context"
	"testing"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/infrastructure/storetest"
	"estate-ledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeposit_CreditsAndIsIdempotentPerReference(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		svc := &Service{Store: store}
		ctx := context.Background()
		call := domain.Call{Caller: "operator", Now: 10}

		bal, err := svc.Deposit(ctx, call, "alice", decimal.NewFromInt(500), "wire-1")
		require.NoError(t, err)
		assert.Equal(t, "500", bal.String())

		bal, err = svc.Deposit(ctx, call, "alice", decimal.NewFromInt(500), "wire-1")
		require.NoError(t, err)
		assert.Equal(t, "500", bal.String())

		bal, err = svc.Deposit(ctx, call, "alice", decimal.NewFromInt(250), "wire-2")
		require.NoError(t, err)
		assert.Equal(t, "750", bal.String())

		// no reference means no replay protection
		_, err = svc.Deposit(ctx, call, "alice", decimal.NewFromInt(1), "")
		require.NoError(t, err)
		_, err = svc.Deposit(ctx, call, "alice", decimal.NewFromInt(1), "")
		require.NoError(t, err)

		bal, err = svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "752", bal.String())
	})
}

func TestDeposit_Rejections(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		svc := &Service{Store: store}
		ctx := context.Background()
		call := domain.Call{Caller: "operator", Now: 10}

		_, err := svc.Deposit(ctx, call, "alice", decimal.Zero, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.Deposit(ctx, call, domain.CustodyAccount, decimal.NewFromInt(1), "x")
		assert.ErrorIs(t, err, ErrReservedAccount)

		bal, err := svc.Balance(ctx, domain.CustodyAccount)
		require.NoError(t, err)
		assert.True(t, bal.IsZero())
	})
}
