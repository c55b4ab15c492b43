package storetest

import (
	"context"
	"errors"
	"testing"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomic_RollsBackOnError(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		boom := errors.New("boom")
		err := store.Atomic(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.PutBalance(domain.Balance{Account: "alice", Amount: decimal.NewFromInt(100)}))
			require.NoError(t, tx.AppendEvent(domain.LedgerEvent{Type: domain.EventDeposit, Actor: "alice", At: 1}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			_, err := tx.Balance("alice")
			assert.ErrorIs(t, err, ledger.ErrNotFound)
			events, err := tx.Events(domain.EventFilter{})
			require.NoError(t, err)
			assert.Empty(t, events)
			return nil
		}))
	})
}

func TestAtomic_ReadsOwnWrites(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		require.NoError(t, store.Atomic(context.Background(), func(tx ledger.Tx) error {
			require.NoError(t, tx.PutProperty(domain.Property{ID: 1, Address: "1 Main St", PropertyType: "residential", TotalShares: 1000, IsActive: true}))
			p, err := tx.Property(1)
			require.NoError(t, err)
			assert.Equal(t, "1 Main St", p.Address)

			p.AvailableShares = 10
			require.NoError(t, tx.PutProperty(p))
			p, err = tx.Property(1)
			require.NoError(t, err)
			assert.Equal(t, int64(10), p.AvailableShares)
			return nil
		}))
	})
}

func TestCountHolders_OnlyPositiveBalances(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			for holder, shares := range map[string]int64{"alice": 10, "bob": 0, "carol": 5} {
				require.NoError(t, tx.PutPosition(domain.ShareholderPosition{PropertyID: 1, Holder: holder, SharesOwned: shares}))
			}
			require.NoError(t, tx.PutPosition(domain.ShareholderPosition{PropertyID: 2, Holder: "dave", SharesOwned: 7}))
			return nil
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			n, err := tx.CountHolders(1)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
			return nil
		}))
	})
}

func TestCounters_ZeroBeforeFirstWrite(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Zero(t, c.TotalProperties)
			assert.True(t, c.TotalValueTokenized.IsZero())

			c.TotalProperties = 3
			c.TotalValueTokenized = decimal.NewFromInt(9000)
			return tx.PutCounters(c)
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), c.TotalProperties)
			assert.Equal(t, "9000", c.TotalValueTokenized.String())
			return nil
		}))
	})
}

func TestEvents_FilterAndLimit(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.AppendEvent(domain.LedgerEvent{Type: domain.EventPropertyListed, PropertyID: 1, Actor: "mgr", At: 1}))
			require.NoError(t, tx.AppendEvent(domain.LedgerEvent{Type: domain.EventSharesBought, PropertyID: 1, Actor: "alice", Counterparty: "custody", At: 2}))
			require.NoError(t, tx.AppendEvent(domain.LedgerEvent{Type: domain.EventSharesTransferred, PropertyID: 1, Actor: "alice", Counterparty: "bob", At: 3}))
			require.NoError(t, tx.AppendEvent(domain.LedgerEvent{Type: domain.EventPropertyListed, PropertyID: 2, Actor: "mgr", At: 4}))
			return nil
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			all, err := tx.Events(domain.EventFilter{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, int64(4), all[0].At)

			byProp, err := tx.Events(domain.EventFilter{PropertyID: 1})
			require.NoError(t, err)
			assert.Len(t, byProp, 3)

			bob, err := tx.Events(domain.EventFilter{Identity: "bob"})
			require.NoError(t, err)
			require.Len(t, bob, 1)
			assert.Equal(t, domain.EventSharesTransferred, bob[0].Type)

			limited, err := tx.Events(domain.EventFilter{Limit: 2})
			require.NoError(t, err)
			require.Len(t, limited, 2)
			assert.Equal(t, int64(3), limited[1].At)
			return nil
		}))
	})
}

func TestClaimsAndPeriods_KeyedPerHolder(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.PutIncomePeriod(domain.IncomePeriod{PropertyID: 1, Period: 1, NetIncome: decimal.NewFromInt(500)}))
			return tx.PutClaim(domain.DividendClaim{PropertyID: 1, Period: 1, Holder: "alice", Shares: 10, Amount: decimal.NewFromInt(50)})
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			c, err := tx.Claim(1, 1, "alice")
			require.NoError(t, err)
			c.Claimed = true
			c.ClaimedAt = 42
			return tx.PutClaim(c)
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			rec, err := tx.IncomePeriod(1, 1)
			require.NoError(t, err)
			assert.Equal(t, "500", rec.NetIncome.String())
			_, err = tx.IncomePeriod(1, 2)
			assert.ErrorIs(t, err, ledger.ErrNotFound)

			c, err := tx.Claim(1, 1, "alice")
			require.NoError(t, err)
			assert.True(t, c.Claimed)
			assert.Equal(t, int64(42), c.ClaimedAt)
			assert.Equal(t, int64(10), c.Shares)
			assert.Equal(t, "50", c.Amount.String())
			_, err = tx.Claim(1, 1, "bob")
			assert.ErrorIs(t, err, ledger.ErrNotFound)
			return nil
		}))
	})
}

func TestHolders_PositiveBalancesByHolder(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			for holder, shares := range map[string]int64{"carol": 5, "alice": 10, "bob": 0} {
				require.NoError(t, tx.PutPosition(domain.ShareholderPosition{PropertyID: 1, Holder: holder, SharesOwned: shares}))
			}
			require.NoError(t, tx.PutPosition(domain.ShareholderPosition{PropertyID: 2, Holder: "dave", SharesOwned: 7}))
			return nil
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			holders, err := tx.Holders(1)
			require.NoError(t, err)
			require.Len(t, holders, 2)
			assert.Equal(t, "alice", holders[0].Holder)
			assert.Equal(t, "carol", holders[1].Holder)
			assert.Equal(t, int64(5), holders[1].SharesOwned)

			none, err := tx.Holders(3)
			require.NoError(t, err)
			assert.Empty(t, none)
			return nil
		}))
	})
}

func TestAmounts_KeepEveryDigit(t *testing.T) {
	Each(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		huge, err := decimal.NewFromString("123456789012345678901")
		require.NoError(t, err)
		wider, err := decimal.NewFromString("99999999999999999999999999999999999999")
		require.NoError(t, err)

		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			if _, err := ledger.Credit(tx, "alice", huge); err != nil {
				return err
			}
			if err := tx.PutProperty(domain.Property{ID: 1, Address: "1 Main St", PropertyType: "residential", Valuation: wider, SharePrice: huge, TotalShares: 1}); err != nil {
				return err
			}
			return tx.PutIncomePeriod(domain.IncomePeriod{PropertyID: 1, Period: 1, NetIncome: huge, Claimed: huge.Sub(decimal.NewFromInt(1))})
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			bal, err := ledger.BalanceOf(tx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "123456789012345678901", bal.String())

			_, err = ledger.Credit(tx, "alice", decimal.NewFromInt(1))
			require.NoError(t, err)

			p, err := tx.Property(1)
			require.NoError(t, err)
			assert.Equal(t, wider.String(), p.Valuation.String())
			assert.Equal(t, huge.String(), p.SharePrice.String())

			rec, err := tx.IncomePeriod(1, 1)
			require.NoError(t, err)
			assert.Equal(t, "1", rec.Remaining().String())
			return nil
		}))
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			bal, err := ledger.BalanceOf(tx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "123456789012345678902", bal.String())
			return nil
		}))
	})
}
