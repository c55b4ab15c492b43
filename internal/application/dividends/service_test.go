package dividends

import (
	"context"
	"strings"
	"testing"

	"estate-ledger/internal/application/compliance"
	"estate-ledger/internal/application/listings"
	"estate-ledger/internal/application/trading"
	"estate-ledger/internal/domain"
	"estate-ledger/internal/infrastructure/storetest"
	"estate-ledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type env struct {
	store ledger.Store
	svc   *Service
	trade *trading.Service
	id    uint64
	now   int64
}

func (e *env) call(caller string) domain.Call {
	return domain.Call{Caller: caller, Now: e.now}
}

// newEnv lists a 1000-share residential property for "manager" and verifies the given investors.
func newEnv(t *testing.T, store ledger.Store, investors ...string) *env {
	ctx := context.Background()
	policy := domain.DefaultPolicy()
	e := &env{
		store: store,
		svc:   &Service{Store: store, Policy: policy},
		trade: &trading.Service{Store: store, Policy: policy},
		now:   1_000,
	}
	kyc := &compliance.Service{Store: store, Policy: policy}
	for _, who := range append([]string{"manager"}, investors...) {
		_, err := kyc.RegisterKyc(ctx, e.call(who), "US", false)
		require.NoError(t, err)
	}
	props := &listings.Service{Store: store, Policy: policy}
	id, err := props.ListProperty(ctx, e.call("manager"), listings.ListPropertyInput{
		Address:        "1 Infinite Loop",
		PropertyType:   "residential",
		Valuation:      amt(1_000_000_000),
		TotalShares:    1000,
		RentalIncome:   decimal.Zero,
		Expenses:       decimal.Zero,
		ComplianceHash: strings.Repeat("cd", 32),
	})
	require.NoError(t, err)
	e.id = id
	return e
}

func (e *env) buy(t *testing.T, who string, shares int64) {
	require.NoError(t, e.store.Atomic(context.Background(), func(tx ledger.Tx) error {
		_, err := ledger.Credit(tx, who, amt(shares*1_000_000))
		return err
	}))
	_, err := e.trade.BuyShares(context.Background(), e.call(who), e.id, shares)
	require.NoError(t, err)
}

func (e *env) balance(t *testing.T, account string) string {
	var bal decimal.Decimal
	require.NoError(t, e.store.Atomic(context.Background(), func(tx ledger.Tx) error {
		var err error
		bal, err = ledger.BalanceOf(tx, account)
		return err
	}))
	return bal.String()
}

func income(id, period uint64, rental, other, opex int64) DistributeIncomeInput {
	return DistributeIncomeInput{
		PropertyID:        id,
		Period:            period,
		RentalIncome:      amt(rental),
		OtherIncome:       amt(other),
		OperatingExpenses: amt(opex),
	}
}

func TestDistributeAndClaim_SoleHolder(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice")
		ctx := context.Background()
		e.buy(t, "alice", 1000)

		net, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 100_000, 0, 10_000))
		require.NoError(t, err)
		assert.Equal(t, "88000", net.String())

		rec, err := e.svc.GetIncomePeriod(ctx, e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "2000", rec.ManagementFees.String())
		assert.Equal(t, "88000", rec.NetIncome.String())

		paid, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "88000", paid.String())
		assert.Equal(t, "88000", e.balance(t, "alice"))

		_, err = e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
		assert.Equal(t, "88000", e.balance(t, "alice"))

		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			pos, err := tx.Position(e.id, "alice")
			require.NoError(t, err)
			assert.Equal(t, "88000", pos.DividendsEarned.String())
			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Equal(t, "88000", c.DividendsDistributed.String())
			return nil
		}))
	})
}

func TestClaimDividends_OncePerHolderPerPeriod(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice", "bob")
		ctx := context.Background()
		e.buy(t, "alice", 300)
		e.buy(t, "bob", 100)

		_, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 1_000_000, 0, 0))
		require.NoError(t, err)
		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 2, 1_000_000, 0, 0))
		require.NoError(t, err)

		a1, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "294000", a1.String())

		// alice claiming does not block bob, and a new period is claimable again
		b1, err := e.svc.ClaimDividends(ctx, e.call("bob"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "98000", b1.String())
		_, err = e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 2)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err = e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
			assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
		}
		assert.Equal(t, "588000", e.balance(t, "alice"))
	})
}

// afterLockup moves the env's clock past every lockup set so far.
func (e *env) afterLockup() {
	e.now += domain.DefaultLockupPeriod + 1
}

func (e *env) period(t *testing.T, period uint64) domain.IncomePeriod {
	rec, err := e.svc.GetIncomePeriod(context.Background(), e.id, period)
	require.NoError(t, err)
	return rec
}

func TestClaimDividends_TransferredSharesDoNotClaimTwice(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice", "bob")
		ctx := context.Background()
		e.buy(t, "alice", 1000)

		_, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 100_000, 0, 10_000))
		require.NoError(t, err)
		paid, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "88000", paid.String())
		custody := e.balance(t, domain.CustodyAccount)

		e.afterLockup()
		require.NoError(t, e.trade.TransferShares(ctx, e.call("alice"), e.id, "bob", 1000))

		_, err = e.svc.ClaimDividends(ctx, e.call("bob"), e.id, 1)
		assert.ErrorIs(t, err, domain.ErrInsufficientShares)
		assert.Equal(t, custody, e.balance(t, domain.CustodyAccount))
		assert.Equal(t, "0", e.balance(t, "bob"))
		assert.Equal(t, "88000", e.period(t, 1).Claimed.String())

		// the next period follows the new owner
		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 2, 100_000, 0, 10_000))
		require.NoError(t, err)
		_, err = e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 2)
		assert.ErrorIs(t, err, domain.ErrInsufficientShares)
		paid, err = e.svc.ClaimDividends(ctx, e.call("bob"), e.id, 2)
		require.NoError(t, err)
		assert.Equal(t, "88000", paid.String())
	})
}

func TestClaimDividends_EntitlementSurvivesTransferOut(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice", "bob")
		ctx := context.Background()
		e.buy(t, "alice", 600)
		e.buy(t, "bob", 400)

		_, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 100_000, 0, 10_000))
		require.NoError(t, err)

		e.afterLockup()
		require.NoError(t, e.trade.TransferShares(ctx, e.call("alice"), e.id, "bob", 600))

		a, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "52800", a.String())
		b, err := e.svc.ClaimDividends(ctx, e.call("bob"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "35200", b.String())

		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			c, err := tx.Claim(e.id, 1, "bob")
			require.NoError(t, err)
			assert.Equal(t, int64(400), c.Shares)
			assert.True(t, c.Claimed)
			assert.Equal(t, e.now, c.ClaimedAt)
			return nil
		}))
	})
}

func TestClaimDividends_PaidNeverExceedsNetIncome(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		holders := []string{"alice", "bob", "carol", "dave"}
		e := newEnv(t, store, holders...)
		ctx := context.Background()
		e.buy(t, "alice", 333)
		e.buy(t, "bob", 333)
		e.buy(t, "carol", 334)
		startCustody, err := decimal.NewFromString(e.balance(t, domain.CustodyAccount))
		require.NoError(t, err)

		// claims interleave with shares moving between every holder
		moves := []struct {
			from, to string
			shares   int64
		}{
			{"alice", "dave", 333},
			{"carol", "alice", 200},
			{"bob", "carol", 100},
			{"dave", "bob", 333},
		}
		paid := map[uint64]decimal.Decimal{}
		for period := uint64(0); period < 3; period++ {
			_, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, period, 1_000_001, 7, 3))
			require.NoError(t, err)
			paid[period] = decimal.Zero
		}
		claimAll := func() {
			for period := range paid {
				for _, who := range holders {
					amount, err := e.svc.ClaimDividends(ctx, e.call(who), e.id, period)
					if err != nil {
						continue
					}
					paid[period] = paid[period].Add(amount)
				}
			}
		}

		claimAll()
		for _, m := range moves {
			e.afterLockup()
			require.NoError(t, e.trade.TransferShares(ctx, e.call(m.from), e.id, m.to, m.shares))
			claimAll()
		}

		total := decimal.Zero
		for period, sum := range paid {
			rec := e.period(t, period)
			assert.True(t, sum.LessThanOrEqual(rec.NetIncome), "period %d paid %s of %s", period, sum, rec.NetIncome)
			assert.Equal(t, sum.String(), rec.Claimed.String())
			total = total.Add(sum)
		}
		endCustody, err := decimal.NewFromString(e.balance(t, domain.CustodyAccount))
		require.NoError(t, err)
		assert.Equal(t, total.String(), startCustody.Sub(endCustody).String())
	})
}

func TestClaimDividends_ProRataTruncates(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice")
		ctx := context.Background()
		e.buy(t, "alice", 3)

		// net = 1000 - 20 = 980; 980 * 3 / 1000 = 2.94
		_, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 7, 1_000, 0, 0))
		require.NoError(t, err)
		paid, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 7)
		require.NoError(t, err)
		assert.Equal(t, "2", paid.String())
	})
}

func TestClaimDividends_Rejections(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice", "bob")
		ctx := context.Background()
		e.buy(t, "alice", 1)

		_, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		assert.ErrorIs(t, err, domain.ErrNoDistribution)

		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 100, 0, 0))
		require.NoError(t, err)

		_, err = e.svc.ClaimDividends(ctx, e.call("bob"), e.id, 1)
		assert.ErrorIs(t, err, domain.ErrInsufficientShares)

		// 98 * 1 / 1000 truncates to zero
		_, err = e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		assert.ErrorIs(t, err, domain.ErrInsufficientShares)
	})
}

func TestClaimDividends_CustodyShortfallIsRetryable(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store)
		ctx := context.Background()
		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			return tx.PutPosition(domain.ShareholderPosition{
				PropertyID: e.id, Holder: "alice", SharesOwned: 500,
				InvestmentAmount: decimal.Zero, DividendsEarned: decimal.Zero,
			})
		}))
		_, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 10_000, 0, 0))
		require.NoError(t, err)

		_, err = e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			_, err := ledger.Credit(tx, domain.CustodyAccount, amt(1_000_000))
			return err
		}))
		paid, err := e.svc.ClaimDividends(ctx, e.call("alice"), e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "4900", paid.String())
	})
}

func TestDistributeIncome_Rejections(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice")
		ctx := context.Background()

		_, err := e.svc.DistributeIncome(ctx, e.call("alice"), income(e.id, 1, 100_000, 0, 0))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(99, 1, 100_000, 0, 0))
		assert.ErrorIs(t, err, domain.ErrInvalidProperty)

		// expenses 99_000 + fees 2_000 exceed gross 100_000
		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 100_000, 0, 99_000))
		assert.ErrorIs(t, err, domain.ErrInvalidIncome)

		net, err := e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 100_000, 0, 98_000))
		require.NoError(t, err)
		assert.True(t, net.IsZero())

		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 5, 0, 0))
		assert.ErrorIs(t, err, domain.ErrPeriodAlreadyDistributed)

		rec, err := e.svc.GetIncomePeriod(ctx, e.id, 1)
		require.NoError(t, err)
		assert.Equal(t, "100000", rec.RentalIncome.String())

		_, err = e.svc.GetIncomePeriod(ctx, e.id, 2)
		assert.ErrorIs(t, err, domain.ErrNoDistribution)
	})
}

func TestDistributeIncome_OtherIncomeCountsTowardFees(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store)
		net, err := e.svc.DistributeIncome(context.Background(), e.call("manager"), income(e.id, 3, 60_000, 40_000, 0))
		require.NoError(t, err)
		assert.Equal(t, "98000", net.String())
	})
}

func TestCalculateDividendShare(t *testing.T) {
	storetest.Each(t, func(t *testing.T, store ledger.Store) {
		e := newEnv(t, store, "alice")
		ctx := context.Background()

		share, err := e.svc.CalculateDividendShare(ctx, 99, "alice")
		require.NoError(t, err)
		assert.True(t, share.IsZero())

		share, err = e.svc.CalculateDividendShare(ctx, e.id, "ghost")
		require.NoError(t, err)
		assert.True(t, share.IsZero())

		e.buy(t, "alice", 250)
		_, err = e.svc.DistributeIncome(ctx, e.call("manager"), income(e.id, 1, 40_000, 0, 4_000))
		require.NoError(t, err)

		// previews the property's current rental income, not the net
		share, err = e.svc.CalculateDividendShare(ctx, e.id, "alice")
		require.NoError(t, err)
		assert.Equal(t, "10000", share.String())

		require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
			prop, err := tx.Property(e.id)
			require.NoError(t, err)
			assert.Equal(t, "40000", prop.RentalIncome.String())
			assert.Equal(t, "4000", prop.Expenses.String())
			return nil
		}))
	})
}
