package stats

import (
	"context"
	"testing"
	"time"

	txsvc "estate-ledger/internal/application/transactions"
	"estate-ledger/internal/domain"
	"estate-ledger/internal/infrastructure/memory"
	"estate-ledger/internal/infrastructure/metrics"
	"estate-ledger/internal/ledger"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T) (*Job, *redis.Client, *metrics.Metrics) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.New()
	require.NoError(t, store.Atomic(context.Background(), func(tx ledger.Tx) error {
		require.NoError(t, tx.PutProperty(domain.Property{ID: 1, IsActive: true}))
		require.NoError(t, tx.PutCounters(domain.Counters{TotalProperties: 1, TotalValueTokenized: decimal.NewFromInt(42)}))
		_, err := ledger.Credit(tx, domain.CustodyAccount, decimal.NewFromInt(9))
		return err
	}))
	m := metrics.New(prometheus.NewRegistry())
	job := &Job{
		Stats:   &txsvc.Service{Store: store},
		Rdb:     rdb,
		Metrics: m,
		Now:     func() time.Time { return time.Unix(1_700_000_000, 0) },
	}
	return job, rdb, m
}

func TestRun_PublishesSnapshot(t *testing.T) {
	job, rdb, m := newJob(t)
	ctx := context.Background()

	_, ok, err := Load(ctx, rdb)
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.TotalProperties)
	assert.Equal(t, 1, snap.ActiveProperties)
	assert.Equal(t, "42", snap.TotalValueTokenized)
	assert.Equal(t, "9", snap.CustodyBalance)
	assert.Equal(t, int64(1_700_000_000), snap.TakenAt)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TotalProperties))

	loaded, ok, err := Load(ctx, rdb)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, loaded)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	job, _, _ := newJob(t)
	_, err := job.Start("not a schedule")
	assert.Error(t, err)

	c, err := job.Start("")
	require.NoError(t, err)
	<-c.Stop().Done()
}

func TestLoad_NilClient(t *testing.T) {
	_, ok, err := Load(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
