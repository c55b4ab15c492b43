// Package stats snapshots the ledger totals into Redis on a cron schedule so the health
// dashboard can show them without opening a store transaction per page view.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	txsvc "estate-ledger/internal/application/transactions"
	"estate-ledger/internal/infrastructure/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	KeySnapshot     = "ledger:stats:snapshot"
	DefaultSchedule = "@every 1m"
)

// Snapshot is the JSON stored under KeySnapshot. Amounts are decimal strings.
type Snapshot struct {
	TotalProperties      uint64 `json:"total_properties"`
	ActiveProperties     int    `json:"active_properties"`
	TotalValueTokenized  string `json:"total_value_tokenized"`
	DividendsDistributed string `json:"dividends_distributed"`
	CustodyBalance       string `json:"custody_balance"`
	TakenAt              int64  `json:"taken_at"`
}

// Job periodically reads ledger stats and publishes them.
type Job struct {
	Stats   *txsvc.Service
	Rdb     *redis.Client
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Run takes one snapshot.
func (j *Job) Run(ctx context.Context) (Snapshot, error) {
	st, err := j.Stats.ViewStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	snap := Snapshot{
		TotalProperties:      st.TotalProperties,
		ActiveProperties:     st.ActiveProperties,
		TotalValueTokenized:  st.TotalValueTokenized.String(),
		DividendsDistributed: st.DividendsDistributed.String(),
		CustodyBalance:       st.CustodyBalance.String(),
		TakenAt:              now().Unix(),
	}
	j.Metrics.SetTotalProperties(st.TotalProperties)
	if j.Rdb != nil {
		b, _ := json.Marshal(snap)
		if err := j.Rdb.Set(ctx, KeySnapshot, b, 0).Err(); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// Start registers the job on a new cron scheduler and starts it. Callers stop it with Stop().
func (j *Job) Start(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		snap, err := j.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Ledger stats snapshot failed")
			return
		}
		log.Debug().Uint64("total_properties", snap.TotalProperties).Str("custody", snap.CustodyBalance).Msg("Ledger stats snapshot taken")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// Load reads the last published snapshot; ok is false if none exists yet.
func Load(ctx context.Context, rdb *redis.Client) (Snapshot, bool, error) {
	var snap Snapshot
	if rdb == nil {
		return snap, false, nil
	}
	b, err := rdb.Get(ctx, KeySnapshot).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}
