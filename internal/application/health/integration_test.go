//go:build integration

package health

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Run with: go test -tags=integration ./internal/application/health/... -run TestCollect_RealRedis -v
func TestCollect_RealRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	r := (&Checker{Rdb: rdb}).Collect(context.Background())
	require.Equal(t, "connected", r.Dependencies["redis"].Status)
	require.NotNil(t, r.Dependencies["redis"].PingMs)
	require.Equal(t, StatusDegraded, r.Status)
}
