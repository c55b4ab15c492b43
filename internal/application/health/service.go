package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"estate-ledger/internal/application/stats"
	"estate-ledger/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	depConnected    = "connected"
	depDisconnected = "disconnected"
	depError        = "error"
)

// DBPinger is the ledger store health probe.
type DBPinger interface {
	Ping() error
}

// Report is the shape served by /health/json and rendered by the dashboard.
type Report struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
	Ledger       *stats.Snapshot      `json:"ledger"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapAllocMB   uint64 `json:"heapAllocMb"`
	HeapInuseMB   uint64 `json:"heapInuseMb"`
	Goroutines    int    `json:"goroutines"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest,omitempty"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Checker probes the store and Redis and reads the request counters kept by middleware.HealthMarker.
type Checker struct {
	Rdb   *redis.Client
	Store DBPinger
}

// Collect builds a report. The service is ok only when both the store and Redis answer.
func (ch *Checker) Collect(ctx context.Context) Report {
	r := Report{
		Dependencies: map[string]DepStatus{},
		Traffic:      TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"},
	}

	r.Dependencies["database"] = depDisconnectedStatus()
	if ch.Store != nil {
		r.Dependencies["database"] = probe(ch.Store.Ping)
	}
	r.Dependencies["redis"] = depDisconnectedStatus()
	startMs := time.Now().UnixMilli()
	if ch.Rdb != nil {
		r.Dependencies["redis"] = probe(func() error { return ch.Rdb.Ping(ctx).Err() })
	}
	if r.Dependencies["redis"].Status == depConnected {
		startMs = ch.readTraffic(ctx, &r.Traffic, startMs)
		if snap, ok, err := stats.Load(ctx, ch.Rdb); err != nil {
			log.Warn().Err(err).Msg("Failed to load ledger snapshot")
		} else if ok {
			r.Ledger = &snap
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	r.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		HeapAllocMB:   m.HeapAlloc >> 20,
		HeapInuseMB:   m.HeapInuse >> 20,
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:     runtime.Version(),
	}

	r.Status = StatusOK
	for _, d := range r.Dependencies {
		if d.Status != depConnected {
			r.Status = StatusDegraded
		}
	}
	return r
}

// readTraffic fills t from the health counters and returns the recorded start time,
// initialising it on first use.
func (ch *Checker) readTraffic(ctx context.Context, t *TrafficInfo, now int64) int64 {
	vals, err := ch.Rdb.MGet(ctx,
		middleware.KeyReqTotal,
		middleware.KeyReqErrors,
		middleware.KeyResTime,
		middleware.KeyResCount,
		middleware.KeyStartTime,
		middleware.KeyLastReq,
	).Result()
	if err != nil || len(vals) != 6 {
		return now
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	t.TotalRequests, _ = strconv.Atoi(str(0))
	t.FailedCount, _ = strconv.Atoi(str(1))
	t.SuccessCount = t.TotalRequests - t.FailedCount
	if t.TotalRequests > 0 {
		t.SuccessRate = strconv.FormatFloat(float64(t.SuccessCount)/float64(t.TotalRequests)*100, 'f', 1, 64)
	}
	sum, _ := strconv.ParseFloat(str(2), 64)
	if n, _ := strconv.Atoi(str(3)); n > 0 {
		t.AvgResponseTime = strconv.FormatFloat(sum/float64(n), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		_ = json.Unmarshal([]byte(last), &t.LastRequest)
	}

	if start, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		return start
	}
	ch.Rdb.Set(ctx, middleware.KeyStartTime, now, 0)
	return now
}

func probe(ping func() error) DepStatus {
	start := time.Now()
	if err := ping(); err != nil {
		return DepStatus{Status: depError}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: depConnected, PingMs: &ms}
}

func depDisconnectedStatus() DepStatus {
	return DepStatus{Status: depDisconnected}
}
