package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/payledger/internal/platform/envutil"
	"github.com/yungbote/payledger/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	ledgerOps       *CounterVec
	ledgerLatency   *HistogramVec
	ledgerConflicts *CounterVec
	ledgerRetries   *CounterVec
	ingestOutcomes  *CounterVec
	revisions       *CounterVec
	eventsPublished *CounterVec
	eventsSeen      *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeEvery time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init returns the process-wide metrics, or nil when METRICS_ENABLED is off.
// Every method is safe on a nil *Metrics.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Metrics enabled", "scrape_interval", instance.scrapeEvery.String())
		}
	})
	return instance
}

func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("payledger_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("payledger_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("payledger_api_inflight_requests", "In-flight API requests."),

		ledgerOps:       NewCounterVec("payledger_ledger_operations_total", "Ledger operations by operation/status.", []string{"operation", "status"}),
		ledgerLatency:   NewHistogramVec("payledger_ledger_operation_duration_seconds", "Ledger operation latency in seconds.", []string{"operation", "status"}, latency),
		ledgerConflicts: NewCounterVec("payledger_ledger_conflicts_total", "Ledger writes that hit a uniqueness conflict.", []string{"operation"}),
		ledgerRetries:   NewCounterVec("payledger_ledger_retryable_total", "Ledger writes that failed with a retryable storage error.", []string{"operation"}),
		ingestOutcomes:  NewCounterVec("payledger_ingest_outcomes_total", "Ingested submissions by outcome status and fingerprint tier.", []string{"status", "tier"}),
		revisions:       NewCounterVec("payledger_revisions_total", "Reviewer revisions by resulting tier and fingerprint change.", []string{"tier", "fingerprint_changed"}),
		eventsPublished: NewCounterVec("payledger_events_published_total", "Ledger events handed to the bus by type/status.", []string{"type", "status"}),
		eventsSeen:      NewCounterVec("payledger_events_seen_total", "Ledger events received from the bus by type and branch, across all instances.", []string{"type", "branch"}),

		dbStats:   NewGaugeVec("payledger_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp:   NewGauge("payledger_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("payledger_redis_ping_seconds", "Redis ping latency in seconds."),

		scrapeEvery: time.Duration(envutil.Int("METRICS_SCRAPE_INTERVAL_SECONDS", 10)) * time.Second,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("Metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, f := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.ledgerOps, m.ledgerLatency, m.ledgerConflicts, m.ledgerRetries,
		m.ingestOutcomes, m.revisions, m.eventsPublished, m.eventsSeen,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := f.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Add(1)
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Add(-1)
	}
}

func (m *Metrics) ObserveLedgerOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.ledgerOps.Inc(operation, status)
	m.ledgerLatency.Observe(dur.Seconds(), operation, status)
}

func (m *Metrics) IncLedgerConflict(operation string) {
	if m != nil {
		m.ledgerConflicts.Inc(operation)
	}
}

func (m *Metrics) IncLedgerRetry(operation string) {
	if m != nil {
		m.ledgerRetries.Inc(operation)
	}
}

func (m *Metrics) IncIngestOutcome(status, tier string) {
	if m != nil {
		m.ingestOutcomes.Inc(status, tier)
	}
}

func (m *Metrics) IncRevision(tier string, fingerprintChanged bool) {
	if m == nil {
		return
	}
	changed := "false"
	if fingerprintChanged {
		changed = "true"
	}
	m.revisions.Inc(tier, changed)
}

func (m *Metrics) IncEventPublished(eventType, status string) {
	if m != nil {
		m.eventsPublished.Inc(eventType, status)
	}
}

// IngestOutcomes reads one ingest outcome counter.
func (m *Metrics) IngestOutcomes(status, tier string) float64 {
	if m == nil {
		return 0
	}
	return m.ingestOutcomes.Value(status, tier)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("Metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings the shared client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("Metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
