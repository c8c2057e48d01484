package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"sync"
	"time"

	"survivor/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality. Enemy type labels come from config, phases are fixed.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in game tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	enemiesSpawned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_enemies_spawned_total",
		Help: "Enemies activated from a pool",
	}, []string{"type"})

	enemiesKilled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_enemies_killed_total",
		Help: "Enemies killed by the player",
	}, []string{"type"})

	enemiesRecycled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_enemies_recycled_total",
		Help: "Enemies returned to their pool",
	}, []string{"type"})

	poolGrowth = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_pool_grown_total",
		Help: "Instances added to a pool after prewarm",
	}, []string{"type"})

	poolIdle = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "game_pool_idle",
		Help: "Idle instances per pool",
	}, []string{"type"})

	poolLive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "game_pool_live",
		Help: "Live instances per pool",
	}, []string{"type"})

	matchPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_match_phase",
		Help: "Current phase (0 init, 1 preparation, 2 playing, 3 resolution)",
	})

	phaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_phase_transitions_total",
		Help: "Phase changes by destination phase",
	}, []string{"to"})

	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "invalid", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket broadcasts sent",
	})
)

// MetricsHooks returns engine hooks that feed the collectors above.
func MetricsHooks() game.Hooks {
	return game.Hooks{
		OnTick: RecordTick,
		OnPhaseChange: func(from, to game.Phase) {
			matchPhase.Set(float64(to))
			phaseTransitions.WithLabelValues(to.String()).Inc()
		},
		OnSpawn: func(typ game.EnemyType) {
			enemiesSpawned.WithLabelValues(string(typ)).Inc()
		},
		OnKill: func(typ game.EnemyType) {
			enemiesKilled.WithLabelValues(string(typ)).Inc()
		},
		OnRecycle: func(typ game.EnemyType) {
			enemiesRecycled.WithLabelValues(string(typ)).Inc()
		},
		OnPoolGrow: func(typ game.EnemyType, n int) {
			poolGrowth.WithLabelValues(string(typ)).Add(float64(n))
		},
	}
}

// StartDebugServer starts the internal observability server.
// An empty address disables it. Non-loopback hosts are rebound to 127.0.0.1
// unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(addr string) error {
	if addr == "" {
		log.Println("📊 Debug server disabled")
		return nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if !isLoopback(host) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost for security")
		addr = net.JoinHostPort("127.0.0.1", port)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", ln.Addr())
		log.Printf("   - pprof:   http://%s/debug/pprof/", ln.Addr())
		log.Printf("   - metrics: http://%s/metrics", ln.Addr())

		if err := http.Serve(ln, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// statsExporter turns cumulative engine counters into Prometheus counter increments.
type statsExporter struct {
	mu          sync.Mutex
	lastTotal   uint64
	lastDropped uint64
}

// Export updates pool gauges and event log counters from a stats sample.
func (x *statsExporter) Export(stats game.EngineStats) {
	for _, p := range stats.Pools {
		poolIdle.WithLabelValues(string(p.Type)).Set(float64(p.Idle))
		poolLive.WithLabelValues(string(p.Type)).Set(float64(p.Live))
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	// Counters only go up, so feed the deltas
	if t := stats.EventLog.Total; t > x.lastTotal {
		eventLogTotal.Add(float64(t - x.lastTotal))
		x.lastTotal = t
	}
	if d := stats.EventLog.Dropped; d > x.lastDropped {
		eventLogDropped.Add(float64(d - x.lastDropped))
		x.lastDropped = d
	}
}

// metricsMiddleware records latency per chi route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// RecordTick records tick timing for metrics
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
