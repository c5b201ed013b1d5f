package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xAmaan/wander-zero-to-dev/internal/cache"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/deploy"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/docker"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/environment"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/registry"
	"github.com/0xAmaan/wander-zero-to-dev/internal/ws"
	"github.com/0xAmaan/wander-zero-to-dev/pkg/config"
)

const (
	rateWindowDefault  = time.Minute
	healthCheckTimeout = 2 * time.Second
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux    *http.ServeMux
	logger *slog.Logger

	registry     registry.Service
	environments environment.Service
	deployments  deploy.Service
	docker       docker.Service

	store    cache.Store
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter

	dbPing      func(context.Context) error
	environment string
	cacheTTL    time.Duration
	corsOrigins map[string]struct{}
	readLimit   int
	writeLimit  int
	startedAt   time.Time

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	cacheResults       *prometheus.CounterVec
	rateLimitHits      *prometheus.CounterVec
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, registrySvc registry.Service, environmentSvc environment.Service, deploySvc deploy.Service, dockerSvc docker.Service, store cache.Store, hub *ws.Hub, limiter RateLimiter, dbPing func(context.Context) error, cfg config.APIConfig) *Router {
	origins := make(map[string]struct{})
	for _, origin := range strings.Split(cfg.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins[origin] = struct{}{}
		}
	}
	r := &Router{
		mux:          http.NewServeMux(),
		logger:       logger,
		registry:     registrySvc,
		environments: environmentSvc,
		deployments:  deploySvc,
		docker:       dockerSvc,
		store:        store,
		hub:          hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:     limiter,
		dbPing:      dbPing,
		environment: cfg.Environment,
		cacheTTL:    cfg.CacheTTL,
		corsOrigins: origins,
		readLimit:   cfg.RateLimitRead,
		writeLimit:  cfg.RateLimitWrite,
		startedAt:   time.Now(),
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/", r.audit(r.cors(r.handleRoot)))
	r.mux.HandleFunc("/health", r.audit(r.cors(r.handleHealth)))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/api/services", r.audit(r.cors(r.limited(r.handleServices))))
	r.mux.HandleFunc("/api/services/", r.audit(r.cors(r.limited(r.handleServiceByID))))
	r.mux.HandleFunc("/api/environments", r.audit(r.cors(r.limited(r.handleEnvironments))))
	r.mux.HandleFunc("/api/deployments", r.audit(r.cors(r.limited(r.handleDeployments))))
	r.mux.HandleFunc("/api/deployments/", r.audit(r.cors(r.limited(r.handleDeploymentByID))))
	r.mux.HandleFunc("/api/cache", r.audit(r.cors(r.limited(r.handleCacheClear))))
	r.mux.HandleFunc("/api/cache/stats", r.audit(r.cors(r.limited(r.handleCacheStats))))
	r.mux.HandleFunc("/api/docker/status", r.audit(r.cors(r.limited(r.handleDockerStatus))))
	r.mux.HandleFunc("/api/docker/logs/", r.audit(r.cors(r.limited(r.handleDockerLogs))))
	r.mux.HandleFunc("/ws/events", r.audit(r.handleEvents))
}

// limited applies the read limit to GETs and the write limit to mutations,
// keyed by client IP.
func (r *Router) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := r.writeLimit
		if req.Method == http.MethodGet {
			limit = r.readLimit
		}
		r.withRateLimit(limit, rateWindowDefault, rateLimitKeyIP, next)(w, req)
	}
}

// cors applies the configured allow-list and answers preflight requests.
func (r *Router) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if origin := req.Header.Get("Origin"); origin != "" {
			if _, ok := r.corsOrigins[origin]; ok {
				headers := w.Header()
				headers.Set("Access-Control-Allow-Origin", origin)
				headers.Set("Access-Control-Allow-Credentials", "true")
				headers.Add("Vary", "Origin")
			}
		}
		if req.Method == http.MethodOptions {
			headers := w.Header()
			headers.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, req)
	}
}

func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		r.notFound(w, req)
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Wander API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]string{
			"health": "/health",
			"api":    "/api/*",
		},
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	services := map[string]any{
		"postgres": map[string]any{"connected": false},
		"redis":    map[string]any{"connected": false},
	}

	pgStart := time.Now()
	pgErr := r.dbPing(ctx)
	if pgErr == nil {
		services["postgres"] = map[string]any{
			"connected": true,
			"latency":   time.Since(pgStart).Milliseconds(),
		}
	}

	redisLatency, redisErr := r.store.Ping(ctx)
	if redisErr == nil {
		services["redis"] = map[string]any{
			"connected": true,
			"latency":   redisLatency.Milliseconds(),
		}
	}

	payload := map[string]any{
		"status":      "healthy",
		"timestamp":   timestamp,
		"services":    services,
		"uptime":      int64(time.Since(r.startedAt).Seconds()),
		"environment": r.environment,
	}
	code := http.StatusOK
	if pgErr != nil || redisErr != nil {
		payload["status"] = "unhealthy"
		code = http.StatusServiceUnavailable
		if pgErr != nil {
			r.logger.Error("health check: postgres unreachable", "error", pgErr)
		}
		if redisErr != nil {
			r.logger.Error("health check: redis unreachable", "error", redisErr)
		}
	}
	writeJSON(w, code, payload)
}

// handleEvents upgrades to a websocket subscribed to mutation events.
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	topic := req.URL.Query().Get("topic")
	if topic == "" {
		topic = deploy.Topic
	}
	if topic != deploy.Topic {
		writeError(w, http.StatusBadRequest, "unknown topic: "+topic)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(topic, client)
	go func() {
		defer func() {
			r.hub.Unregister(topic, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		requestID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	writeError(w, http.StatusNotFound, "route "+req.Method+" "+req.URL.Path+" not found")
}
