package control

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	tracerName      = "github.com/signalsfoundry/orrery-sim/internal/control"
	requestIDHeader = "X-Request-ID"
)

// requestContext sources a request ID from the inbound header when present,
// attaches a per-request logger and echoes the ID back to the client.
func requestContext(base logging.Logger, next http.Handler) http.Handler {
	base = logging.OrNoop(base)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get(requestIDHeader); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, id := logging.EnsureRequestID(ctx)
		reqLog := base.With(logging.String("method", r.Method), logging.String("path", r.URL.Path))
		ctx = logging.ContextWithLogger(ctx, reqLog)

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// traced wraps next in a server span named after route.
func traced(route string, next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "control "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		}
		if id := logging.RequestIDFromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("request_id", id))
		}
		span.SetAttributes(attrs...)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitConfig bounds requests per client address.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	TrustProxy        bool
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	cfg     RateLimitConfig
	metrics *observability.ControlCollector
	log     logging.Logger

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter returns a limiter for cfg. Call Cleanup periodically to drop
// idle clients.
func NewRateLimiter(cfg RateLimitConfig, metrics *observability.ControlCollector, log logging.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		metrics: metrics,
		log:     logging.OrNoop(log),
		clients: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.clients[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
		rl.clients[key] = l
	}
	return l
}

// Cleanup forgets clients whose bucket has refilled completely.
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, l := range rl.clients {
		if l.TokensAt(now) >= float64(rl.cfg.Burst) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// Clients reports how many client buckets are tracked.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests beyond the per-client budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl == nil || !rl.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r, rl.cfg.TrustProxy)
		if !rl.limiter(ip).Allow() {
			rl.metrics.IncRateLimited()
			logging.FromContext(r.Context(), rl.log).Warn(r.Context(), "rate limit exceeded",
				logging.String("client_ip", ip),
				logging.Float("requests_per_second", rl.cfg.RequestsPerSecond),
				logging.Int("burst", rl.cfg.Burst),
			)
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error:   "rate_limited",
				Message: "rate limit exceeded",
				Code:    http.StatusTooManyRequests,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if i := strings.IndexByte(xff, ','); i != -1 {
				return strings.TrimSpace(xff[:i])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
}
