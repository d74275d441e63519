// Package control exposes the live parameter store and the latest scene
// snapshot over HTTP. Handlers only write params.Store; the frame loop stays
// the single writer of scene state.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/signalsfoundry/orrery-sim/core"
	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/internal/observability"
	"github.com/signalsfoundry/orrery-sim/model"
	"github.com/signalsfoundry/orrery-sim/params"
)

const maxBodyBytes = 1 << 16

// SnapshotSource yields the most recently published scene snapshot.
type SnapshotSource interface {
	Latest() *core.SceneSnapshot
}

// Server serves the control API.
type Server struct {
	store     *params.Store
	snapshots SnapshotSource
	bodies    []model.BodyDescriptor
	names     map[string]bool

	log            logging.Logger
	metrics        *observability.ControlCollector
	metricsHandler http.Handler
	limiter        *RateLimiter
	rateCfg        RateLimitConfig
	origins        []string
}

// Option customises a Server.
type Option func(*Server)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records request and parameter-change metrics.
func WithMetrics(c *observability.ControlCollector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithRateLimit enables per-client rate limiting.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(s *Server) { s.rateCfg = cfg }
}

// WithAllowedOrigins sets the CORS origin allow-list. Empty allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer wires a control server over store and snapshots. bodies is the
// catalogue selections are validated against.
func NewServer(store *params.Store, snapshots SnapshotSource, bodies []model.BodyDescriptor, opts ...Option) *Server {
	s := &Server{
		store:     store,
		snapshots: snapshots,
		bodies:    bodies,
		names:     make(map[string]bool, len(bodies)),
	}
	for _, b := range bodies {
		s.names[b.Name] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNoop(s.log).With(logging.String("component", "control"))
	s.limiter = NewRateLimiter(s.rateCfg, s.metrics, s.log)
	return s
}

// Limiter returns the server's rate limiter.
func (s *Server) Limiter() *RateLimiter { return s.limiter }

// Handler builds the complete HTTP handler chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /api/params", s.getParams)
	s.handle(mux, "POST /api/params/speed", s.setField(params.FieldRotationSpeed))
	s.handle(mux, "POST /api/params/scale", s.setField(params.FieldSizeScale))
	s.handle(mux, "POST /api/params/asteroids", s.setField(params.FieldAsteroidCount))
	s.handle(mux, "POST /api/params/flare-interval", s.setField(params.FieldFlareSpawnInterval))
	s.handle(mux, "POST /api/params/selected", s.selectBody)
	s.handle(mux, "DELETE /api/params/selected", s.clearSelection)
	s.handle(mux, "POST /api/asteroids/rebuild", s.rebuildAsteroids)
	s.handle(mux, "GET /api/scene", s.getScene)
	s.handle(mux, "GET /api/bodies", s.getBodies)
	s.handle(mux, "GET /healthz", s.healthz)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(h)
	h = requestContext(s.log, h)
	return newCORS(s.origins).Handler(h)
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	_, route, _ := strings.Cut(pattern, " ")
	mux.Handle(pattern, s.metrics.Instrument(route, traced(route, h)))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control server: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled. Idle rate-limit
// entries are swept once a minute while serving.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return
			case now := <-ticker.C:
				s.limiter.Cleanup(now)
			}
		}
	}()

	s.log.Info(ctx, "serving control API", logging.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control server: %w", err)
	}
	return nil
}

type valueRequest struct {
	Value any `json:"value"`
}

func decodeValue(w http.ResponseWriter, r *http.Request) (any, error) {
	var req valueRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if req.Value == nil {
		return nil, fmt.Errorf("%w: missing \"value\"", ErrBadRequest)
	}
	return req.Value, nil
}

func (s *Server) getParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) setField(field params.Field) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := decodeValue(w, r)
		if err == nil {
			err = s.store.Set(field, value)
		}
		s.respondChange(w, r, field, value, err)
	}
}

func (s *Server) selectBody(w http.ResponseWriter, r *http.Request) {
	value, err := decodeValue(w, r)
	if err == nil {
		name, ok := value.(string)
		switch {
		case !ok:
			err = fmt.Errorf("%w: %s wants a string, got %T", params.ErrWrongType, params.FieldSelectedBody, value)
		case !s.names[name]:
			err = fmt.Errorf("%w: %q", ErrUnknownBody, name)
		default:
			err = s.store.SelectBody(name)
		}
	}
	s.respondChange(w, r, params.FieldSelectedBody, value, err)
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	s.respondChange(w, r, params.FieldSelectedBody, "", s.store.ClearSelection())
}

func (s *Server) rebuildAsteroids(w http.ResponseWriter, r *http.Request) {
	err := s.store.RequestAsteroidRebuild()
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.IncParamChange(string(params.FieldAsteroidRebuild))
	p := s.store.Snapshot()
	logging.FromContext(r.Context(), s.log).Info(r.Context(), "asteroid rebuild requested",
		logging.Int("count", p.AsteroidCount),
		logging.Any("seq", p.AsteroidRebuildSeq),
	)
	writeJSON(w, http.StatusAccepted, p)
}

func (s *Server) respondChange(w http.ResponseWriter, r *http.Request, field params.Field, value any, err error) {
	log := logging.FromContext(r.Context(), s.log)
	if err != nil {
		log.Warn(r.Context(), "parameter change rejected",
			logging.String("field", string(field)),
			logging.Err(err),
		)
		writeError(w, err)
		return
	}
	s.metrics.IncParamChange(string(field))
	log.Info(r.Context(), "parameter updated",
		logging.String("field", string(field)),
		logging.Any("value", value),
	)
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) getScene(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Latest()
	if snap == nil {
		writeError(w, ErrNotReady)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getBodies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bodies)
}

type health struct {
	Status string `json:"status"`
	Frame  uint64 `json:"frame"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok"}
	if snap := s.snapshots.Latest(); snap != nil {
		h.Frame = snap.Frame
	} else {
		h.Status = "starting"
	}
	writeJSON(w, http.StatusOK, h)
}
