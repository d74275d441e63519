package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/orrery-sim/core"
	"github.com/signalsfoundry/orrery-sim/internal/assets"
	"github.com/signalsfoundry/orrery-sim/internal/config"
	"github.com/signalsfoundry/orrery-sim/internal/control"
	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/internal/observability"
	"github.com/signalsfoundry/orrery-sim/internal/render/tui"
	"github.com/signalsfoundry/orrery-sim/params"
	"github.com/signalsfoundry/orrery-sim/timectrl"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (yaml, json or toml)")
	envFile := flag.String("env-file", "", `dotenv file loaded before ORRERY_* variables; "-" skips it`)
	logFile := flag.String("log-file", "", "write logs to this file instead of stdout")
	useTUI := flag.Bool("tui", false, "render the scene in the terminal")
	seed := flag.Int64("seed", 0, "random seed for flares and the asteroid belt")
	controlAddr := flag.String("control-addr", "", "HTTP address of the control API")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables")
	duration := flag.Duration("duration", 0, "stop after this much animation time; 0 runs until interrupted")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigFile: *configFile, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "orrery: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file and environment only when given explicitly.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tui":
			cfg.UI.TUI = *useTUI
		case "seed":
			cfg.Scene.Seed = *seed
		case "control-addr":
			cfg.Control.Addr = *controlAddr
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "duration":
			cfg.UI.Duration = *duration
		}
	})

	out, closeLog, err := logOutput(*logFile, cfg.UI.TUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orrery: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, nil); err != nil {
		log.Error(ctx, "orrery exited", logging.Err(err))
		stop()
		closeLog()
		os.Exit(1)
	}
}

// logOutput picks the log destination. The terminal UI owns stdout, so its
// logs are dropped unless a file is given.
func logOutput(path string, tuiEnabled bool) (io.Writer, func(), error) {
	if path == "" {
		if tuiEnabled {
			return io.Discard, func() {}, nil
		}
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// run builds the scene and drives it until ctx is cancelled, the configured
// duration elapses or the terminal UI quits. When lis is nil and the control
// API is enabled, it listens on cfg.Control.Addr.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis net.Listener) error {
	log = logging.OrNoop(log)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	sceneMetrics, err := observability.NewSceneCollector(reg)
	if err != nil {
		return fmt.Errorf("scene metrics: %w", err)
	}
	controlMetrics, err := observability.NewControlCollector(reg)
	if err != nil {
		return fmt.Errorf("control metrics: %w", err)
	}

	store, err := params.NewStore(cfg.Scene.Params)
	if err != nil {
		return err
	}
	unsubscribe := store.Subscribe(func(c params.Change) {
		log.Debug(ctx, "parameter changed", logging.String("field", string(c.Field)))
	})
	defer unsubscribe()

	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	resolver := assets.NewFileResolver(cfg.Scene.AssetDir, log)
	scene := core.NewScene(ctx, cfg.Scene.Bodies, store.Snapshot(),
		core.WithSeed(seed),
		core.WithResolver(resolver),
		core.WithRates(cfg.Scene.Rates),
		core.WithFlareConfig(cfg.Scene.Flares),
		core.WithBeltConfig(cfg.Scene.Belt),
		core.WithLogger(log),
		core.WithMetricsRecorder(sceneMetrics),
	)
	log.Info(ctx, "scene built",
		logging.Int("bodies", len(scene.Bodies)),
		logging.Int("textures", resolver.Loaded()),
		logging.Any("seed", seed),
	)

	board := &core.SnapshotBoard{}
	loop := &frameLoop{
		ctx:       ctx,
		scene:     scene,
		store:     store,
		board:     board,
		metrics:   sceneMetrics,
		positions: cfg.UI.TUI,
	}
	clock := timectrl.NewFrameClock(cfg.Clock.Interval, cfg.ClockMode(), timectrl.WithMaxDelta(cfg.Clock.MaxDelta))
	clock.AddListener(loop.onFrame)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		metricsSrv := serveMetrics(cfg.Metrics.Addr, observability.HandlerFor(reg), log)
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Control.Enabled {
		if lis == nil {
			lis, err = net.Listen("tcp", cfg.Control.Addr)
			if err != nil {
				return fmt.Errorf("listen for control API: %w", err)
			}
		}
		srv := control.NewServer(store, board, cfg.Scene.Bodies,
			control.WithLogger(log),
			control.WithMetrics(controlMetrics),
			control.WithMetricsHandler(observability.HandlerFor(reg)),
			control.WithAllowedOrigins(cfg.Control.AllowedOrigins...),
			control.WithRateLimit(control.RateLimitConfig{
				Enabled:           cfg.Control.RateLimit.Enabled,
				RequestsPerSecond: cfg.Control.RateLimit.RequestsPerSecond,
				Burst:             cfg.Control.RateLimit.Burst,
				TrustProxy:        cfg.Control.RateLimit.TrustProxy,
			}),
		)
		g.Go(func() error { return srv.Serve(runCtx, lis) })
	}

	if cfg.UI.TUI {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		defer screen.Fini()

		controller := tui.NewController(store, scene.BodyNames(), log)
		ui := tui.NewUI(screen, board, controller, 2*cfg.Clock.Interval, log)
		g.Go(func() error {
			defer cancel()
			return ui.Run(runCtx)
		})
	}

	log.Info(ctx, "starting animation",
		logging.Duration("interval", cfg.Clock.Interval),
		logging.String("mode", cfg.ClockMode().String()),
		logging.Duration("duration", cfg.UI.Duration),
	)
	done := clock.Start(runCtx, cfg.UI.Duration)
	g.Go(func() error {
		<-done
		cancel()
		return nil
	})

	err = g.Wait()
	log.Info(ctx, "animation stopped",
		logging.Int("frames", int(clock.Index())),
		logging.Float("elapsed", clock.Elapsed()),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// frameLoop is the only writer of scene state. Each frame reads the live
// parameters once, advances the scene and publishes a snapshot for readers.
type frameLoop struct {
	ctx       context.Context
	scene     *core.Scene
	store     *params.Store
	board     *core.SnapshotBoard
	metrics   *observability.SceneCollector
	positions bool
}

func (l *frameLoop) onFrame(f timectrl.Frame) {
	start := time.Now()
	ctx := logging.ContextWithFrame(l.ctx, f.Index)

	p := l.store.Snapshot()
	l.scene.Advance(ctx, &p, f.Delta, f.Wall)
	l.board.Publish(l.scene.Snapshot(p, core.SnapshotOptions{AsteroidPositions: l.positions}))

	l.metrics.ObserveFrameDuration(time.Since(start))
}

func serveMetrics(addr string, handler http.Handler, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
