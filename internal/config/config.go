// Package config loads orrery settings from defaults, an optional config
// file, a .env file and ORRERY_* environment variables, in increasing order
// of precedence. Command-line flags are applied on top by cmd/orrery.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/signalsfoundry/orrery-sim/core"
	"github.com/signalsfoundry/orrery-sim/internal/observability"
	"github.com/signalsfoundry/orrery-sim/model"
	"github.com/signalsfoundry/orrery-sim/params"
	"github.com/signalsfoundry/orrery-sim/timectrl"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. ORRERY_CONTROL_ADDR.
const EnvPrefix = "ORRERY"

// Config is the complete process configuration.
type Config struct {
	Log     LogConfig                   `mapstructure:"log"`
	Clock   ClockConfig                 `mapstructure:"clock"`
	Scene   SceneConfig                 `mapstructure:"scene"`
	Control ControlConfig               `mapstructure:"control"`
	Metrics MetricsConfig               `mapstructure:"metrics"`
	Tracing observability.TracingConfig `mapstructure:"tracing"`
	UI      UIConfig                    `mapstructure:"ui"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ClockConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Mode     string        `mapstructure:"mode"`
	// MaxDelta clamps per-frame deltas in seconds; 0 disables the clamp.
	MaxDelta float64 `mapstructure:"maxDelta"`
}

type SceneConfig struct {
	// Seed fixes every random draw; 0 seeds from the wall clock.
	Seed     int64                   `mapstructure:"seed"`
	AssetDir string                  `mapstructure:"assetDir"`
	Bodies   []model.BodyDescriptor  `mapstructure:"bodies"`
	Params   params.GlobalParameters `mapstructure:"params"`
	Rates    core.Rates              `mapstructure:"rates"`
	Flares   core.FlareConfig        `mapstructure:"flares"`
	Belt     core.BeltConfig         `mapstructure:"belt"`
}

type ControlConfig struct {
	Enabled        bool            `mapstructure:"enabled"`
	Addr           string          `mapstructure:"addr"`
	AllowedOrigins []string        `mapstructure:"allowedOrigins"`
	RateLimit      RateLimitConfig `mapstructure:"rateLimit"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
	TrustProxy        bool    `mapstructure:"trustProxy"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type UIConfig struct {
	TUI bool `mapstructure:"tui"`
	// Duration stops the animation after this much animation time; 0 runs
	// until interrupted.
	Duration time.Duration `mapstructure:"duration"`
}

// Options locate configuration sources.
type Options struct {
	// ConfigFile is an explicit file path. When empty, orrery.{yaml,json,toml}
	// is searched in SearchPaths and a missing file is not an error.
	ConfigFile  string
	SearchPaths []string
	// EnvFile is loaded into the process environment before reading
	// ORRERY_* variables. A missing default ".env" is ignored.
	EnvFile string
}

// Load resolves configuration from every source and validates it.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("orrery")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Scene.Bodies) == 0 {
		cfg.Scene.Bodies = model.SolarSystem()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	switch path {
	case "-":
		return nil
	case "":
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	default:
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("clock.interval", 16*time.Millisecond)
	v.SetDefault("clock.mode", timectrl.RealTime.String())
	v.SetDefault("clock.maxDelta", 0.0)

	v.SetDefault("scene.seed", int64(0))
	v.SetDefault("scene.assetDir", "assets")

	p := params.Defaults()
	v.SetDefault("scene.params.rotationSpeedMultiplier", p.RotationSpeedMultiplier)
	v.SetDefault("scene.params.sizeScale", p.SizeScale)
	v.SetDefault("scene.params.asteroidCount", p.AsteroidCount)
	v.SetDefault("scene.params.flareSpawnIntervalSeconds", p.FlareSpawnIntervalSeconds)
	v.SetDefault("scene.params.selectedBody", "")

	r := core.DefaultRates()
	v.SetDefault("scene.rates.orbitRate", r.OrbitRate)
	v.SetDefault("scene.rates.bodySpinK", r.BodySpinK)
	v.SetDefault("scene.rates.satelliteSpinK", r.SatelliteSpinK)
	v.SetDefault("scene.rates.beltRate", r.BeltRate)

	f := core.DefaultFlareConfig()
	v.SetDefault("scene.flares.controlSpread", f.ControlSpread)
	v.SetDefault("scene.flares.endSpread", f.EndSpread)
	v.SetDefault("scene.flares.samples", f.Samples)
	v.SetDefault("scene.flares.batchSize", f.BatchSize)
	v.SetDefault("scene.flares.minLifespan", f.MinLifespan)
	v.SetDefault("scene.flares.maxLifespan", f.MaxLifespan)
	v.SetDefault("scene.flares.baseOpacity", f.BaseOpacity)
	v.SetDefault("scene.flares.pulseAmount", f.PulseAmount)
	v.SetDefault("scene.flares.maxActive", f.MaxActive)

	b := core.DefaultBeltConfig()
	v.SetDefault("scene.belt.innerRadius", b.InnerRadius)
	v.SetDefault("scene.belt.band", b.Band)
	v.SetDefault("scene.belt.verticalBand", b.VerticalBand)
	v.SetDefault("scene.belt.minSize", b.MinSize)
	v.SetDefault("scene.belt.maxSize", b.MaxSize)

	v.SetDefault("control.enabled", true)
	v.SetDefault("control.addr", ":8080")
	v.SetDefault("control.allowedOrigins", []string{"*"})
	v.SetDefault("control.rateLimit.enabled", true)
	v.SetDefault("control.rateLimit.requestsPerSecond", 20.0)
	v.SetDefault("control.rateLimit.burst", 40)
	v.SetDefault("control.rateLimit.trustProxy", false)

	v.SetDefault("metrics.addr", ":9090")

	t := observability.DefaultTracingConfig()
	v.SetDefault("tracing.enabled", t.Enabled)
	v.SetDefault("tracing.serviceName", t.ServiceName)
	v.SetDefault("tracing.exporter", t.Exporter)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sampleRatio", t.SampleRatio)

	v.SetDefault("ui.tui", false)
	v.SetDefault("ui.duration", time.Duration(0))
}

// Validate checks cross-source invariants that decoding cannot express.
func (c *Config) Validate() error {
	if c.Clock.Interval <= 0 {
		return fmt.Errorf("%w: clock.interval must be positive, got %s", ErrInvalid, c.Clock.Interval)
	}
	if _, ok := timectrl.ParseMode(c.Clock.Mode); !ok {
		return fmt.Errorf("%w: clock.mode %q (want realtime or fixed)", ErrInvalid, c.Clock.Mode)
	}
	if c.Clock.MaxDelta < 0 {
		return fmt.Errorf("%w: clock.maxDelta must not be negative", ErrInvalid)
	}
	if err := c.Scene.Params.Validate(); err != nil {
		return fmt.Errorf("%w: scene.params: %w", ErrInvalid, err)
	}
	f := c.Scene.Flares
	if f.MinLifespan <= 0 || f.MaxLifespan < f.MinLifespan {
		return fmt.Errorf("%w: scene.flares lifespan range [%v, %v]", ErrInvalid, f.MinLifespan, f.MaxLifespan)
	}
	if f.MaxActive < 0 {
		return fmt.Errorf("%w: scene.flares.maxActive must not be negative", ErrInvalid)
	}
	b := c.Scene.Belt
	if b.InnerRadius < 0 || b.Band < 0 || b.MinSize <= 0 || b.MaxSize < b.MinSize {
		return fmt.Errorf("%w: scene.belt %+v", ErrInvalid, b)
	}
	seen := make(map[string]bool, len(c.Scene.Bodies))
	for i, d := range c.Scene.Bodies {
		if d.Name == "" {
			return fmt.Errorf("%w: scene.bodies[%d] has no name", ErrInvalid, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate body %q", ErrInvalid, d.Name)
		}
		seen[d.Name] = true
	}
	if c.Control.RateLimit.Enabled && (c.Control.RateLimit.RequestsPerSecond <= 0 || c.Control.RateLimit.Burst < 1) {
		return fmt.Errorf("%w: control.rateLimit needs positive requestsPerSecond and burst", ErrInvalid)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sampleRatio %v outside [0, 1]", ErrInvalid, c.Tracing.SampleRatio)
	}
	return nil
}

// ClockMode returns the parsed clock mode.
func (c *Config) ClockMode() timectrl.Mode {
	m, _ := timectrl.ParseMode(c.Clock.Mode)
	return m
}
