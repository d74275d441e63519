package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalsfoundry/orrery-sim/timectrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return Load(Options{SearchPaths: []string{dir}, EnvFile: "-"})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFrom(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 16*time.Millisecond, cfg.Clock.Interval)
	assert.Equal(t, timectrl.RealTime, cfg.ClockMode())
	assert.Equal(t, 0.0, cfg.Clock.MaxDelta)
	assert.Equal(t, 1.0, cfg.Scene.Params.RotationSpeedMultiplier)
	assert.Equal(t, 1.0, cfg.Scene.Params.SizeScale)
	assert.Equal(t, 1000, cfg.Scene.Params.AsteroidCount)
	assert.Equal(t, 10.0, cfg.Scene.Params.FlareSpawnIntervalSeconds)
	assert.Equal(t, 0.1, cfg.Scene.Rates.OrbitRate)
	assert.Equal(t, 3, cfg.Scene.Flares.BatchSize)
	assert.Equal(t, 64, cfg.Scene.Flares.MaxActive)
	assert.Equal(t, 30.0, cfg.Scene.Belt.InnerRadius)
	assert.Len(t, cfg.Scene.Bodies, 9)
	assert.Equal(t, "Sun", cfg.Scene.Bodies[0].Name)
	assert.True(t, cfg.Control.Enabled)
	assert.Equal(t, ":8080", cfg.Control.Addr)
	assert.Equal(t, []string{"*"}, cfg.Control.AllowedOrigins)
	assert.Equal(t, 20.0, cfg.Control.RateLimit.RequestsPerSecond)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "orrery", cfg.Tracing.ServiceName)
	assert.False(t, cfg.UI.TUI)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
clock:
  interval: 50ms
  mode: fixed
  maxDelta: 0.1
scene:
  seed: 42
  params:
    rotationSpeedMultiplier: 2.5
    asteroidCount: 500
  flares:
    maxActive: 0
  bodies:
    - name: Sun
      size: 5
      emissive: true
    - name: Earth
      size: 1
      orbitRadius: 20
      singleDefaultSatellite: true
control:
  allowedOrigins: ["http://localhost:3000"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orrery.yaml"), []byte(yaml), 0o644))

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Clock.Interval)
	assert.Equal(t, timectrl.Fixed, cfg.ClockMode())
	assert.Equal(t, 0.1, cfg.Clock.MaxDelta)
	assert.Equal(t, int64(42), cfg.Scene.Seed)
	assert.Equal(t, 2.5, cfg.Scene.Params.RotationSpeedMultiplier)
	assert.Equal(t, 500, cfg.Scene.Params.AsteroidCount)
	assert.Equal(t, 1.0, cfg.Scene.Params.SizeScale, "unset fields keep defaults")
	assert.Equal(t, 0, cfg.Scene.Flares.MaxActive)
	require.Len(t, cfg.Scene.Bodies, 2)
	assert.True(t, cfg.Scene.Bodies[0].Emissive)
	assert.True(t, cfg.Scene.Bodies[1].SingleDefaultSatellite)
	assert.Equal(t, 20.0, cfg.Scene.Bodies[1].OrbitRadius)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Control.AllowedOrigins)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orrery.json"), []byte(`{"control": {"addr": ":7000"}}`), 0o644))
	t.Setenv("ORRERY_CONTROL_ADDR", ":7100")
	t.Setenv("ORRERY_SCENE_PARAMS_SIZESCALE", "3")

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.Control.Addr)
	assert.Equal(t, 3.0, cfg.Scene.Params.SizeScale)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "orrery.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ORRERY_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ORRERY_LOG_LEVEL") })

	cfg, err := Load(Options{SearchPaths: []string{dir}, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFiles(t *testing.T) {
	_, err := Load(Options{ConfigFile: "/nonexistent/orrery.yaml", EnvFile: "-"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	_, err = Load(Options{EnvFile: "/nonexistent/.env"})
	require.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"bad mode":       "clock:\n  mode: warp\n",
		"zero interval":  "clock:\n  interval: 0s\n",
		"negative clamp": "clock:\n  maxDelta: -1\n",
		"speed range":    "scene:\n  params:\n    rotationSpeedMultiplier: 11\n",
		"lifespan":       "scene:\n  flares:\n    minLifespan: 9\n    maxLifespan: 5\n",
		"duplicate":      "scene:\n  bodies:\n    - name: Sun\n    - name: Sun\n",
		"sample ratio":   "tracing:\n  sampleRatio: 2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "orrery.yaml"), []byte(body), 0o644))
			_, err := loadFrom(t, dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
