package maple

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ParseOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig(`
[app]
max_frames = 10

[logging]
level = "debug"

[bench]
roots = 2
mutations_per_frame = 7
`)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), cfg.App.MaxFrames)
	assert.Equal(t, "maple", cfg.App.Name, "untouched keys keep their default")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 2, cfg.Bench.Roots)
	assert.Equal(t, 7, cfg.Bench.Mutations)
	assert.Equal(t, DefaultConfig().Bench.Depth, cfg.Bench.Depth)
}

func TestConfig_ParseError(t *testing.T) {
	_, err := ParseConfig("[app\nname = ")
	assert.Error(t, err)
}

func TestConfig_LoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maple.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\nname = \"bench\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.App.Name)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigModule_Install(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App.MaxFrames = 4
	app := NewAppBuilder().UseModule(ConfigModule{Config: cfg}).Build()

	assert.Same(t, cfg, ContextFind[Config](app.Context()))
	assert.True(t, ContextContains[DefaultLogger](app.Context()))

	frames := 0
	app.RegisterSystem(func(c Read[Config]) { frames++ })
	app.Run()
	assert.Equal(t, 4, frames)
}

func TestConfigModule_KeepsExistingLogger(t *testing.T) {
	logger := NewDefaultLogger("test", false)
	app := NewAppBuilder().
		UseModule(LoggingModule{Logger: logger}, ConfigModule{}).
		Build()

	assert.Same(t, logger, ContextFind[DefaultLogger](app.Context()))
	assert.NotNil(t, ContextFind[Config](app.Context()))
}
