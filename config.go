package maple

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App     AppConfig     `toml:"app"`
	Logging LoggingConfig `toml:"logging"`
	Bench   BenchConfig   `toml:"bench"`
}

type AppConfig struct {
	Name      string `toml:"name"`
	MaxFrames uint64 `toml:"max_frames"` // 0 = until Exit
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	Prefix string `toml:"prefix"`
}

// BenchConfig drives cmd/maple-bench.
type BenchConfig struct {
	Roots     int    `toml:"roots"`
	Depth     int    `toml:"depth"`
	Fanout    int    `toml:"fanout"`
	Frames    uint64 `toml:"frames"`
	Mutations int    `toml:"mutations_per_frame"`
	Seed      int64  `toml:"seed"`
	Profile   string `toml:"profile"` // "", "cpu" or "mem"
	Preset    string `toml:"preset"`  // optional YAML snapshot written at exit
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "maple",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Bench: BenchConfig{
			Roots:     64,
			Depth:     4,
			Fanout:    3,
			Frames:    600,
			Mutations: 32,
			Seed:      1,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML on top of DefaultConfig.
func ParseConfig(data string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigModule installs the config and a logger built from it, and bounds
// the number of frames Run executes.
type ConfigModule struct {
	Config *Config
}

func (m ConfigModule) Install(app *App, cmd *Commands) {
	cfg := m.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	app.addResources(cfg)
	app.maxFrames = cfg.App.MaxFrames

	if ContextContains[DefaultLogger](app.ctx) {
		return
	}
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		logger = NewDefaultLogger(cfg.Logging.Prefix, false)
		logger.Warnf("config: %v, using default logger", err)
	}
	app.addResources(logger)
}
