package config

import (
	"chessreview/src/engine"
	"chessreview/src/logx"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EngineUCI   = "uci"
	EngineTable = "table"

	EnvPrefix = "CHESSREVIEW"
	FileName  = "chessreview" // chessreview.yaml, .json, .toml in the working directory
)

type Config struct {
	Engine      string        `mapstructure:"engine"`   // uci/table, empty picks from the paths
	UCIPath     string        `mapstructure:"uci_path"` // path to external engine
	UCIArgs     []string      `mapstructure:"uci_args"`
	Table       string        `mapstructure:"table"`   // path to evaluation table
	Level       int           `mapstructure:"level"`   // 1..10
	Depth       int           `mapstructure:"depth"`   // overrides the level's depth when > 0
	Workers     int           `mapstructure:"workers"` // concurrent evaluations
	Rate        float64       `mapstructure:"rate"`    // evaluations per second, 0 = unlimited
	Timeout     time.Duration `mapstructure:"timeout"` // per position, 0 = from level
	LogLevel    string        `mapstructure:"log_level"`
	LogFile     string        `mapstructure:"log_file"`
	Debug       bool          `mapstructure:"debug"`
	Console     bool          `mapstructure:"console"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

func defaultConfig() Config {
	return Config{
		Level:    5,
		Workers:  2,
		LogLevel: "info",
		LogFile:  "chessreview.log",
		UCIArgs:  []string{},
	}
}

// Load reads path, or chessreview.* from the working directory when path is
// empty, then CHESSREVIEW_* environment variables. A missing default file is
// not an error. An unnamed engine stays empty until Correct, so that
// command-line paths can still decide it.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := defaultConfig()
	v.SetDefault("engine", def.Engine)
	v.SetDefault("uci_path", def.UCIPath)
	v.SetDefault("uci_args", def.UCIArgs)
	v.SetDefault("table", def.Table)
	v.SetDefault("level", def.Level)
	v.SetDefault("depth", def.Depth)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("rate", def.Rate)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("console", def.Console)
	v.SetDefault("metrics_addr", def.MetricsAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("error read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("error decode config: %w", err)
	}
	correctableConfig(&c)
	return &c, nil
}

// Default is the built-in configuration as Load returns it without a file.
func Default() *Config {
	c := defaultConfig()
	correctableConfig(&c)
	return &c
}

// Correct repairs values after command-line overrides and picks the engine
// from the paths when none was named.
func (c *Config) Correct() {
	correctableConfig(c)
	switch c.Engine {
	case EngineUCI, EngineTable:
	default:
		if c.UCIPath == "" && c.Table != "" {
			c.Engine = EngineTable
		} else {
			c.Engine = EngineUCI
		}
	}
}

func correctableConfig(c *Config) {
	def := defaultConfig()
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if engine.ConvIntToLevel(c.Level) == engine.LevelInvalid {
		c.Level = def.Level
	}
	if c.Depth < 0 {
		c.Depth = 0
	}
	if c.Workers < 1 {
		c.Workers = def.Workers
	}
	if c.Rate < 0 {
		c.Rate = 0
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !logx.IsKnownLevel(c.LogLevel) {
		c.LogLevel = def.LogLevel
	}
}

// Validate reports settings the oracle cannot start with.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineUCI:
		if c.UCIPath == "" {
			return errors.New("uci engine selected but uci_path is empty")
		}
	case EngineTable:
		if c.Table == "" {
			return errors.New("table engine selected but table is empty")
		}
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	return nil
}

// SearchParams are the limits of the configured level and depth.
func (c *Config) SearchParams() engine.SearchParams {
	p := engine.LevelToParams(engine.ConvIntToLevel(c.Level))
	if c.Depth > 0 {
		p.MaxDepth = c.Depth
	}
	return p
}

// EvalTimeout bounds one evaluation.
func (c *Config) EvalTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return c.SearchParams().Timeout()
}
