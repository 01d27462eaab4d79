// Package config loads settings from defaults, an optional config file,
// MIXREVIEW_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. MIXREVIEW_SERVER
const EnvPrefix = "MIXREVIEW"

// Config is the resolved configuration
type Config struct {
	Server  string       `mapstructure:"server"`
	DataDir string       `mapstructure:"datadir"`
	Log     LogConfig    `mapstructure:"log"`
	HTTP    HTTPConfig   `mapstructure:"http"`
	Player  PlayerConfig `mapstructure:"player"`
	Audio   AudioConfig  `mapstructure:"audio"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`  // empty disables logging
	Level string `mapstructure:"level"` // zerolog level name
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type PlayerConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

type AudioConfig struct {
	Backend string `mapstructure:"backend"` // auto or null
}

// New returns a viper instance with defaults and environment bindings
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:8000")
	v.SetDefault("datadir", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("player.tick", 200*time.Millisecond)
	v.SetDefault("audio.backend", "auto")
}

// DefaultPaths returns the directories searched for config.yaml
func DefaultPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "mixreview"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mixreview"))
	}
	return append(paths, ".")
}

// Load reads the config file into v and returns the resolved configuration.
// With an empty file the default paths are searched and a missing file is
// not an error; an explicit file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range DefaultPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values
func (c *Config) Validate() error {
	c.Server = strings.TrimRight(strings.TrimSpace(c.Server), "/")
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server address %q: want http(s)://host[:port]", c.Server)
	}
	switch c.Audio.Backend {
	case "auto", "null":
	default:
		return fmt.Errorf("invalid audio backend %q: want auto or null", c.Audio.Backend)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("invalid http timeout %s", c.HTTP.Timeout)
	}
	if c.Player.Tick <= 0 {
		return fmt.Errorf("invalid player tick %s", c.Player.Tick)
	}
	return nil
}
