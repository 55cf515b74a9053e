// Package config loads householdimport settings from defaults, an optional
// YAML file, HHIMPORT_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukerupert/householdimport/internal/source"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix         = "HHIMPORT_"
	DefaultConfigFile = "householdimport.yaml"
	DefaultDBPath     = "foguthtradeticket.db"
	DefaultSampleSize = 5
)

// Config is passed to every operation; nothing reads settings from globals.
type Config struct {
	DBPath       string `koanf:"db_path"`
	DownloadsDir string `koanf:"downloads_dir"`
	Source       string `koanf:"source"`
	LogLevel     string `koanf:"log_level"`
	SampleSize   int    `koanf:"sample_size"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// flagKeys maps flag names whose config key differs from the snake_case form.
var flagKeys = map[string]string{
	"db":   "db_path",
	"file": "source",
}

// Load builds a Config. Precedence (highest to lowest): flags that were
// explicitly set > env vars > config file > defaults. An empty cfgFile
// falls back to ./householdimport.yaml when that file exists.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"db_path":       DefaultDBPath,
		"downloads_dir": source.DefaultDir(),
		"source":        "",
		"log_level":     "info",
		"sample_size":   DefaultSampleSize,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfgFile = DefaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	// HHIMPORT_DB_PATH -> db_path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later in a less obvious way.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must be >= 0, got %d", c.SampleSize)
	}
	return nil
}
