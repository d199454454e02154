// Package config loads kalimax settings from kalimax.yaml, KALIMAX_*
// environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kalimax/kalimax/internal/ingest"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/store"
	"github.com/kalimax/kalimax/internal/translator"
)

type Config struct {
	Database  store.Options   `mapstructure:"database"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Ingest    ingest.Options  `mapstructure:"ingest"`
	Export    ExportConfig    `mapstructure:"export"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Inference InferenceConfig `mapstructure:"inference"`
}

type NormalizeConfig struct {
	normalizer.Config `mapstructure:",squash"`
	// RulesFile is an optional YAML rule table merged over the stored rules.
	RulesFile string `mapstructure:"rules_file"`
}

type ExportConfig struct {
	MinStatus string `mapstructure:"min_status"`
	Format    string `mapstructure:"format"`
	Limit     int    `mapstructure:"limit"`
	Output    string `mapstructure:"output"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	// Textfile is where the run's metrics are written for the node exporter
	// textfile collector. Empty disables it.
	Textfile string `mapstructure:"textfile"`
}

type InferenceConfig struct {
	Provider                 string `mapstructure:"provider"`
	translator.ServiceConfig `mapstructure:",squash"`
}

// New returns a viper instance with defaults, search paths and environment
// binding configured. Commands bind their flags to it before calling Load.
func New(configFile string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("kalimax")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.kalimax")
	}

	v.SetEnvPrefix("KALIMAX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads the config file, if any, and decodes every section.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "./data/kalimax.db")
	v.SetDefault("database.debug", false)

	v.SetDefault("normalize.case_insensitive", normalizer.DefaultConfig().CaseInsensitive)
	v.SetDefault("normalize.rules_file", "")

	v.SetDefault("ingest.workers", 0)

	v.SetDefault("export.min_status", "approved")
	v.SetDefault("export.format", "two_row")
	v.SetDefault("export.limit", 0)
	v.SetDefault("export.output", "data/export/train.jsonl")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("metrics.textfile", "")

	// base_url and model are left empty so each provider applies its own.
	v.SetDefault("inference.provider", "ollama")
	v.SetDefault("inference.base_url", "")
	v.SetDefault("inference.model", "")
	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.credentials", "")
	v.SetDefault("inference.timeout", 60*time.Second)
	v.SetDefault("inference.retries", 1)
}
