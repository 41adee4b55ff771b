// Package config loads process configuration from environment variables and
// an optional JSON config file. Runtime-adjustable settings (the cron
// schedule, weekday assignments, the admin secret) live in the config store,
// not here.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the static process configuration.
type Config struct {
	Addr        string `mapstructure:"addr"`
	DBPath      string `mapstructure:"db_path"`
	Timezone    string `mapstructure:"timezone"`
	APIKey      string `mapstructure:"api_key"`
	BarkKey     string `mapstructure:"bark_key"`
	BarkBaseURL string `mapstructure:"bark_base_url"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	EnableCORS  bool   `mapstructure:"enable_cors"`
	Debug       bool   `mapstructure:"debug"`
	// WorkflowWebhooks maps workflow identifiers to the HTTP endpoints of
	// the pipelines that execute them.
	WorkflowWebhooks map[string]string `mapstructure:"workflow_webhooks"`
}

// Load reads trendpub-config.json from $HOME or the working directory and
// merges TRENDPUB_* environment variables over it. A missing config file is
// not an error; everything has a default or can come from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("trendpub-config")
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("addr", ":8000")
	v.SetDefault("db_path", "trendpub.db")
	v.SetDefault("timezone", "Asia/Shanghai")
	v.SetDefault("api_key", "")
	v.SetDefault("bark_key", "")
	v.SetDefault("bark_base_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("enable_cors", true)
	v.SetDefault("debug", false)
	v.SetDefault("workflow_webhooks", map[string]string{})

	v.SetEnvPrefix("TRENDPUB")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
