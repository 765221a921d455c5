package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rendis/flowkit/internal/validation"
)

// Config holds all flowkit CLI configuration.
// Priority: env vars > config file > defaults.
type Config struct {
	LogLevel string            `mapstructure:"log_level"`
	DBPath   string            `mapstructure:"db_path"`
	Rules    []validation.Rule `mapstructure:"rules"`
	Render   RenderConfig      `mapstructure:"render"`
}

// RenderConfig holds diagram rendering defaults.
type RenderConfig struct {
	Format string `mapstructure:"format"`
}

func flowkitDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowkit"
	}
	return filepath.Join(home, ".flowkit")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", filepath.Join(flowkitDir(), "flowkit.db"))
	v.SetDefault("rules", []validation.Rule{})
	v.SetDefault("render.format", "ascii")
}

// loadConfig layers defaults, the config file and FLOWKIT_* env vars.
// An explicit path must exist; otherwise ~/.flowkit/settings.{json,yaml}
// is read when present.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLOWKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		v.SetConfigName("settings")
		v.AddConfigPath(flowkitDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// dbURI turns a plain file path into a libSQL file URI.
func dbURI(path string) string {
	for _, scheme := range []string{"file:", "libsql:", "http:", "https:"} {
		if strings.HasPrefix(path, scheme) {
			return path
		}
	}
	return "file:" + path
}
