package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds CLI settings read from ibackup-config.yaml and IBACKUP_* variables
type Config struct {
	OutputRoot     string        `mapstructure:"output_root"`
	TempDir        string        `mapstructure:"temp_dir"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	DecryptTimeout time.Duration `mapstructure:"decrypt_timeout"`
}

// LoadConfig loads configuration using Viper. An explicit configFile must exist;
// otherwise a missing config file falls back to defaults.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ibackup-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.ibackup")
		v.AddConfigPath("/etc/ibackup")
	}

	v.SetDefault("output_root", os.TempDir())
	v.SetDefault("temp_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("decrypt_timeout", time.Duration(0))

	v.SetEnvPrefix("IBACKUP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (valid: text, json)", c.LogFormat)
	}
	if c.DecryptTimeout < 0 {
		return fmt.Errorf("decrypt_timeout cannot be negative")
	}
	return nil
}
