// Package config loads server configuration from defaults, an optional
// mathcode.yaml, and the environment, in that order of precedence (last wins).
//
// Environment variables use the MATHCODE_ prefix with dots replaced by
// underscores: executor.timeout → MATHCODE_EXECUTOR_TIMEOUT. The short names
// PORT, DB_PATH and JWT_SECRET are honoured too, for container platforms that
// inject them.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ExecutorConfig struct {
	// Backend is "docker", "local", or "auto" (docker, falling back to local).
	Backend        string        `mapstructure:"backend"`
	Python         string        `mapstructure:"python"`
	Image          string        `mapstructure:"image"`
	MemoryMB       int64         `mapstructure:"memory_mb"`
	CPUs           float64       `mapstructure:"cpus"`
	Pids           int64         `mapstructure:"pids"`
	PoolSize       int           `mapstructure:"pool_size"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrent  int64         `mapstructure:"max_concurrent"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes"`
}

type AuthConfig struct {
	JWTSecret              string        `mapstructure:"jwt_secret"`
	InstructorPasswordHash string        `mapstructure:"instructor_password_hash"`
	TokenTTL               time.Duration `mapstructure:"token_ttl"`
}

type ReportConfig struct {
	// FontPath points at a UTF-8 TTF (e.g. NanumGothic.ttf) for Korean text.
	FontPath string `mapstructure:"font_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load reads configuration. configFile may be empty, in which case
// mathcode.yaml is searched in the working directory and $HOME/.mathcode;
// a missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("mathcode")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy names from the single-binary deployment.
	_ = v.BindEnv("server.port", "MATHCODE_SERVER_PORT", "PORT")
	_ = v.BindEnv("storage.db_path", "MATHCODE_STORAGE_DB_PATH", "DB_PATH")
	_ = v.BindEnv("auth.jwt_secret", "MATHCODE_AUTH_JWT_SECRET", "JWT_SECRET")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mathcode")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mathcode")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", "data/mathcode.db")

	v.SetDefault("executor.backend", "auto")
	v.SetDefault("executor.python", "python3")
	v.SetDefault("executor.image", "python:3.12-alpine")
	v.SetDefault("executor.memory_mb", 128)
	v.SetDefault("executor.cpus", 0.5)
	v.SetDefault("executor.pids", 64)
	v.SetDefault("executor.pool_size", 3)
	v.SetDefault("executor.timeout", 5*time.Second)
	v.SetDefault("executor.max_concurrent", 4)
	v.SetDefault("executor.max_output_bytes", 64*1024)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.instructor_password_hash", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("report.font_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Executor.Backend {
	case "auto", "docker", "local":
	default:
		return fmt.Errorf("config: executor.backend must be auto, docker or local (got %q)", c.Executor.Backend)
	}
	if c.Executor.Timeout <= 0 {
		return fmt.Errorf("config: executor.timeout must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// AuthEnabled reports whether instructor routes should be mounted.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

// NewLogger builds the slog.Logger described by the log section.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log.level %q", s)
	}
	return level, nil
}
