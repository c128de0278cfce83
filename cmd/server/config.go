package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/signedchess/internal/api"
	"github.com/mcoot/signedchess/internal/factory"
	"github.com/mcoot/signedchess/internal/history"
	redisstorage "github.com/mcoot/signedchess/internal/storage/redis"
)

// Config holds the server settings collected from flags and environment
type Config struct {
	bind            string
	port            int
	storage         string
	redisURL        string
	sessionTTL      time.Duration
	historyBin      string
	historyTimeout  time.Duration
	logLevel        string
	logFormat       string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.storage {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.redisURL == "" {
			return errors.New("--redis-url is required when --storage=redis")
		}
	default:
		return fmt.Errorf("invalid storage type %q (must be memory or redis)", c.storage)
	}
	if c.historyBin != "" {
		if _, err := exec.LookPath(c.historyBin); err != nil {
			return fmt.Errorf("history executable: %w", err)
		}
	}
	if c.historyTimeout <= 0 {
		return fmt.Errorf("invalid history timeout (must be positive): %s", c.historyTimeout)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.logFormat != "json" && c.logFormat != "text" {
		return fmt.Errorf("invalid log format %q (must be json or text)", c.logFormat)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q", c.logLevel)
	}
	return level, nil
}

func (c *Config) logger() *slog.Logger {
	level, _ := c.level()
	opts := &slog.HandlerOptions{Level: level}
	if c.logFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func (c *Config) factoryConfig(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: c.storage,
	}
	if c.storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.redisURL
		redisCfg.SessionTTL = c.sessionTTL
		cfg.RedisConfig = &redisCfg
	}
	if c.historyBin != "" {
		processCfg := history.DefaultProcessConfig()
		processCfg.Path = c.historyBin
		processCfg.Timeout = c.historyTimeout
		cfg.HistoryProcess = &processCfg
	}
	return cfg
}

func (c *Config) serverConfig() api.ServerConfig {
	return api.ServerConfig{
		Host:            c.bind,
		Port:            c.port,
		ReadTimeout:     c.readTimeout,
		WriteTimeout:    c.writeTimeout,
		ShutdownTimeout: c.shutdownTimeout,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SIGNEDCHESS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "signedchess",
		Short: "Two-player chess sessions with signed moves and realtime updates.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	defaults := api.DefaultServerConfig()
	redisDefaults := redisstorage.DefaultConfig()
	historyDefaults := history.DefaultProcessConfig()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SIGNEDCHESS_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", defaults.Port, "port to listen on (env: SIGNEDCHESS_PORT)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "session storage backend, memory or redis (env: SIGNEDCHESS_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection url (env: SIGNEDCHESS_REDIS_URL)")
	fs.DurationVar(&cfg.sessionTTL, "session-ttl", redisDefaults.SessionTTL, "expiry of idle sessions in redis, 0 disables (env: SIGNEDCHESS_SESSION_TTL)")
	fs.StringVar(&cfg.historyBin, "history-bin", "", "path to the movelog executable, empty applies history in-process (env: SIGNEDCHESS_HISTORY_BIN)")
	fs.DurationVar(&cfg.historyTimeout, "history-timeout", historyDefaults.Timeout, "time limit for each movelog invocation (env: SIGNEDCHESS_HISTORY_TIMEOUT)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error (env: SIGNEDCHESS_LOG_LEVEL)")
	fs.StringVar(&cfg.logFormat, "log-format", "json", "json or text (env: SIGNEDCHESS_LOG_FORMAT)")
	fs.DurationVar(&cfg.readTimeout, "read-timeout", defaults.ReadTimeout, "http read timeout (env: SIGNEDCHESS_READ_TIMEOUT)")
	fs.DurationVar(&cfg.writeTimeout, "write-timeout", defaults.WriteTimeout, "http write timeout, event streams are exempt (env: SIGNEDCHESS_WRITE_TIMEOUT)")
	fs.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout, "grace period for in-flight requests on shutdown (env: SIGNEDCHESS_SHUTDOWN_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
