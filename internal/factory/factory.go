package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/signedchess/internal/dependencies/clock"
	"github.com/mcoot/signedchess/internal/dependencies/random"
	"github.com/mcoot/signedchess/internal/history"
	"github.com/mcoot/signedchess/internal/realtime"
	"github.com/mcoot/signedchess/internal/rules"
	"github.com/mcoot/signedchess/internal/services/session"
	"github.com/mcoot/signedchess/internal/signature"
	"github.com/mcoot/signedchess/internal/storage"
	"github.com/mcoot/signedchess/internal/storage/memory"
	redisstorage "github.com/mcoot/signedchess/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Authorities
	Rules    rules.Authority
	History  history.Authority
	Verifier signature.Verifier

	// Realtime
	HubManager  *realtime.HubManager
	Broadcaster *realtime.Broadcaster

	// Services
	Engine *session.Engine

	Logger *slog.Logger

	closers []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// HistoryProcess runs the history authority as an external executable (optional)
	// If nil, history commands are applied in-process
	HistoryProcess *history.ProcessConfig
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var closers []func() error
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore.Close)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	rulesAuthority := rules.New()

	var historyAuthority history.Authority
	if cfg.HistoryProcess != nil {
		historyAuthority = history.NewProcess(*cfg.HistoryProcess, logger)
	} else {
		historyAuthority = history.NewLocal(rulesAuthority)
	}

	app := newWithDependencies(store, historyAuthority, rulesAuthority, clock.New(), random.New(), logger)
	app.closers = append(app.closers, closers...)
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	historyAuthority history.Authority,
	rulesAuthority rules.Authority,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	verifier := signature.NewVerifier()
	hubManager := realtime.NewHubManager(logger)
	broadcaster := realtime.NewBroadcaster(hubManager, store, logger)
	engine := session.NewEngine(store, historyAuthority, rulesAuthority, verifier, broadcaster, clk, rnd, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Rules:       rulesAuthority,
		History:     historyAuthority,
		Verifier:    verifier,
		HubManager:  hubManager,
		Broadcaster: broadcaster,
		Engine:      engine,
		Logger:      logger,
		closers: []func() error{
			func() error { hubManager.Close(); return nil },
		},
	}
}

// Close disconnects realtime clients and releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
