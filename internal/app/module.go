// Package app composes the client: config, logging, stores, collaborator
// gateways and the workflow services.
package app

import (
	"context"
	"time"

	"github.com/boosthub/boosthub/internal/auth"
	"github.com/boosthub/boosthub/internal/blob"
	"github.com/boosthub/boosthub/internal/bus"
	"github.com/boosthub/boosthub/internal/chat"
	"github.com/boosthub/boosthub/internal/config"
	"github.com/boosthub/boosthub/internal/docstore"
	"github.com/boosthub/boosthub/internal/event"
	"github.com/boosthub/boosthub/internal/geo"
	"github.com/boosthub/boosthub/internal/lock"
	"github.com/boosthub/boosthub/internal/logging"
	"github.com/boosthub/boosthub/internal/notify"
	"github.com/boosthub/boosthub/internal/profile"
	"github.com/boosthub/boosthub/internal/session"
	"github.com/boosthub/boosthub/internal/status"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	ConfigPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the client, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideNotices,
			provideStateMachine,
			provideLock,
			provideDocStore,
			asDocStore,
			provideBlobStore,
			provideAuthProvider,
			provideResolver,
			provideSessionManager,
			profile.NewService,
			event.NewService,
			chat.NewService,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideNotices() *notify.Center {
	return notify.NewCenter()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideDocStore(p Params, logger *zap.Logger) (*docstore.SQLite, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := docstore.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("document store initialized", zap.String("path", dbPath))
	return db, nil
}

func asDocStore(db *docstore.SQLite) docstore.Store {
	return db
}

func provideBlobStore(cfg *config.Config) (blob.Store, error) {
	return blob.NewS3(blob.S3Config{
		Endpoint:        cfg.Blob.Endpoint,
		Region:          cfg.Blob.Region,
		Bucket:          cfg.Blob.Bucket,
		AccessKeyID:     cfg.Blob.AccessKeyID,
		SecretAccessKey: cfg.Blob.SecretAccessKey,
		URLExpiry:       time.Duration(cfg.Blob.URLExpiryMinutes) * time.Minute,
	})
}

func provideAuthProvider(p Params, cfg *config.Config, logger *zap.Logger) auth.Provider {
	// The identity state lives in the session dir so each CLI invocation
	// resumes the session the previous one established.
	return auth.NewClient(cfg.Auth.Endpoint, cfg.Auth.APIKey, session.IdentityPath(p.SessionName), logger)
}

func provideResolver(cfg *config.Config, logger *zap.Logger) *geo.Resolver {
	return geo.NewResolver(cfg.Geo.Endpoint, cfg.Geo.MaxResults, logger)
}

func provideSessionManager(provider auth.Provider, machine *status.Machine, logger *zap.Logger) *session.Manager {
	return session.NewManager(provider, machine, logger)
}

func registerLifecycle(lc fx.Lifecycle, db *docstore.SQLite, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("client started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn("error closing document store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
