package app

import (
	"fmt"
	"io"

	"driveauth/internal/auth"
	"driveauth/internal/config"
	"driveauth/internal/db"
	"driveauth/internal/drive"
	"driveauth/internal/logger"
	"driveauth/internal/model"
	"driveauth/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the components built from a Config.
type App struct {
	DB       *gorm.DB
	Facade   *auth.Facade
	History  *repository.HistoryRepository
	Resolver *drive.Resolver
}

var openDB = db.Open

// New opens the database, selects the token storage backend and configures
// every provider that has a client id. Authorization URLs are written to out.
func New(cfg *config.Config, out io.Writer, opts ...auth.Option) (*App, error) {
	gdb, err := openDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, err := cfg.Storage.NewStore(gdb)
	if err != nil {
		closeDB(gdb)
		return nil, fmt.Errorf("failed to create token storage: %w", err)
	}

	history := repository.NewHistoryRepository(gdb)

	opts = append([]auth.Option{
		auth.WithAuthorizer(auth.NewLoopbackAuthorizer(out)),
		auth.WithRecorder(history),
	}, opts...)

	a := &App{
		DB:       gdb,
		Facade:   auth.NewFacade(store, opts...),
		History:  history,
		Resolver: drive.NewResolver(),
	}

	if err := a.ApplyProviders(cfg); err != nil {
		closeDB(gdb)
		return nil, err
	}

	logger.Log.Debug("app ready",
		zap.String("db_path", cfg.DBPath),
		zap.String("storage", string(cfg.Storage.Backend)))

	return a, nil
}

// ApplyProviders configures the facade with the providers of cfg. Providers
// without a client id in cfg are unconfigured.
func (a *App) ApplyProviders(cfg *config.Config) error {
	byProvider := cfg.Providers.ByProvider()
	for _, p := range model.Providers {
		pc, ok := byProvider[p]
		if !ok {
			if err := a.Facade.Unconfigure(p); err != nil {
				return fmt.Errorf("failed to unconfigure %s: %w", p, err)
			}
			continue
		}
		if err := a.Facade.Configure(p, pc); err != nil {
			return fmt.Errorf("failed to configure %s: %w", p, err)
		}
	}
	return nil
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		logger.Log.Warn("failed to close database", zap.Error(err))
	}
}
