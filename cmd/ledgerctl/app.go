package main

import (
	"context"
	"errors"

	"github.com/ledgerly/backend/internal/bootstrap"
	"github.com/ledgerly/backend/internal/infrastructure/cache"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// app is an opened container plus what must be released afterwards
type app struct {
	*bootstrap.Container
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

type openOptions struct {
	pdf   bool
	store bool
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// openApp connects to the database and the coordination backend the way the
// server does, so due-check guards and locks are shared with it.
func openApp(ctx context.Context, o openOptions) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel("warn"), 0)))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	if db.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	backend, err := cache.NewBackend(ctx, cfg.Redis, cfg.Ledger, cache.WithLogger(log))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, backend.Close)

	deps := bootstrap.Deps{Config: cfg, Logger: log, DB: db.DB, Cache: backend}
	if o.pdf && cfg.Export.PDFEnabled {
		pdf, err := bootstrap.NewPDFRenderer(cfg, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pdf.Close)
		deps.PDF = pdf
	}
	if o.store && cfg.Storage.Enabled() {
		store, err := bootstrap.NewObjectStore(ctx, cfg, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		deps.Store = store
	}

	a.Container, err = bootstrap.New(deps)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}
