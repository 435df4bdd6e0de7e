package bootstrap

import (
	"context"
	"fmt"

	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/export"
	"github.com/ledgerly/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// NewPDFRenderer builds the headless Chrome statement renderer. The caller
// closes it.
func NewPDFRenderer(cfg *config.Config, log *zap.Logger) (*export.ChromePDFRenderer, error) {
	money, err := ledger.NewMoneyFormatter(cfg.App.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid app.currency: %w", err)
	}
	html, err := export.NewStatementHTML(money)
	if err != nil {
		return nil, err
	}
	return export.NewChromePDFRenderer(cfg.Export, html, log.Named("pdf")), nil
}

// NewObjectStore connects to the report bucket and creates it when missing
func NewObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage.S3ObjectStorage, error) {
	store, err := storage.NewS3ObjectStorage(ctx, cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("prepare bucket %s: %w", store.Bucket(), err)
	}
	return store, nil
}
