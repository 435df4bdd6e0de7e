package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// exportPageSize is the batch size used while collecting statement lines
const exportPageSize = 100

var (
	// ErrPDFDisabled is returned when PDF export is switched off
	ErrPDFDisabled = shared.NewDomainError("PDF_EXPORT_DISABLED", "PDF export is not enabled")
	// ErrUnsupportedFormat is returned for unknown export formats
	ErrUnsupportedFormat = shared.NewDomainError("UNSUPPORTED_FORMAT", "Export format is not supported")
)

// SpreadsheetWriter encodes a statement as an XLSX workbook
type SpreadsheetWriter interface {
	WriteStatement(s *Statement) ([]byte, error)
}

// PDFRenderer renders a statement as a PDF document
type PDFRenderer interface {
	RenderStatement(ctx context.Context, s *Statement) ([]byte, error)
}

// ObjectStore keeps exported files and hands out download links
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

// StatementFile is an exported statement. Data is set when the file is
// streamed; URL and ExpiresAt are set when it was uploaded.
type StatementFile struct {
	Name        string     `json:"name"`
	ContentType string     `json:"content_type"`
	Size        int        `json:"size"`
	Data        []byte     `json:"-"`
	Key         string     `json:"key,omitempty"`
	URL         string     `json:"url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Uploaded reports whether the file lives in object storage
func (f *StatementFile) Uploaded() bool {
	return f.URL != ""
}

// StatementServiceConfig wires a StatementService. PDF and Store are optional.
type StatementServiceConfig struct {
	Retailers ledger.RetailerRepository
	Invoices  ledger.InvoiceRepository
	Payments  ledger.PaymentRepository
	XLSX      SpreadsheetWriter
	PDF       PDFRenderer
	Store     ObjectStore
	Clock     shared.Clock
	Currency  string
}

// StatementService exports retailer statements
type StatementService struct {
	cfg StatementServiceConfig
}

// NewStatementService creates a new StatementService
func NewStatementService(cfg StatementServiceConfig) *StatementService {
	if cfg.Clock == nil {
		cfg.Clock = shared.NewSystemClock(nil)
	}
	if cfg.Currency == "" {
		cfg.Currency = ledger.DefaultCurrency
	}
	return &StatementService{cfg: cfg}
}

// PDFEnabled reports whether PDF statements can be produced
func (s *StatementService) PDFEnabled() bool {
	return s.cfg.PDF != nil
}

// Build collects a retailer's invoices and payments into a statement
func (s *StatementService) Build(ctx context.Context, tenantID, retailerID uuid.UUID) (*Statement, error) {
	retailer, err := s.cfg.Retailers.FindByIDForTenant(ctx, tenantID, retailerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.ErrRetailerNotFound
		}
		return nil, err
	}

	now := s.cfg.Clock.Now()
	today := ledger.DateOf(now)
	st := newStatement(retailer, s.cfg.Currency, today, now)

	invoiceFilter := ledger.InvoiceFilter{
		Filter:     shared.Filter{PageSize: exportPageSize, OrderBy: "due_date", OrderDir: "asc"},
		RetailerID: &retailerID,
	}
	for page := 1; ; page++ {
		invoiceFilter.Page = page
		batch, err := s.cfg.Invoices.FindAllForTenant(ctx, tenantID, invoiceFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to load invoices: %w", err)
		}
		for _, inv := range batch {
			inv.Refresh(today)
			st.addInvoice(inv)
		}
		if len(batch) < exportPageSize {
			break
		}
	}

	paymentFilter := ledger.PaymentFilter{
		Filter:     shared.Filter{PageSize: exportPageSize, OrderBy: "payment_date", OrderDir: "asc"},
		RetailerID: &retailerID,
	}
	for page := 1; ; page++ {
		paymentFilter.Page = page
		batch, err := s.cfg.Payments.FindAllForTenant(ctx, tenantID, paymentFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to load payments: %w", err)
		}
		for _, p := range batch {
			st.addPayment(p)
		}
		if len(batch) < exportPageSize {
			break
		}
	}
	return st, nil
}

// Export renders a retailer statement in format. With a configured store
// the file is uploaded and a presigned link returned; otherwise the bytes
// are returned for streaming.
func (s *StatementService) Export(ctx context.Context, tenantID, retailerID uuid.UUID, format Format) (*StatementFile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "statement", "export")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrTenantID, tenantID,
		telemetry.AttrRetailerID, retailerID,
		"ledger.export.format", string(format))

	if !format.IsValid() {
		return nil, ErrUnsupportedFormat
	}
	if format == FormatPDF && !s.PDFEnabled() {
		return nil, ErrPDFDisabled
	}

	st, err := s.Build(ctx, tenantID, retailerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var data []byte
	switch format {
	case FormatXLSX:
		data, err = s.cfg.XLSX.WriteStatement(st)
	case FormatPDF:
		data, err = s.cfg.PDF.RenderStatement(ctx, st)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to render %s statement: %w", format, err)
	}

	file := &StatementFile{
		Name:        st.FileName(format),
		ContentType: format.ContentType(),
		Size:        len(data),
	}
	log := logger.L(ctx).With(
		zap.String("retailer_id", retailerID.String()),
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)))

	if s.cfg.Store == nil {
		file.Data = data
		log.Info("statement exported")
		return file, nil
	}

	objectName := tenantID.String() + "/statements/" + file.Name
	key, err := s.cfg.Store.Put(ctx, objectName, data, file.ContentType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	url, expiresAt, err := s.cfg.Store.PresignGet(ctx, key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	file.Key = key
	file.URL = url
	file.ExpiresAt = &expiresAt
	log.Info("statement uploaded", zap.String("key", key))
	return file, nil
}
