package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ledgerly/backend/internal/application/report"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// A4 in inches, the unit Chrome's print API expects
const (
	a4Width  = 210 / 25.4
	a4Height = 297 / 25.4
	margin   = 12 / 25.4
)

// ErrRenderTimeout is returned when Chrome does not finish in time
var ErrRenderTimeout = errors.New("PDF rendering timed out")

// ChromePDFRenderer prints statement HTML to PDF through headless Chrome
type ChromePDFRenderer struct {
	html        *StatementHTML
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromePDFRenderer creates a renderer. A ChromeURL in cfg attaches to a
// remote DevTools endpoint; otherwise a local browser is launched per render.
func NewChromePDFRenderer(cfg config.ExportConfig, html *StatementHTML, logger *zap.Logger) *ChromePDFRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ChromePDFRenderer{
		html:    html,
		timeout: cfg.RenderTimeout,
		logger:  logger,
	}
	if r.timeout <= 0 {
		r.timeout = defaultRenderTimeout
	}

	if cfg.ChromeURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.ChromeURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-background-networking", true),
			chromedp.Flag("font-render-hinting", "none"),
			chromedp.NoSandbox,
		)
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	return r
}

// RenderStatement renders s to HTML and prints it as an A4 PDF
func (r *ChromePDFRenderer) RenderStatement(ctx context.Context, s *report.Statement) ([]byte, error) {
	doc, err := r.html.Render(s)
	if err != nil {
		return nil, err
	}
	return r.print(ctx, doc)
}

func (r *ChromePDFRenderer) print(ctx context.Context, html string) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// chromedp contexts do not inherit the caller's deadline
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrRenderTimeout, r.timeout)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("generated PDF is empty")
	}

	r.logger.Info("statement PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return pdf, nil
}

// Close releases the browser allocator
func (r *ChromePDFRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

var _ report.PDFRenderer = (*ChromePDFRenderer)(nil)
