package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second
	a4WidthInches        = 8.27
	a4HeightInches       = 11.69
)

var (
	// ErrEmptyDocument is returned when asked to render blank HTML.
	ErrEmptyDocument = errors.New("HTML content is empty")
	// ErrRendererClosed is returned by RenderPDF after Close.
	ErrRendererClosed = errors.New("PDF renderer is closed")
)

// PDFRenderer converts an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromedpConfig configures the headless Chrome renderer.
type ChromedpConfig struct {
	// RemoteURL is a Chrome DevTools websocket URL. Empty launches a
	// local browser on first use.
	RemoteURL string
	Timeout   time.Duration
	// NoSandbox is required when running as root inside a container.
	NoSandbox bool
}

// ChromedpRenderer prints A4 pages through the Chrome DevTools Protocol.
// One browser is shared by all renders; each render runs in its own tab.
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	closed        bool
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedpRenderer creates the renderer. No browser is started until
// the first render.
func NewChromedpRenderer(cfg ChromedpConfig, logger *zap.Logger) *ChromedpRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ChromedpRenderer{config: cfg, logger: logger}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// browser returns the shared browser context, starting the browser on
// first use or after it went away.
func (r *ChromedpRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRendererClosed
	}
	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}

	ctx, cancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	r.logger.Info("Browser started for PDF rendering")
	r.browserCtx, r.browserCancel = ctx, cancel
	return ctx, nil
}

// resetBrowser drops browserCtx if it is still the shared browser.
func (r *ChromedpRenderer) resetBrowser(browserCtx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCtx == browserCtx && r.browserCancel != nil {
		r.browserCancel()
		r.browserCtx, r.browserCancel = nil, nil
	}
}

// RenderPDF loads html into a new blank tab and prints it.
func (r *ChromedpRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	browserCtx, err := r.browser()
	if err != nil {
		return nil, err
	}
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	// Tie the tab to the caller's deadline.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var pdf []byte
	err = chromedp.Run(tabCtx,
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
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithPreferCSSPageSize(true).
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
			return nil, fmt.Errorf("PDF rendering timed out after %v: %w", r.config.Timeout, err)
		}
		if ctx.Err() == nil {
			// The browser may have died; start a fresh one next time.
			r.resetBrowser(browserCtx)
		}
		return nil, fmt.Errorf("PDF rendering failed: %w", err)
	}

	r.logger.Debug("PDF rendered", zap.Int("bytes", len(pdf)), zap.Duration("elapsed", time.Since(started)))
	return pdf, nil
}

// Close shuts down the shared browser and its allocator. It is safe to
// call more than once.
func (r *ChromedpRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.browserCancel != nil {
		r.browserCancel()
		r.browserCtx, r.browserCancel = nil, nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}
