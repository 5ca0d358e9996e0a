package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultScale         = 1.0
)

// ChromedpRenderer renders HTML to A4 PDF through the Chrome DevTools Protocol.
// It either attaches to a remote Chrome (printing.remote_url) or launches a
// local headless one on first use.
type ChromedpRenderer struct {
	timeout     time.Duration
	scale       float64
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a renderer from the printing settings
func NewChromedpRenderer(cfg *config.PrintingConfig, logger *zap.Logger) (*ChromedpRenderer, error) {
	if cfg == nil {
		return nil, errors.New("printing config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{
		timeout: cfg.Timeout,
		scale:   defaultScale,
		logger:  logger,
	}
	if r.timeout <= 0 {
		r.timeout = defaultChromeTimeout
	}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		logger.Info("chromedp renderer attached to remote Chrome", zap.String("remote_url", cfg.RemoteURL))
		return r, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// Render converts an HTML document to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRenderRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The tab lives under the shared allocator but is cancelled with the request
	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	document := wrapDocument(req)
	params := buildPrintParams(req, r.scale)

	var pdfData []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(params.paperWidth).
				WithPaperHeight(params.paperHeight).
				WithMarginTop(params.marginTop).
				WithMarginRight(params.marginRight).
				WithMarginBottom(params.marginBottom).
				WithMarginLeft(params.marginLeft).
				WithScale(params.scale).
				WithLandscape(params.landscape).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	result := &RenderResult{
		PDFData:        pdfData,
		PageCount:      countPages(pdfData),
		RenderDuration: time.Since(start),
	}
	r.logger.Debug("PDF rendered",
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result, nil
}

// Close shuts the browser allocator down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// printParams are PrintToPDF arguments; Chrome takes inches
type printParams struct {
	paperWidth   float64
	paperHeight  float64
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
	scale        float64
	landscape    bool
}

func buildPrintParams(req *RenderRequest, scale float64) printParams {
	if scale <= 0 {
		scale = defaultScale
	}
	return printParams{
		paperWidth:   mmToInches(a4WidthMM),
		paperHeight:  mmToInches(a4HeightMM),
		marginTop:    mmToInches(req.Margins.Top),
		marginRight:  mmToInches(req.Margins.Right),
		marginBottom: mmToInches(req.Margins.Bottom),
		marginLeft:   mmToInches(req.Margins.Left),
		scale:        scale,
		landscape:    req.Landscape,
	}
}

// wrapDocument turns an HTML fragment into a full document. Complete
// documents are passed through untouched.
func wrapDocument(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}

	var buf bytes.Buffer
	buf.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		buf.WriteString("<title>")
		buf.WriteString(html.EscapeString(req.Title))
		buf.WriteString("</title>")
	}
	buf.WriteString("</head><body>")
	buf.WriteString(req.HTML)
	buf.WriteString("</body></html>")
	return buf.String()
}

// countPages counts page objects; the page tree root is excluded
func countPages(pdf []byte) int {
	count := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(count, 1)
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
