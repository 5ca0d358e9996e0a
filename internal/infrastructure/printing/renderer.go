package printing

import (
	"context"
	"strings"
	"time"
)

// A4 paper in millimeters
const (
	a4WidthMM  = 210.0
	a4HeightMM = 297.0
)

// Margins are page margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins returns the margins used for invoices
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 12, Bottom: 15, Left: 12}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML      string
	Title     string
	Margins   Margins
	Landscape bool
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during document rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeTemplateFailed = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func validateRenderRequest(req *RenderRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	m := req.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return NewRenderError(ErrCodeInvalidHTML, "margins cannot be negative", nil)
	}
	return nil
}
