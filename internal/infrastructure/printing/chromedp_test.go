package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewChromedpRenderer(t *testing.T) {
	_, err := NewChromedpRenderer(nil, zap.NewNop())
	assert.Error(t, err)

	r, err := NewChromedpRenderer(&config.PrintingConfig{NoSandbox: true}, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, defaultChromeTimeout, r.timeout)

	r, err = NewChromedpRenderer(&config.PrintingConfig{
		RemoteURL: "ws://127.0.0.1:9222/devtools/browser/abc",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 5*time.Second, r.timeout)
}

func TestChromedpRenderer_RejectsInvalidRequests(t *testing.T) {
	r, err := NewChromedpRenderer(&config.PrintingConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	tests := []struct {
		name string
		req  *RenderRequest
	}{
		{"nil request", nil},
		{"empty HTML", &RenderRequest{}},
		{"whitespace HTML", &RenderRequest{HTML: "  \n\t "}},
		{"negative margin", &RenderRequest{HTML: "<p>x</p>", Margins: Margins{Top: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), tt.req)
			var renderErr *RenderError
			require.True(t, errors.As(err, &renderErr))
			assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
		})
	}
}

func TestBuildPrintParams(t *testing.T) {
	params := buildPrintParams(&RenderRequest{Margins: Margins{Top: 25.4, Right: 12.7, Bottom: 25.4, Left: 12.7}}, 0)

	assert.InDelta(t, 8.27, params.paperWidth, 0.01)
	assert.InDelta(t, 11.69, params.paperHeight, 0.01)
	assert.InDelta(t, 1.0, params.marginTop, 0.001)
	assert.InDelta(t, 0.5, params.marginLeft, 0.001)
	assert.Equal(t, defaultScale, params.scale)
	assert.False(t, params.landscape)

	params = buildPrintParams(&RenderRequest{Landscape: true}, 0.8)
	assert.True(t, params.landscape)
	assert.Equal(t, 0.8, params.scale)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, wrapDocument(&RenderRequest{HTML: full}))

	wrapped := wrapDocument(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
	assert.True(t, strings.HasPrefix(wrapped, "<!DOCTYPE html>"))
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}

func TestCountPages(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Kids [3 0 R 4 0 R] >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, countPages(pdf))
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)
	assert.Equal(t, "chromedp execution failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "generated PDF is empty", NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil).Error())
}
