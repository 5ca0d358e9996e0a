package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 answers the path-style object calls used by S3ObjectStorage
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	f := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func testStorageConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Endpoint:        endpoint,
		Region:          "eu-central-1",
		Bucket:          "invoices",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	cfg := testStorageConfig("http://localhost:9000")
	cfg.Bucket = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "bucket is required")

	cfg = testStorageConfig("http://localhost:9000")
	cfg.SecretAccessKey = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "secret access key are required")

	_, err = NewS3ObjectStorage(testStorageConfig("not a url"))
	assert.ErrorContains(t, err, "invalid storage endpoint")

	cfg = testStorageConfig("http://localhost:9000")
	cfg.PresignExpiry = 0
	s, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)
	assert.Equal(t, "invoices", s.Bucket())
	assert.Equal(t, defaultPresignExpiry, s.presignExpiry)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	raw, expiresAt, err := s.GenerateDownloadURL(ctx, "invoices/2024001/a.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(10*time.Minute), expiresAt)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/invoices/invoices/2024001/a.pdf", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	raw, _, err = s.GenerateDownloadURL(ctx, "k.pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, raw, "X-Amz-Expires=60")

	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, errKeyRequired)
}

func TestS3ObjectStorage_ObjectLifecycle(t *testing.T) {
	fake, srv := newFakeS3(t)
	s, err := NewS3ObjectStorage(testStorageConfig(srv.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	ctx := context.Background()

	key := "invoices/2024001/doc.pdf"
	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Upload(ctx, key, []byte("%PDF-1.4 test"), ContentTypePDF))

	fake.mu.Lock()
	stored := fake.objects["invoices/"+key]
	contentType := fake.types["invoices/"+key]
	fake.mu.Unlock()
	assert.Contains(t, string(stored), "%PDF-1.4 test")
	assert.Equal(t, ContentTypePDF, contentType)

	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteObject(ctx, key))
	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, s.Upload(ctx, "", nil, ContentTypePDF), errKeyRequired)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), errKeyRequired)
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errKeyRequired)
}

func TestInvoiceDocumentKey(t *testing.T) {
	key := InvoiceDocumentKey("2024001")
	assert.Regexp(t, `^invoices/2024001/[0-9a-f-]{36}\.pdf$`, key)
	assert.NotEqual(t, key, InvoiceDocumentKey("2024001"), "every archive gets its own object")

	assert.Regexp(t, `^invoices/2024_01/`, InvoiceDocumentKey("2024/01"))
	assert.Regexp(t, `^invoices/unnumbered/`, InvoiceDocumentKey("  "))
}
