// Package printing renders stored invoices as HTML and PDF documents and
// archives the PDFs in object storage.
package printing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	infra "github.com/invoicing/backend/internal/infrastructure/printing"
	"github.com/invoicing/backend/internal/infrastructure/storage"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceLoader loads an invoice with both parties
type InvoiceLoader interface {
	Load(ctx context.Context, id int64) (*invoice.Invoice, error)
}

// HTMLRenderer executes the invoice template
type HTMLRenderer interface {
	Render(ctx context.Context, doc *infra.InvoiceDocument) (string, error)
}

// ObjectStorage stores archived documents
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// DocumentService handles invoice document generation
type DocumentService struct {
	invoices InvoiceLoader
	html     HTMLRenderer
	pdf      infra.PDFRenderer
	storage  ObjectStorage
	logger   *zap.Logger
}

// NewDocumentService creates a new DocumentService. PDF rendering and
// archiving stay unavailable until SetPDFRenderer and SetStorage are called.
func NewDocumentService(invoices InvoiceLoader, html HTMLRenderer, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		invoices: invoices,
		html:     html,
		logger:   logger,
	}
}

// SetPDFRenderer enables PDF output
func (s *DocumentService) SetPDFRenderer(r infra.PDFRenderer) {
	s.pdf = r
}

// SetStorage enables archiving
func (s *DocumentService) SetStorage(st ObjectStorage) {
	s.storage = st
}

// PDFEnabled reports whether a PDF renderer is configured
func (s *DocumentService) PDFEnabled() bool {
	return s.pdf != nil
}

// RenderHTML renders the invoice as an HTML page
func (s *DocumentService) RenderHTML(ctx context.Context, invoiceID int64) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "html",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID))
	defer span.End()

	html, _, err := s.renderHTML(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	telemetry.SetOK(span)
	return html, nil
}

// RenderPDF renders the invoice as a PDF file
func (s *DocumentService) RenderPDF(ctx context.Context, invoiceID int64) (*PDFDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "pdf",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID))
	defer span.End()

	if s.pdf == nil {
		err := shared.Unavailable("PDF rendering is disabled")
		telemetry.RecordError(span, err)
		return nil, err
	}

	doc, err := s.renderPDF(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return doc, nil
}

// Archive renders the PDF, uploads it and returns a presigned download link
func (s *DocumentService) Archive(ctx context.Context, invoiceID int64) (*ArchiveResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "archive",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID))
	defer span.End()

	if s.storage == nil {
		err := shared.Unavailable("Document storage is disabled")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.pdf == nil {
		err := shared.Unavailable("PDF rendering is disabled")
		telemetry.RecordError(span, err)
		return nil, err
	}

	doc, err := s.renderPDF(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	key := storage.InvoiceDocumentKey(strconv.Itoa(doc.InvoiceNumber))
	if err := s.storage.Upload(ctx, key, doc.Data, storage.ContentTypePDF); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to archive invoice document: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, 0)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create download link: %w", err)
	}

	s.logger.Info("Invoice document archived",
		zap.Int64("invoice_id", invoiceID),
		zap.String("key", key),
		zap.Int("bytes", len(doc.Data)))
	telemetry.SetOK(span)

	return &ArchiveResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: expiresAt,
		Size:      len(doc.Data),
	}, nil
}

func (s *DocumentService) renderHTML(ctx context.Context, invoiceID int64) (string, *infra.InvoiceDocument, error) {
	inv, err := s.invoices.Load(ctx, invoiceID)
	if err != nil {
		return "", nil, err
	}
	doc, err := infra.NewInvoiceDocument(inv)
	if err != nil {
		return "", nil, fmt.Errorf("failed to prepare invoice document: %w", err)
	}
	html, err := s.html.Render(ctx, doc)
	if err != nil {
		return "", nil, toDomainError(err)
	}
	return html, doc, nil
}

func (s *DocumentService) renderPDF(ctx context.Context, invoiceID int64) (*PDFDocument, error) {
	html, doc, err := s.renderHTML(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var result *infra.RenderResult
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.EntityInvoice, "render_pdf"), func(ctx context.Context) {
		result, err = s.pdf.Render(ctx, &infra.RenderRequest{
			HTML:    html,
			Title:   doc.Title(),
			Margins: infra.DefaultMargins(),
		})
	})
	if err != nil {
		s.logger.Error("PDF rendering failed", zap.Error(err), zap.Int64("invoice_id", invoiceID))
		return nil, toDomainError(err)
	}

	return &PDFDocument{
		InvoiceNumber: doc.InvoiceNumber,
		FileName:      fmt.Sprintf("invoice-%d.pdf", doc.InvoiceNumber),
		Data:          result.PDFData,
		PageCount:     result.PageCount,
	}, nil
}

// toDomainError exposes rendering failures by their code
func toDomainError(err error) error {
	var renderErr *infra.RenderError
	if errors.As(err, &renderErr) {
		return shared.NewDomainError(renderErr.Code, renderErr.Message)
	}
	return err
}
