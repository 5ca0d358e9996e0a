package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	printingapp "github.com/invoicing/backend/internal/application/printing"
)

// DocumentHandler serves printable invoice documents
type DocumentHandler struct {
	BaseHandler
	documentService *printingapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *printingapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// HTML godoc
// @ID           getInvoiceDocument
// @Summary      Invoice document
// @Description  Printable HTML rendition of any invoice row
// @Tags         documents
// @Produce      html
// @Param        id path int true "Invoice ID"
// @Success      200 {string} string "HTML document"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/document [get]
func (h *DocumentHandler) HTML(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	html, err := h.documentService.RenderHTML(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// PDF godoc
// @ID           getInvoicePdf
// @Summary      Invoice PDF
// @Description  A4 PDF of any invoice row. Answers 503 when PDF rendering is disabled.
// @Tags         documents
// @Produce      application/pdf
// @Param        id path int true "Invoice ID"
// @Param        download query bool false "Send as attachment instead of inline"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Failure      504 {object} ErrorResponse
// @Router       /invoices/{id}/pdf [get]
func (h *DocumentHandler) PDF(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documentService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName))
	c.Header("X-Page-Count", strconv.Itoa(doc.PageCount))
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}

// Archive godoc
// @ID           archiveInvoicePdf
// @Summary      Archive invoice PDF
// @Description  Render the PDF, store it in object storage and return a temporary download link
// @Tags         documents
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      201 {object} APIResponse[printingapp.ArchiveResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /invoices/{id}/archive [post]
func (h *DocumentHandler) Archive(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	archived, err := h.documentService.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, archived)
}
