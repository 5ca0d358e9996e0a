package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoiceapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoiceapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Store a new invoice between two stored persons
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoiceapp.InvoiceRequest true "Invoice attributes"
// @Success      201 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoiceapp.InvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Description  Retrieve any invoice row with its buyer and seller
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Edit an invoice
// @Description  Hide the current row and store the edited version under a new ID
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Param        request body invoiceapp.InvoiceRequest true "Invoice attributes"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req invoiceapp.InvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice
// @Description  Hide the invoice. Deleting an unknown or already hidden ID succeeds.
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Summaries godoc
// @ID           listInvoiceSummaries
// @Summary      Invoice summaries
// @Description  Filtered page of visible invoices. All filters are optional and combine with AND.
// @Tags         invoices
// @Produce      json
// @Param        buyerId query string false "Buyer identification number"
// @Param        sellerId query string false "Seller identification number"
// @Param        buyerPersonId query int false "Buyer person ID"
// @Param        sellerPersonId query int false "Seller person ID"
// @Param        product query string false "Case-insensitive substring of the product"
// @Param        minPrice query number false "Lowest price, inclusive"
// @Param        maxPrice query number false "Highest price, inclusive"
// @Param        limit query int false "Page size, overrides page_size" maximum(100)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(id, invoiceNumber, issued, dueDate, product, price)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]invoiceapp.SummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/summary [get]
func (h *InvoiceHandler) Summaries(c *gin.Context) {
	var filter invoiceapp.SummaryFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	summaries, total, err := h.invoiceService.Summaries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paging := filter.Filter()
	h.SuccessWithMeta(c, summaries, total, paging.Page, paging.PageSize)
}

// Sales godoc
// @ID           listInvoiceSales
// @Summary      Invoices sold by a party
// @Description  Visible invoices whose seller carries the identification number, across all its versions
// @Tags         invoices
// @Produce      json
// @Param        ic path string true "Identification number"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/identification/{ic}/sales [get]
func (h *InvoiceHandler) Sales(c *gin.Context) {
	h.listByParty(c, h.invoiceService.ListBySellerIC)
}

// Purchases godoc
// @ID           listInvoicePurchases
// @Summary      Invoices bought by a party
// @Description  Visible invoices whose buyer carries the identification number, across all its versions
// @Tags         invoices
// @Produce      json
// @Param        ic path string true "Identification number"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/identification/{ic}/purchases [get]
func (h *InvoiceHandler) Purchases(c *gin.Context) {
	h.listByParty(c, h.invoiceService.ListByBuyerIC)
}

type partyLister func(ctx context.Context, ic string, filter invoiceapp.ListFilter) ([]invoiceapp.InvoiceResponse, int64, error)

func (h *InvoiceHandler) listByParty(c *gin.Context, list partyLister) {
	ic := strings.TrimSpace(c.Param("ic"))
	if ic == "" {
		h.BadRequest(c, "Identification number is required")
		return
	}
	var filter invoiceapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	invoices, total, err := list(c.Request.Context(), ic, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paging := filter.Filter()
	h.SuccessWithMeta(c, invoices, total, paging.Page, paging.PageSize)
}

// Statistics godoc
// @ID           getInvoiceStatistics
// @Summary      Invoice statistics
// @Description  Price sums over visible invoices: issued in the current year, all time, and the count
// @Tags         invoices
// @Produce      json
// @Success      200 {object} APIResponse[invoiceapp.StatisticsResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/statistics [get]
func (h *InvoiceHandler) Statistics(c *gin.Context) {
	stats, err := h.invoiceService.Statistics(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
