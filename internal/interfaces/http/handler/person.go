package handler

import (
	"github.com/gin-gonic/gin"
	personapp "github.com/invoicing/backend/internal/application/person"
)

// PersonHandler handles person-related API endpoints
type PersonHandler struct {
	BaseHandler
	personService *personapp.PersonService
}

// NewPersonHandler creates a new PersonHandler
func NewPersonHandler(personService *personapp.PersonService) *PersonHandler {
	return &PersonHandler{personService: personService}
}

// Create godoc
// @ID           createPerson
// @Summary      Create a person
// @Description  Store a new business party that can buy or sell on invoices
// @Tags         persons
// @Accept       json
// @Produce      json
// @Param        request body personapp.PersonRequest true "Person attributes"
// @Success      201 {object} APIResponse[personapp.PersonResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons [post]
func (h *PersonHandler) Create(c *gin.Context) {
	var req personapp.PersonRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.personService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// GetByID godoc
// @ID           getPersonById
// @Summary      Get person by ID
// @Description  Retrieve any person row, hidden versions included
// @Tags         persons
// @Produce      json
// @Param        id path int true "Person ID"
// @Success      200 {object} APIResponse[personapp.PersonResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons/{id} [get]
func (h *PersonHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	p, err := h.personService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Update godoc
// @ID           updatePerson
// @Summary      Edit a person
// @Description  Hide the current row and store the edited version under a new ID. The identification number cannot change.
// @Tags         persons
// @Accept       json
// @Produce      json
// @Param        id path int true "Person ID"
// @Param        request body personapp.PersonRequest true "Person attributes"
// @Success      200 {object} APIResponse[personapp.PersonResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons/{id} [put]
func (h *PersonHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req personapp.PersonRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.personService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete godoc
// @ID           deletePerson
// @Summary      Delete a person
// @Description  Hide the person. Deleting an unknown or already hidden ID succeeds.
// @Tags         persons
// @Param        id path int true "Person ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons/{id} [delete]
func (h *PersonHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.personService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// List godoc
// @ID           listPersons
// @Summary      List persons
// @Description  Page through visible persons as lookups
// @Tags         persons
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(id, name, identificationNumber)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]personapp.LookupResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons [get]
func (h *PersonHandler) List(c *gin.Context) {
	var filter personapp.LookupListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	lookups, total, err := h.personService.ListLookups(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paging := filter.Filter()
	h.SuccessWithMeta(c, lookups, total, paging.Page, paging.PageSize)
}

// AllLookups godoc
// @ID           listPersonLookups
// @Summary      All person lookups
// @Description  Every visible person ordered by name, for pickers
// @Tags         persons
// @Produce      json
// @Success      200 {object} APIResponse[[]personapp.LookupResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /persons/lookup [get]
func (h *PersonHandler) AllLookups(c *gin.Context) {
	lookups, err := h.personService.AllLookups(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lookups)
}

// LookupByID godoc
// @ID           getPersonLookup
// @Summary      Person lookup by ID
// @Tags         persons
// @Produce      json
// @Param        id path int true "Person ID"
// @Success      200 {object} APIResponse[personapp.LookupResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons/lookup/{id} [get]
func (h *PersonHandler) LookupByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	lookup, err := h.personService.LookupByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lookup)
}

// Statistics godoc
// @ID           getPersonStatistics
// @Summary      Revenue per person
// @Description  Sum of the prices of visible invoices each visible person sold, zero when none
// @Tags         persons
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Param        order_by query string false "Sort field" Enums(name, revenue, id)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]personapp.StatisticsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /persons/statistics [get]
func (h *PersonHandler) Statistics(c *gin.Context) {
	var filter personapp.StatisticsFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	stats, total, err := h.personService.Statistics(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paging := h.personService.StatisticsPage(filter)
	h.SuccessWithMeta(c, stats, total, paging.Page, paging.PageSize)
}

// RelatedPersons godoc
// @ID           listInvoiceRelatedPersons
// @Summary      Persons on invoices
// @Description  Distinct buyers and sellers of visible invoices, keyed by identification number
// @Tags         persons
// @Produce      json
// @Success      200 {object} APIResponse[[]personapp.RelatedPersonResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /persons/invoice-related [get]
func (h *PersonHandler) RelatedPersons(c *gin.Context) {
	related, err := h.personService.RelatedPersons(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, related)
}
