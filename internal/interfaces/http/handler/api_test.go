package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	personapp "github.com/invoicing/backend/internal/application/person"
	printingapp "github.com/invoicing/backend/internal/application/printing"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/persistence/testdb"
	infra "github.com/invoicing/backend/internal/infrastructure/printing"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

// testAPI is the person, invoice and document API over an in-memory database
type testAPI struct {
	router    *gin.Engine
	documents *printingapp.DocumentService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := testdb.NewSQLite(t)

	personRepo := persistence.NewGormPersonRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)

	personService := personapp.NewPersonService(personRepo, invoiceRepo)
	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, personRepo)

	engine, err := infra.NewTemplateEngine()
	require.NoError(t, err)
	documents := printingapp.NewDocumentService(invoiceService, engine, nil)

	persons := NewPersonHandler(personService)
	invoices := NewInvoiceHandler(invoiceService)
	docs := NewDocumentHandler(documents)

	router := gin.New()
	router.Use(middleware.RequestID())
	api := router.Group("/api/v1")

	p := api.Group("/persons")
	p.POST("", persons.Create)
	p.GET("", persons.List)
	p.GET("/lookup", persons.AllLookups)
	p.GET("/lookup/:id", persons.LookupByID)
	p.GET("/statistics", persons.Statistics)
	p.GET("/invoice-related", persons.RelatedPersons)
	p.GET("/:id", persons.GetByID)
	p.PUT("/:id", persons.Update)
	p.DELETE("/:id", persons.Delete)

	i := api.Group("/invoices")
	i.POST("", invoices.Create)
	i.GET("/summary", invoices.Summaries)
	i.GET("/statistics", invoices.Statistics)
	i.GET("/identification/:ic/sales", invoices.Sales)
	i.GET("/identification/:ic/purchases", invoices.Purchases)
	i.GET("/:id", invoices.GetByID)
	i.PUT("/:id", invoices.Update)
	i.DELETE("/:id", invoices.Delete)
	i.GET("/:id/document", docs.HTML)
	i.GET("/:id/pdf", docs.PDF)
	i.POST("/:id/archive", docs.Archive)

	return &testAPI{router: router, documents: documents}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func personBody(name, ic string) map[string]any {
	return map[string]any{
		"name":                 name,
		"identificationNumber": ic,
		"taxNumber":            "CZ" + ic,
		"accountNumber":        "123456789",
		"bankCode":             "0100",
		"iban":                 "",
		"telephone":            "+420 777 123 456",
		"email":                "billing@example.cz",
		"street":               "Narodni 1",
		"zip":                  "11000",
		"city":                 "Praha",
		"country":              "CZECHIA",
		"note":                 "",
	}
}

func invoiceBody(number int, product, price, issued string, buyerID, sellerID int64) map[string]any {
	return map[string]any{
		"invoiceNumber": number,
		"issued":        issued,
		"dueDate":       issued,
		"product":       product,
		"price":         price,
		"vat":           21,
		"note":          "",
		"buyer":         map[string]any{"id": buyerID},
		"seller":        map[string]any{"id": sellerID},
	}
}

func (a *testAPI) createPerson(t *testing.T, name, ic string) personapp.PersonResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/persons", personBody(name, ic))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p personapp.PersonResponse
	decodeData(t, w, &p)
	return p
}

func (a *testAPI) createInvoice(t *testing.T, body map[string]any) invoiceapp.InvoiceResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv invoiceapp.InvoiceResponse
	decodeData(t, w, &inv)
	return inv
}

// stubPDFRenderer returns a fixed document
type stubPDFRenderer struct {
	err      error
	lastHTML string
}

func (r *stubPDFRenderer) Render(_ context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.lastHTML = req.HTML
	return &infra.RenderResult{PDFData: []byte("%PDF-1.7 stub"), PageCount: 1}, nil
}

func (r *stubPDFRenderer) Close() error { return nil }
