package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationTestRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Country string `json:"country" binding:"required,country"`
	VAT     *int   `json:"vat" binding:"required,min=0,max=100"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
}

func newValidationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/persons", func(c *gin.Context) {
		var req validationTestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Country))
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/persons", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSetupValidator(t *testing.T) {
	require.NoError(t, SetupValidator())
	// idempotent
	require.NoError(t, SetupValidator())
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter(t)

	t.Run("accepts valid body", func(t *testing.T) {
		w, _ := postJSON(router, `{"email":"a@b.cz","country":"slovakia","vat":21}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("lists rejected fields by json name", func(t *testing.T) {
		w, resp := postJSON(router, `{"email":"nope","country":"GERMANY","vat":101}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid email format", messages["email"])
		assert.Equal(t, "Must be one of: CZECHIA, SLOVAKIA", messages["country"])
		assert.Equal(t, "Must be at most 100", messages["vat"])
	})

	t.Run("zero vat passes required on pointer", func(t *testing.T) {
		w, _ := postJSON(router, `{"email":"a@b.cz","country":"CZECHIA","vat":0}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		w, resp := postJSON(router, `{"country":"CZECHIA","vat":0}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "email", resp.Error.Details[0].Field)
		assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		w, resp := postJSON(router, `{"email":`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Empty(t, resp.Error.Details)
	})

	t.Run("wrong JSON type is a bad request", func(t *testing.T) {
		w, resp := postJSON(router, `{"email":"a@b.cz","country":"CZECHIA","vat":"high"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}
