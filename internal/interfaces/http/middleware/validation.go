package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/invoicing/backend/internal/domain/person"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report JSON (or form) field names and
// registers the country tag
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	v.RegisterTagNameFunc(fieldName)
	return v.RegisterValidation("country", validateCountry)
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// validateCountry accepts the supported country codes in any letter case
func validateCountry(fl validator.FieldLevel) bool {
	value := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
	return person.Country(value).IsValid()
}

// FormatValidationErrors lists every rejected field in a validation response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 for a binding error. Validation
// failures list the fields; anything else (malformed JSON, a string where a
// number belongs) is a bad request.
func HandleValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeBadRequest, "Malformed request: "+err.Error(), GetRequestID(c)))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "country":
		return "Must be one of: CZECHIA, SLOVAKIA"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "numeric":
		return "Must be numeric"
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "datetime":
		return "Must be a date in " + e.Param() + " layout"
	default:
		return "Invalid value"
	}
}
