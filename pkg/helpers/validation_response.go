package helpers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse represents the validation error response format
type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// FormatValidationError formats a validator.FieldError into an error message
func FormatValidationError(fe validator.FieldError) string {
	fieldName := getFieldName(fe)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required", fieldName)
	case "required_if":
		return fmt.Sprintf("The %s field is required", fieldName)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address", fieldName)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s", fieldName, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not exceed %s", fieldName, fe.Param())
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s", fieldName, fe.Param())
	case "btc_address":
		return fmt.Sprintf("The %s field must be a valid Bitcoin address", fieldName)
	case "trc20_address":
		return fmt.Sprintf("The %s field must be a valid TRC20 address", fieldName)
	case "tx_hash":
		return fmt.Sprintf("The %s field must be a valid transaction hash", fieldName)
	default:
		return fmt.Sprintf("The %s field is invalid", fieldName)
	}
}

// getFieldName extracts a human-readable field name from the FieldError
func getFieldName(fe validator.FieldError) string {
	fieldName := strings.ToLower(fe.Field())
	fieldName = strings.ReplaceAll(fieldName, "_", " ")
	return fieldName
}

// WriteValidationErrorResponse writes a validation error response for the
// given validation errors
func WriteValidationErrorResponse(c *gin.Context, validationErrors validator.ValidationErrors) {
	errors := make(map[string]string)
	var firstMessage string

	for i, err := range validationErrors {
		fieldName := err.Field()
		errorMessage := FormatValidationError(err)

		errors[fieldName] = errorMessage

		// First error message becomes the main message
		if i == 0 {
			firstMessage = errorMessage
		}
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Message: firstMessage,
		Errors:  errors,
	})
}
