package handlers

import (
	"fmt"

	"flood-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var jsonFieldNames = map[string]string{
	"StartDate": "start_date",
	"Days":      "days",
}

func validationResponse(fields []services.FieldError) gin.H {
	return gin.H{"error": "validation failed", "details": fields}
}

// fieldErrors converts binding failures to the same shape the service uses.
func fieldErrors(verrs validator.ValidationErrors) []services.FieldError {
	out := make([]services.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := jsonFieldNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		out = append(out, services.FieldError{Field: name, Message: fieldMessage(fe)})
	}
	return out
}

// mergeFieldErrors appends the entries of extra whose field is not already
// reported in fields.
func mergeFieldErrors(fields, extra []services.FieldError) []services.FieldError {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Field] = true
	}
	for _, f := range extra {
		if !seen[f.Field] {
			fields = append(fields, f)
			seen[f.Field] = true
		}
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
