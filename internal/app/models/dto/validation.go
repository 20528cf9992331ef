package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HandleValidationError turns a binding error into an error response. Field-level
// failures from validator are listed individually.
func HandleValidationError(err error) *ErrorResponse {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewErrorResponse(
			NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format").WithDetails(err.Error()),
		)
	}

	list := NewValidationErrors()
	for _, fe := range fieldErrs {
		list.AddError(lowerFirst(fe.Field()), describeFieldError(fe))
	}

	detail := NewErrorDetail(ErrorCodeValidationFailed, list.Errors[0].Message).WithDetails(list.Errors)
	if len(list.Errors) == 1 {
		detail.WithField(list.Errors[0].Field)
	}
	return NewErrorResponse(detail)
}

func describeFieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
