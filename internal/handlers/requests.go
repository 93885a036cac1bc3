package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/batepapo/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator. Field names in errors are the
// JSON names clients send.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements the echo.Validator interface. Failures come back as a
// *domain.ValidationError listing every offending field.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validator.Struct(i)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return domain.NewValidationError(details...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%q must be at most %s characters long", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%q is invalid", fe.Field())
	}
}

// JoinRequest is the body of POST /participants.
type JoinRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// MessageRequest is the body of POST /messages and PUT /messages/:id.
type MessageRequest struct {
	To   string `json:"to" validate:"required,max=64"`
	Text string `json:"text" validate:"required,max=4096"`
	Type string `json:"type" validate:"required,oneof=message private_message"`
}
