package utils

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance with the custom rules registered.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// tour names must not contain digits
	_ = v.RegisterValidation("nodigits", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "0123456789")
	})

	return v
}

// ValidateStruct runs declarative validation and converts failures into a
// client-facing operational error.
func ValidateStruct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, describeFieldError(fe))
	}

	return NewAppError(http.StatusBadRequest, strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("the field %q is required", fe.Field())
	case "min":
		return fmt.Sprintf("the field %q must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("the field %q must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("the field %q must be one of: %s", fe.Field(), fe.Param())
	case "nodigits":
		return fmt.Sprintf("the field %q cannot contain any digits", fe.Field())
	case "email":
		return fmt.Sprintf("the field %q must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("the field %q failed validation on %q", fe.Field(), fe.Tag())
	}
}
