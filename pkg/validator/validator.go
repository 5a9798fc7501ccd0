package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Errors name the form input, falling back to the json key and then the
	// lowercased field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return strings.ToLower(f.Name)
	})

	// pincode: six ASCII digits.
	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return isPincode(fl.Field().String())
	})
	return v
}

func isPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Validate checks a form or request struct against its validate tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: fieldErrs}
		}
		return err
	}
	return nil
}

// ValidationError carries the failing fields of a submitted form.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, describe(fe))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failing input name to its message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

// First returns the message for the first failing field, for forms that show
// a single inline error.
func (e *ValidationError) First() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return describe(e.Errors[0])
}

func describe(fe validator.FieldError) string {
	return fe.Field() + " " + message(fe)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must contain digits only"
	case "pincode":
		return "must be a 6-digit pincode"
	case "url":
		return "must be a valid URL"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
