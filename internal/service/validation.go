package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// emailPattern is the one email rule shared by the create and edit forms:
// something, a single @, a domain containing a dot, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s passes the console's email rule.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

// validateForm checks v and translates failures through messages, keyed by
// "field.tag". Only the first failure of each field is kept.
func validateForm(v any, messages map[string]string) (FieldErrors, []string) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}, []string{""}
	}

	out := make(FieldErrors, len(verrs))
	var order []string
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid.", field)
		}
		out[field] = msg
		order = append(order, field)
	}
	return out, order
}
