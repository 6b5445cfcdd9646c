package address

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks a for completeness. The result maps json field names to a
// message and is empty when a is valid.
func Validate(a Address) map[string]string {
	return ValidateAs("", a)
}

// ValidateAs is Validate with every field name prefixed by prefix and a dot.
func ValidateAs(prefix string, a Address) map[string]string {
	out := map[string]string{}
	err := validatorInstance().Struct(a)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[withPrefix(prefix, "address")] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[withPrefix(prefix, fe.Field())] = message(fe)
	}
	return out
}

func withPrefix(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
