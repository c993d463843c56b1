package record

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator. Field errors are reported
// by column name (the json tag) instead of the Go field name.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the required columns of an insert input.
//
// Returns a *ConstraintViolation of kind RequiredFieldMissing listing every
// missing column, or nil if all required columns are present.
func Validate(table string, input any) error {
	err := validatorInstance().Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ConstraintViolation{
		Kind:    RequiredFieldMissing,
		Table:   table,
		Fields:  fields,
		Message: "required column has no value",
	}
}
