package model

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gcbaptista/go-lostfound/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so API clients see the keys they sent
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the structural invariants of a stored record.
// An unknown type yields an InvalidRecordError; other violations yield a ValidationError.
func (i Item) Validate() error {
	if !i.Type.Valid() {
		return errors.NewInvalidRecordError(i.ID, fmt.Sprintf("unknown item type '%s'", i.Type))
	}
	return toValidationError(validate.Struct(i))
}

// Validate checks a submission before an ID is assigned.
func (n NewItem) Validate() error {
	if !n.Type.Valid() {
		return errors.NewInvalidRecordError("", fmt.Sprintf("unknown item type '%s'", n.Type))
	}
	return toValidationError(validate.Struct(n))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errors.NewValidationError(fe.Field(), "is required")
	case "max":
		return errors.NewValidationError(fe.Field(), "must be at most "+fe.Param()+" characters")
	case "datetime":
		return errors.NewValidationError(fe.Field(), "must be a date formatted as YYYY-MM-DD")
	default:
		return errors.NewValidationError(fe.Field(), fmt.Sprintf("failed '%s' validation", fe.Tag()))
	}
}
