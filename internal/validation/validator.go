// Package validation provides struct validation for pack manifests and requests using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/packdex/packdex-server/internal/domain"
	domainerrors "github.com/packdex/packdex-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Report fields by their JSON names so messages line up with manifest keys.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		name, _, _ = strings.Cut(name, ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// packid: lowercase alphanumeric id usable as the prefix of a composite id.
	_ = v.RegisterValidation("packid", func(fl validator.FieldLevel) bool {
		return domain.ValidPackID(fl.Field().String())
	})

	// tenantid: guild-style tenant identifiers.
	_ = v.RegisterValidation("tenantid", func(fl validator.FieldLevel) bool {
		return domain.ValidTenantID(fl.Field().String())
	})

	// nocolon: local ids may not contain the composite id separator.
	_ = v.RegisterValidation("nocolon", func(fl validator.FieldLevel) bool {
		return !strings.Contains(fl.Field().String(), ":")
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns an INVALID_REQUEST domain error listing failed fields.
func (v *Validator) Validate(s any) error {
	fields, err := v.Fields(s)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	return domainerrors.InvalidRequest(Summary(fields)).WithDetails(fields)
}

// Summary renders field errors as one message, fields in sorted order.
func Summary(fields map[string]string) string {
	keys := slices.Sorted(maps.Keys(fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields validates s and returns a map of namespaced field path to message.
// A nil map means s is valid. A non-nil error means s could not be validated at all.
func (v *Validator) Fields(s any) (map[string]string, error) {
	err := v.v.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = v.friendlyMessage(e)
	}
	return fieldErrors, nil
}

// fieldPath drops the root struct name from the namespace: "Manifest.media[0].id" -> "media[0].id".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_without_all":
		return "is required when no other title is set"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "packid":
		return "must start with a lowercase letter and contain only a-z, 0-9, _ or -"
	case "tenantid":
		return "must be 1-128 letters, digits, '.', '_' or '-'"
	case "nocolon":
		return "must not contain ':'"
	default:
		return "is invalid"
	}
}
