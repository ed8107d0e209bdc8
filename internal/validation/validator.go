package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator with the notblank tag registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	_ = v.RegisterValidation("notblank", notBlank)
	return v
}

// notBlank rejects strings that are empty after trimming whitespace.
func notBlank(fl validatorv10.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
