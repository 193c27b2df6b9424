package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"storehub/internal/middleware/auth"
	"storehub/internal/shared"
)

// RegisterValidators adds the custom tags used by request DTOs and the user write pipeline:
//
//	password  8-16 chars with lower, upper and special character
//	role      one of admin, user, store_owner
//
// Field names in errors follow the json tag.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return auth.CheckPasswordPolicy(fl.Field().String()) == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return shared.Role(fl.Field().String()).Valid()
	})
}

// NewValidator returns a validator with the custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidators(v); err != nil {
		// registration only fails on an empty tag name
		panic(err)
	}
	return v
}
