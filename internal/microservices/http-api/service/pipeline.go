package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/middleware/auth"
)

const maxCommentLength = 1000

// userInput is what the user write pipeline validates. Partial updates validate only the
// fields they touch (validator.StructPartial).
type userInput struct {
	Name     string `json:"name" validate:"required,min=20,max=60"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	Address  string `json:"address" validate:"required,min=1,max=400"`
	Role     string `json:"role" validate:"required,role"`
}

type storeInput struct {
	Name    string `json:"name" validate:"required,min=20,max=60"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Address string `json:"address" validate:"required,min=1,max=400"`
}

type ratingInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// pipeline is the explicit sanitize -> validate -> hash sequence every user and store
// write goes through before it reaches a repository.
type pipeline struct {
	validate   *validator.Validate
	bcryptCost int
}

func newPipeline(bcryptCost int) *pipeline {
	return &pipeline{validate: dto.NewValidator(), bcryptCost: bcryptCost}
}

// cleanText trims, collapses inner whitespace runs and applies NFC so that length limits
// count what the user sees.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func cleanEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (in *userInput) sanitize() {
	in.Name = cleanText(in.Name)
	in.Email = cleanEmail(in.Email)
	in.Address = cleanText(in.Address)
	in.Role = strings.TrimSpace(in.Role)
}

func (in *storeInput) sanitize() {
	in.Name = cleanText(in.Name)
	in.Email = cleanEmail(in.Email)
	in.Address = cleanText(in.Address)
}

// check validates v (optionally only the named fields) and converts failures to a
// VALIDATION_ERROR with one entry per field.
func (p *pipeline) check(v any, fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = p.validate.StructPartial(v, fields...)
	} else {
		err = p.validate.Struct(v)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return InternalError(err)
	}
	return FromValidationErrors(verrs)
}

// FromValidationErrors converts validator failures to a VALIDATION_ERROR with one entry
// per field. Handlers use it for request binding errors.
func FromValidationErrors(verrs validator.ValidationErrors) *AppError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return ValidationError("validation failed", out...)
}

func (p *pipeline) hash(password string) (string, error) {
	h, err := auth.HashPassword(password, p.bcryptCost)
	if err != nil {
		return "", InternalError(err)
	}
	return h, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "must be a valid email address"
	case "password":
		return auth.ErrWeakPassword.Error()
	case "role":
		return "role must be one of admin, user, store_owner"
	case "min", "max":
		switch fe.Field() {
		case "name":
			return "name must be between 20 and 60 characters"
		case "address":
			return "address must be between 1 and 400 characters"
		case "rating":
			return "rating must be an integer between 1 and 5"
		case "comment":
			return fmt.Sprintf("comment must be at most %d characters", maxCommentLength)
		}
		return fmt.Sprintf("%s must be %s %s", fe.Field(), map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
