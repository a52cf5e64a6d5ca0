package auth

import (
	"fmt"
	"nextext/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ValidateRegister checks account rules before any expensive hashing happens.
// Password failures wrap errors.ErrInvalidPassword, other fields errors.ErrInvalidUser.
func ValidateRegister(req RegisterRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", errors.ErrInvalidUser, err)
	}
	for _, fe := range validationErrors {
		if fe.Field() == "Password" {
			return fmt.Errorf("%w: %s must satisfy %s%s", errors.ErrInvalidPassword, fe.Field(), fe.Tag(), param(fe.Param()))
		}
	}
	fe := validationErrors[0]
	return fmt.Errorf("%w: %s must satisfy %s%s", errors.ErrInvalidUser, fe.Field(), fe.Tag(), param(fe.Param()))
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
