package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("votetype", func(fl validator.FieldLevel) bool {
		return VoteType(fl.Field().String()).Valid()
	})
}

// Validate checks the request shape. It does not require a user message.
func (r *ChatRequest) Validate() error { return validateStruct(r) }

// Validate checks the vote request fields.
func (r *VoteRequest) Validate() error { return validateStruct(r) }

// Validate checks the citation request fields.
func (r *CitationRequest) Validate() error { return validateStruct(r) }

// Validate checks the credential fields.
func (c *Credentials) Validate() error { return validateStruct(c) }

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(fields, ", "))
}
