package webserver

import (
	"github.com/go-playground/validator/v10"
)

// WebValidator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound payloads.
type WebValidator struct {
	validate *validator.Validate
}

func NewWebValidator() *WebValidator {
	return &WebValidator{validate: validator.New()}
}

func (v *WebValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
