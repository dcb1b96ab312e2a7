// Package validation checks request input before it reaches the services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	accountIDRegex    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	referralCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Validator struct {
	Errors []ValidationError
}

func New() *Validator {
	return &Validator{
		Errors: make([]ValidationError, 0),
	}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns nil when valid, otherwise an Errors value.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return Errors(v.Errors)
}

// Errors is the error form of a failed Validator.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
