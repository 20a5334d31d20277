package apperr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validator10() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError is a single validation failure on one field.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// ValidationErrors collects every failing field rather than stopping at the
// first, per spec §7 ("validation errors collect and report all problems").
type ValidationErrors struct {
	Operation string
	Errors    []FieldError
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		parts[i] = fe.Message
	}
	return fmt.Sprintf("%s: invalid_input: %s", v.Operation, strings.Join(parts, "; "))
}

// ToAppError converts the collected validation errors into an *Error with
// Kind == InvalidInput, carrying the full field list in Fields["violations"].
func (v *ValidationErrors) ToAppError() *Error {
	e := New(InvalidInput, v.Operation, v.Error())
	return e.WithField("violations", v.Errors)
}

// ValidateStruct runs struct-tag validation (`validate:"..."` tags) over dto
// and returns nil if it passes, or a *ValidationErrors collecting every
// failing field if it doesn't.
func ValidateStruct(operation string, dto any) *ValidationErrors {
	err := validator10().Struct(dto)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationErrors{Operation: operation, Errors: []FieldError{{Message: err.Error()}}}
	}
	out := &ValidationErrors{Operation: operation}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()),
		})
	}
	return out
}
