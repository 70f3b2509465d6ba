package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/apicontract/errors"
)

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Validator collects field errors in the order they are found. Checks
// return the receiver so they chain:
//
//	v := validation.New().Required("path", p).Custom(ok, "body", "not allowed")
//	return v.Err()
type Validator struct {
	errors []FieldError
}

func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []FieldError { return v.errors }

// Custom records message for field unless ok holds. The other checks are
// built on it.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Required fails on a blank value.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// Pattern fails when a non-empty value does not match pattern. An invalid
// pattern fails every non-empty value.
func (v *Validator) Pattern(field, value, pattern string) *Validator {
	if value == "" {
		return v
	}
	re, err := compiled(pattern)
	return v.Custom(err == nil && re.MatchString(value), field, "does not match required format")
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.Custom(value == "" || slices.Contains(allowed, value), field,
		fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// Merge appends the failures of other with prefix in front of each field.
func (v *Validator) Merge(prefix string, other *Validator) *Validator {
	for _, e := range other.errors {
		v.AddError(prefix+e.Field, e.Message)
	}
	return v
}

// Validate returns the failures as one INVALID_INPUT AppError listing every
// field, or nil. The fields are also under the "fields" detail.
func (v *Validator) Validate() *errors.AppError {
	if len(v.errors) == 0 {
		return nil
	}
	return fieldErrors(v.errors)
}

// Err is Validate with an untyped nil for a clean validator.
func (v *Validator) Err() error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func fieldErrors(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.String()
	}
	return errors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", fields)
}

var patterns sync.Map // string -> *regexp.Regexp

func compiled(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}
