package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("authentication credentials were not provided or are invalid")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenExists        = errors.New("token already exists for user")
	ErrSaleNotFound       = errors.New("sale not found")
)

// ValidationError aggregates every field problem found in a payload.
// Keys follow the JSON shape of the input, e.g. "payment_dates[1].paymentDate".
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records msg under field. Duplicate messages for the same field are dropped.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	for _, m := range e.Fields[field] {
		if m == msg {
			return
		}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field, or any enclosing path of field, already carries an error.
func (e *ValidationError) Has(field string) bool {
	for key := field; key != ""; key = parentPath(key) {
		if _, ok := e.Fields[key]; ok {
			return true
		}
	}
	return false
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error only when it holds at least one field.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError is a shortcut for a validation error on a single field.
func FieldError(field, msg string) *ValidationError {
	e := NewValidationError()
	e.Add(field, msg)
	return e
}

// parentPath strips the last segment of a dotted/indexed path:
// "a[0].b" -> "a[0]" -> "a" -> "".
func parentPath(key string) string {
	if i := strings.LastIndexAny(key, ".["); i > 0 {
		return key[:i]
	}
	return ""
}
