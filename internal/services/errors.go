package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyPlaced  = errors.New("already placed")
	ErrUpstream       = errors.New("upstream fetch failed")
	ErrForbidden      = errors.New("forbidden")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrInactive       = errors.New("account is not confirmed")
)

// ValidationError carries a reason per offending field.
type ValidationError struct {
	Fields map[string]string
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = reason
}

// orNil avoids returning a typed nil inside an error interface.
func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
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
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
