package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the stores and engines. Handlers translate
// these to responses; anything else is an internal storage failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrInvalidRole       = errors.New("user is not a student")
	ErrNoStudentsLinked  = errors.New("no students linked to teacher")
	ErrInvalidPin        = errors.New("invalid or expired pin")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrValidation        = errors.New("validation failed")
)

// StudentsNotFoundError reports every username in an assignment request that
// did not resolve to an existing student. The whole request is rejected; no
// partial assignment is committed.
type StudentsNotFoundError struct {
	Missing []string
}

func (e *StudentsNotFoundError) Error() string {
	return fmt.Sprintf("student IDs not found: %s", strings.Join(e.Missing, ", "))
}
