// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish
// between different failure scenarios without inspecting SQL errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of existing
// state, such as a hall name already used in the same cinema. Handlers
// translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
