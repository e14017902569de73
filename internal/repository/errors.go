// Package repository persists the service's aggregates over
// database/sql. Error values shared by more than one repository live
// here; aggregate-specific sentinels sit next to their repo.
package repository

import "errors"

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as creating a duplicate table position.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
