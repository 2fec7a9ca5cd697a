// Package repository contains the MySQL data-access layer.  Sentinel
// errors defined here let handlers distinguish failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registering a user with an email
// that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrHallConflict is returned when scheduling a session that overlaps
// another session in the same hall.
var ErrHallConflict = errors.New("hall already scheduled in that time range")

// ErrNotFound is returned by catalog repositories for missing rows.
// The booking store maps missing rows to the booking package's own
// sentinels instead.
var ErrNotFound = errors.New("not found")
