// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP status codes without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a row lookup by id or unique column
// matches nothing. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert collides with the
// unique email index. The upstream API contract reports this as a
// 400 rather than a 409.
var ErrEmailExists = errors.New("email already exists")
