package auth

import "errors"

var (
	// ErrTenantMismatch indicates a resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("resource not found")
)
