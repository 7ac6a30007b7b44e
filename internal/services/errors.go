// Package services defines the business logic for habits.
// This file centralizes service-level error values so that handlers can map
// them to HTTP status codes without importing the repository layer.
package services

import "github.com/tbourn/go-habit-backend/internal/repo"

// Habit-related errors. They alias the store sentinels, so errors.Is works
// against either name.
var (
	// ErrInvalidInput is returned for a blank name on create/update or a
	// missing search query.
	ErrInvalidInput = repo.ErrInvalidInput

	// ErrHabitNotFound indicates that no habit exists with the requested id.
	ErrHabitNotFound = repo.ErrNotFound

	// ErrDuplicateName is returned when a create or rename would collide with
	// an existing habit name.
	ErrDuplicateName = repo.ErrDuplicateName
)
