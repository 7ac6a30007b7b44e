// Package domain defines the core models of the habit tracker: the Habit
// record owned by the in-memory store, the write payload used to create and
// update it, and the GORM-mapped bookkeeping rows (see idempotency.go).
package domain

import "time"

// Habit is a named, trackable routine with completion state.
//
// Fields:
//   - ID: store-assigned identifier; strictly increasing and never reused.
//   - Name: required, unique across all habits (exact, case-sensitive).
//   - Description: free text, optional.
//   - Completed: completion flag; false on creation unless provided.
//   - LastCompleted: calendar date of the last completion, when known.
//   - CreatedAt: set once by the store at creation.
type Habit struct {
	ID            int64     `json:"id"            example:"1"`
	Name          string    `json:"name"          example:"Read"`
	Description   string    `json:"description"   example:"Read 10 pages"`
	Completed     bool      `json:"completed"     example:"false"`
	LastCompleted *Date     `json:"lastCompleted" swaggertype:"string" format:"date" example:"2025-01-31"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HabitInput carries the client-writable fields of a Habit. Pointer fields
// distinguish "absent" from the zero value.
type HabitInput struct {
	Name          string `json:"name"          example:"Read"`
	Description   string `json:"description"   example:"Read 20 pages"`
	Completed     *bool  `json:"completed"     example:"false"`
	LastCompleted *Date  `json:"lastCompleted" swaggertype:"string" format:"date" example:"2025-01-31"`
}

// Clone returns a deep copy of h.
func (h Habit) Clone() Habit {
	if h.LastCompleted != nil {
		d := *h.LastCompleted
		h.LastCompleted = &d
	}
	return h
}
