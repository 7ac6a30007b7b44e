// Package repo implements the data layer of the habit tracker. This file
// contains HabitStore, the authoritative in-memory collection of habits.
//
// HabitStore owns every invariant of the habit model:
//   - names are non-blank and unique (exact, case-sensitive comparison);
//   - ids come from a single atomic sequence, are strictly increasing and are
//     never reused, even after deletion;
//   - CreatedAt is set once and never touched by updates.
//
// The store is safe for concurrent use. Reads take a shared lock; writes hold
// the exclusive lock across validation and mutation, so the duplicate-name
// check and the insert/update it guards are atomic. On any error the store is
// left unchanged.
//
// Values handed out are deep copies; callers cannot mutate stored habits
// through them.
package repo

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbourn/go-habit-backend/internal/domain"
	"github.com/tbourn/go-habit-backend/internal/search"
)

// Store errors. Exactly one of these (or nil) is returned per operation.
var (
	// ErrInvalidInput is returned when a required field is missing or blank,
	// or when a required search query is absent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when no habit exists with the requested id.
	ErrNotFound = errors.New("habit not found")

	// ErrDuplicateName is returned when a write would give two habits the
	// same name.
	ErrDuplicateName = errors.New("habit name already exists")
)

// StoreOption customizes a HabitStore.
type StoreOption func(*HabitStore)

// WithClock sets the time source used for CreatedAt and for deciding whether
// a lastCompleted date lies in the future. Defaults to time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *HabitStore) {
		if now != nil {
			s.now = now
		}
	}
}

// HabitStore is a concurrency-safe, in-memory repository of habits keyed by id.
type HabitStore struct {
	mu     sync.RWMutex
	habits map[int64]domain.Habit
	// names indexes habits by exact name; it is maintained under mu and only
	// ever consulted together with habits.
	names map[string]int64
	seq   atomic.Int64
	now   func() time.Time
}

// NewHabitStore returns an empty store. The first created habit gets id 1.
func NewHabitStore(opts ...StoreOption) *HabitStore {
	s := &HabitStore{
		habits: make(map[int64]domain.Habit),
		names:  make(map[string]int64),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns every habit ordered by ascending id. It never fails; an empty
// store yields an empty, non-nil slice.
func (s *HabitStore) List(ctx context.Context) []domain.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(domain.Habit) bool { return true })
}

// Get returns the habit with the given id, or ErrNotFound.
func (s *HabitStore) Get(ctx context.Context, id int64) (*domain.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := h.Clone()
	return &out, nil
}

// Create validates in, assigns the next id and the creation timestamp, and
// stores the new habit. Completed defaults to false; LastCompleted is not
// taken from the input.
//
// Errors: ErrInvalidInput for a blank name, ErrDuplicateName when any
// habit already has exactly that name.
func (s *HabitStore) Create(ctx context.Context, in domain.HabitInput) (*domain.Habit, error) {
	if isBlank(in.Name) {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.names[in.Name]; taken {
		return nil, ErrDuplicateName
	}

	h := domain.Habit{
		ID:          s.seq.Add(1),
		Name:        in.Name,
		Description: in.Description,
		Completed:   in.Completed != nil && *in.Completed,
		CreatedAt:   s.now(),
	}
	s.habits[h.ID] = h
	s.names[h.Name] = h.ID

	out := h.Clone()
	return &out, nil
}

// Update replaces the name, description, completion flag and lastCompleted
// date of an existing habit. ID and CreatedAt never change.
//
// The stored completion flag is true when in.Completed is true, or when
// in.LastCompleted is set to a date that is not after today (per the store
// clock); otherwise it is false.
//
// Errors, checked in this order: ErrNotFound, ErrInvalidInput (blank name),
// ErrDuplicateName (another habit already has the name). Renaming a habit to
// its current name is allowed.
func (s *HabitStore) Update(ctx context.Context, id int64, in domain.HabitInput) (*domain.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	if isBlank(in.Name) {
		return nil, ErrInvalidInput
	}
	if owner, taken := s.names[in.Name]; taken && owner != id {
		return nil, ErrDuplicateName
	}

	delete(s.names, h.Name)
	h.Name = in.Name
	h.Description = in.Description
	h.Completed = s.effectiveCompleted(in)
	h.LastCompleted = nil
	if in.LastCompleted != nil {
		d := *in.LastCompleted
		h.LastCompleted = &d
	}
	s.habits[id] = h
	s.names[h.Name] = id

	out := h.Clone()
	return &out, nil
}

// Delete removes the habit with the given id. Deleting an id that is absent,
// including one deleted earlier, returns ErrNotFound.
func (s *HabitStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.habits, id)
	delete(s.names, h.Name)
	return nil
}

// SearchByName returns the habits whose name contains *query, ignoring case,
// ordered by ascending id. A nil query is ErrInvalidInput; an empty query
// matches every habit.
func (s *HabitStore) SearchByName(ctx context.Context, query *string) ([]domain.Habit, error) {
	if query == nil {
		return nil, ErrInvalidInput
	}
	m := search.NewNameMatcher(*query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(h domain.Habit) bool { return m.Match(h.Name) }), nil
}

// Count returns the number of stored habits.
func (s *HabitStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.habits)
}

// collect returns copies of the habits accepted by keep, sorted by id.
// Callers must hold mu.
func (s *HabitStore) collect(keep func(domain.Habit) bool) []domain.Habit {
	out := make([]domain.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		if keep(h) {
			out = append(out, h.Clone())
		}
	}
	slices.SortFunc(out, func(a, b domain.Habit) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// effectiveCompleted applies the completion rule: an explicit true wins,
// otherwise a lastCompleted date on or before today marks the habit done.
func (s *HabitStore) effectiveCompleted(in domain.HabitInput) bool {
	if in.Completed != nil && *in.Completed {
		return true
	}
	if in.LastCompleted != nil {
		today := domain.DateOf(s.now())
		return !in.LastCompleted.After(today)
	}
	return false
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
