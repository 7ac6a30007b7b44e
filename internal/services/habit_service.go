// Package services – HabitService
//
// This file implements HabitService, the application layer between the HTTP
// handlers and the habit store. Validation and every model invariant live in
// the store; the service adds tracing and domain metrics around each call and
// keeps the habits_stored gauge current after mutations.
//
// Observability: every public method opens a span on the
// "services/HabitService" tracer. Failures are recorded on the span and
// counted in habit_operations_total{op,outcome}.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-habit-backend/internal/domain"
)

// HabitRepo defines the store contract required by HabitService.
// *repo.HabitStore satisfies it.
type HabitRepo interface {
	List(ctx context.Context) []domain.Habit
	Get(ctx context.Context, id int64) (*domain.Habit, error)
	Create(ctx context.Context, in domain.HabitInput) (*domain.Habit, error)
	Update(ctx context.Context, id int64, in domain.HabitInput) (*domain.Habit, error)
	Delete(ctx context.Context, id int64) error
	SearchByName(ctx context.Context, query *string) ([]domain.Habit, error)
	Count(ctx context.Context) int
}

// HabitService exposes the habit operations used by the HTTP layer.
type HabitService struct {
	// Repo is the habit store used by this service.
	Repo HabitRepo
}

// NewHabitService constructs a HabitService over r and primes the
// habits_stored gauge.
func NewHabitService(r HabitRepo) *HabitService {
	s := &HabitService{Repo: r}
	habitsStored.Set(float64(r.Count(context.Background())))
	return s
}

// List returns all habits ordered by id.
func (s *HabitService) List(ctx context.Context) ([]domain.Habit, error) {
	ctx, span := otel.Tracer("services/HabitService").Start(ctx, "List")
	defer span.End()

	items := s.Repo.List(ctx)
	span.SetAttributes(attribute.Int("habit.count", len(items)))
	s.observe(span, "list", nil)
	return items, nil
}

// Get returns a single habit or ErrHabitNotFound.
func (s *HabitService) Get(ctx context.Context, id int64) (*domain.Habit, error) {
	ctx, span := otel.Tracer("services/HabitService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("habit.id", id)),
	)
	defer span.End()

	h, err := s.Repo.Get(ctx, id)
	s.observe(span, "get", err)
	return h, err
}

// Create stores a new habit.
func (s *HabitService) Create(ctx context.Context, in domain.HabitInput) (*domain.Habit, error) {
	ctx, span := otel.Tracer("services/HabitService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("habit.name", in.Name)),
	)
	defer span.End()

	h, err := s.Repo.Create(ctx, in)
	if err == nil {
		span.SetAttributes(attribute.Int64("habit.id", h.ID))
		s.refreshGauge(ctx)
	}
	s.observe(span, "create", err)
	return h, err
}

// Update replaces the mutable fields of habit id.
func (s *HabitService) Update(ctx context.Context, id int64, in domain.HabitInput) (*domain.Habit, error) {
	ctx, span := otel.Tracer("services/HabitService").Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int64("habit.id", id),
			attribute.String("habit.name", in.Name),
		),
	)
	defer span.End()

	h, err := s.Repo.Update(ctx, id, in)
	s.observe(span, "update", err)
	return h, err
}

// Delete removes habit id.
func (s *HabitService) Delete(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("services/HabitService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("habit.id", id)),
	)
	defer span.End()

	err := s.Repo.Delete(ctx, id)
	if err == nil {
		s.refreshGauge(ctx)
	}
	s.observe(span, "delete", err)
	return err
}

// SearchByName returns habits whose name contains *query, ignoring case.
// A nil query yields ErrInvalidInput.
func (s *HabitService) SearchByName(ctx context.Context, query *string) ([]domain.Habit, error) {
	attrs := []attribute.KeyValue{attribute.Bool("habit.query.present", query != nil)}
	if query != nil {
		attrs = append(attrs, attribute.String("habit.query", *query))
	}
	ctx, span := otel.Tracer("services/HabitService").Start(ctx, "SearchByName",
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	items, err := s.Repo.SearchByName(ctx, query)
	if err == nil {
		span.SetAttributes(attribute.Int("habit.count", len(items)))
	}
	s.observe(span, "search", err)
	return items, err
}

func (s *HabitService) refreshGauge(ctx context.Context) {
	habitsStored.Set(float64(s.Repo.Count(ctx)))
}

func (s *HabitService) observe(span trace.Span, op string, err error) {
	habitOps.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
