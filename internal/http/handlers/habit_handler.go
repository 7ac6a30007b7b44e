// Habit HTTP handlers.
//
// This file exposes REST endpoints for habit resources:
//   - GET    /habits               (list)
//   - GET    /habits/search?name=  (case-insensitive substring search)
//   - GET    /habits/{id}          (fetch)
//   - POST   /habits               (create, Idempotency-Key aware)
//   - PUT    /habits/{id}          (replace mutable fields)
//   - DELETE /habits/{id}          (remove)
//
// Handlers are transport-thin: they decode input, call the habit service and
// translate results and service errors into HTTP responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header on create and a previous
// successful create with the same key is still recorded, the handler returns
// the habit created back then, with the original status and
// `Idempotency-Replayed: true`. If that habit has since been deleted the
// stale record is dropped and the request is processed as new.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-habit-backend/internal/domain"
	"github.com/tbourn/go-habit-backend/internal/http/middleware"
	"github.com/tbourn/go-habit-backend/internal/utils"
)

// HeaderIdempotencyReplayed marks responses served from the idempotency ledger.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// Service contracts (context-aware)
//

// HabitService defines the habit operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use.
type HabitService interface {
	List(ctx context.Context) ([]domain.Habit, error)
	Get(ctx context.Context, id int64) (*domain.Habit, error)
	Create(ctx context.Context, in domain.HabitInput) (*domain.Habit, error)
	Update(ctx context.Context, id int64, in domain.HabitInput) (*domain.Habit, error)
	Delete(ctx context.Context, id int64) error
	// SearchByName treats a nil query as invalid input.
	SearchByName(ctx context.Context, query *string) ([]domain.Habit, error)
}

// IdempotencyLedger records which habit an Idempotency-Key produced.
type IdempotencyLedger interface {
	// Find returns the habit id and status recorded for (route, key), or an
	// error when no live record exists.
	Find(ctx context.Context, route, key string, now time.Time) (habitID int64, status int, err error)
	// Save records the outcome of a successful create.
	Save(ctx context.Context, route, key string, habitID int64, status int) error
	// Forget drops the record for (route, key).
	Forget(ctx context.Context, route, key string) error
}

//
// Handler wiring
//

// Handlers groups the habit endpoints.
type Handlers struct {
	svc    HabitService
	ledger IdempotencyLedger
}

// New constructs Handlers bound to svc. ledger may be nil, which disables
// idempotent replay.
func New(svc HabitService, ledger IdempotencyLedger) *Handlers {
	return &Handlers{svc: svc, ledger: ledger}
}

// pathID parses the :id path parameter, writing a 400 on failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// bindInput decodes the JSON body into a HabitInput, writing a 400 on failure.
func bindInput(c *gin.Context) (domain.HabitInput, bool) {
	var in domain.HabitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return in, false
	}
	return in, true
}

//
// Handlers
//

// ListHabits godoc
// @ID          listHabits
// @Summary     List habits
// @Description Returns every habit ordered by ascending id.
// @Tags        Habits
// @Produce     json
// @Success     200  {array}   domain.Habit
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /habits [get]
func (h *Handlers) ListHabits(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetHabit godoc
// @ID          getHabit
// @Summary     Get a habit
// @Tags        Habits
// @Produce     json
// @Param       id   path      int  true  "Habit ID"  example(1)
// @Success     200  {object}  domain.Habit
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Habit not found"
// @Router      /habits/{id} [get]
func (h *Handlers) GetHabit(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	hb, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, hb)
}

// CreateHabit godoc
// @ID          createHabit
// @Summary     Create a habit
// @Description Creates a habit. Name is required and must be unique. lastCompleted is ignored on create.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Habits
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string             false  "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    domain.HabitInput  true   "Habit payload"
// @Success     201  {object}  domain.Habit
// @Header      201  {string}  Idempotency-Replayed  "true when served from the idempotency ledger"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already exists"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /habits [post]
func (h *Handlers) CreateHabit(c *gin.Context) {
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	in, okIn := bindInput(c)
	if !okIn {
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	route := middleware.IdempotencyRoute(c)
	if idemKey != "" && h.ledger != nil {
		if habitID, status, err := h.ledger.Find(ctx, route, idemKey, time.Now().UTC()); err == nil {
			prev, err := h.svc.Get(ctx, habitID)
			if err == nil {
				c.Header(HeaderIdempotencyReplayed, "true")
				ok(c, status, prev)
				return
			}
			if err := h.ledger.Forget(ctx, route, idemKey); err != nil {
				lg.Warn().Err(err).Str("idempotency_key", idemKey).Msg("stale idempotency record not dropped")
			}
		}
	}

	hb, err := h.svc.Create(ctx, in)
	if err != nil {
		failErr(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.ledger != nil {
		if err := h.ledger.Save(ctx, route, idemKey, hb.ID, http.StatusCreated); err != nil {
			lg.Warn().Err(err).Str("idempotency_key", idemKey).Msg("idempotency record not saved")
		}
	}

	ok(c, http.StatusCreated, hb)
}

// UpdateHabit godoc
// @ID          updateHabit
// @Summary     Update a habit
// @Description Replaces name, description, completed and lastCompleted. A lastCompleted date on or before today marks the habit completed.
// @Tags        Habits
// @Accept      json
// @Produce     json
// @Param       id    path      int                true  "Habit ID"  example(1)
// @Param       body  body      domain.HabitInput  true  "Habit payload"
// @Success     200   {object}  domain.Habit
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404   {object}  handlers.ErrorResponse  "Habit not found"
// @Failure     409   {object}  handlers.ErrorResponse  "Name already exists"
// @Router      /habits/{id} [put]
func (h *Handlers) UpdateHabit(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	in, okIn := bindInput(c)
	if !okIn {
		return
	}
	hb, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, hb)
}

// DeleteHabit godoc
// @ID          deleteHabit
// @Summary     Delete a habit
// @Tags        Habits
// @Param       id   path    int     true  "Habit ID"  example(1)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Habit not found"
// @Router      /habits/{id} [delete]
func (h *Handlers) DeleteHabit(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// SearchHabits godoc
// @ID          searchHabits
// @Summary     Search habits by name
// @Description Case-insensitive substring match on name. An empty value matches every habit; omitting the parameter is a 400.
// @Tags        Habits
// @Produce     json
// @Param       name  query     string  true  "Substring to look for"  example(app)
// @Success     200   {array}   domain.Habit
// @Failure     400   {object}  handlers.ErrorResponse  "Missing name"
// @Router      /habits/search [get]
func (h *Handlers) SearchHabits(c *gin.Context) {
	var query *string
	if q, present := c.GetQuery("name"); present {
		query = &q
	}
	items, err := h.svc.SearchByName(c.Request.Context(), query)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}
