package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-habit-backend/internal/config"
	"github.com/tbourn/go-habit-backend/internal/domain"
	"github.com/tbourn/go-habit-backend/internal/http/handlers"
	"github.com/tbourn/go-habit-backend/internal/http/middleware"
	"github.com/tbourn/go-habit-backend/internal/repo"
	"github.com/tbourn/go-habit-backend/internal/services"
)

// --- test DB helper (pure-Go sqlite, no CGO); one shared-cache DB per test ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api",
		RateRPS:        1000,
		RateBurst:      1000,
		CORS:           config.CORSConfig{AllowedOrigins: nil},
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		IdempotencyTTL: time.Hour,
	}
}

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := services.NewHabitService(repo.NewHabitStore())
	RegisterRoutes(r, svc, newTestDB(t), cfg)
	return r
}

func do(r *gin.Engine, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeHabit(t *testing.T, w *httptest.ResponseRecorder) domain.Habit {
	t.Helper()
	var h domain.Habit
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode habit: %v (body=%s)", err, w.Body.String())
	}
	return h
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []domain.Habit {
	t.Helper()
	var hs []domain.Habit
	if err := json.Unmarshal(w.Body.Bytes(), &hs); err != nil {
		t.Fatalf("decode list: %v (body=%s)", err, w.Body.String())
	}
	return hs
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var e handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error: %v (body=%s)", err, w.Body.String())
	}
	return e
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newTestRouter(t, testConfig())

	// /health works
	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = do(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = do(r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != handlers.ErrCodeNotFound {
		t.Fatalf("404 code = %q", e.Code)
	}

	// NoMethod → 405 (POST /health)
	w = do(r, http.MethodPost, "/health", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newTestRouter(t, cfg)

	w := do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, handlers.HeaderIdempotencyReplayed) {
		t.Fatalf("expose headers should include %s, got %q", handlers.HeaderIdempotencyReplayed, got)
	}
}

func TestRegisterRoutes_HabitCRUD(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/habits", "", nil)
	if w.Code != http.StatusOK || len(decodeList(t, w)) != 0 {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/habits", `{"name":"Read","description":"Read 10 pages"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	read := decodeHabit(t, w)
	if read.ID != 1 || read.Name != "Read" || read.Completed || read.CreatedAt.IsZero() {
		t.Fatalf("unexpected created habit: %+v", read)
	}

	// duplicate name → 409
	w = do(r, http.MethodPost, "/api/habits", `{"name":"Read"}`, nil)
	if w.Code != http.StatusConflict || decodeErr(t, w).Code != handlers.ErrCodeConflict {
		t.Fatalf("duplicate = %d %s", w.Code, w.Body.String())
	}

	// blank name → 400
	w = do(r, http.MethodPost, "/api/habits", `{"name":"   "}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank name = %d", w.Code)
	}

	// malformed JSON → 400
	w = do(r, http.MethodPost, "/api/habits", `{"name":`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad json = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/habits/1", "", nil)
	if w.Code != http.StatusOK || decodeHabit(t, w).Description != "Read 10 pages" {
		t.Fatalf("get = %d %s", w.Code, w.Body.String())
	}

	// non-integer id → 400
	w = do(r, http.MethodGet, "/api/habits/abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", w.Code)
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format(domain.DateLayout)
	w = do(r, http.MethodPut, "/api/habits/1", `{"name":"Read","description":"Read 20 pages","lastCompleted":"`+yesterday+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d %s", w.Code, w.Body.String())
	}
	up := decodeHabit(t, w)
	if !up.Completed || up.Description != "Read 20 pages" || up.LastCompleted == nil || up.LastCompleted.String() != yesterday {
		t.Fatalf("update result: %+v", up)
	}

	w = do(r, http.MethodPut, "/api/habits/99", `{"name":"X"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing = %d", w.Code)
	}

	w = do(r, http.MethodDelete, "/api/habits/1", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = do(r, http.MethodDelete, "/api/habits/1", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d", w.Code)
	}
	w = do(r, http.MethodGet, "/api/habits/1", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get deleted = %d", w.Code)
	}
}

func TestRegisterRoutes_Search(t *testing.T) {
	r := newTestRouter(t, testConfig())
	for _, n := range []string{"Apple", "Banana", "Application"} {
		if w := do(r, http.MethodPost, "/api/habits", `{"name":"`+n+`"}`, nil); w.Code != http.StatusCreated {
			t.Fatalf("seed %s = %d", n, w.Code)
		}
	}

	w := do(r, http.MethodGet, "/api/habits/search?name=app", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	got := decodeList(t, w)
	if len(got) != 2 || got[0].Name != "Apple" || got[1].Name != "Application" {
		t.Fatalf("search result: %+v", got)
	}

	w = do(r, http.MethodGet, "/api/habits/search?name=", "", nil)
	if w.Code != http.StatusOK || len(decodeList(t, w)) != 3 {
		t.Fatalf("empty query should match all: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/habits/search", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing name = %d", w.Code)
	}
}

func TestRegisterRoutes_Aliases(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodPost, "/api/habit", `{"name":"Walk"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/habit = %d", w.Code)
	}
	w = do(r, http.MethodPost, "/api/Habits", `{"name":"Run"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/Habits = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/Habits", "", nil)
	if w.Code != http.StatusOK || len(decodeList(t, w)) != 2 {
		t.Fatalf("GET /api/Habits = %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/api/Habits/2", "", nil)
	if w.Code != http.StatusOK || decodeHabit(t, w).Name != "Run" {
		t.Fatalf("GET /api/Habits/2 = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_IdempotentCreate(t *testing.T) {
	r := newTestRouter(t, testConfig())
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "key-1"}

	w := do(r, http.MethodPost, "/api/habits", `{"name":"Read"}`, hdr)
	if w.Code != http.StatusCreated || w.Header().Get(handlers.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first create = %d replayed=%q", w.Code, w.Header().Get(handlers.HeaderIdempotencyReplayed))
	}
	first := decodeHabit(t, w)

	// Retry with the same key replays instead of tripping the duplicate check.
	w = do(r, http.MethodPost, "/api/habits", `{"name":"Read"}`, hdr)
	if w.Code != http.StatusCreated || w.Header().Get(handlers.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay = %d replayed=%q body=%s", w.Code, w.Header().Get(handlers.HeaderIdempotencyReplayed), w.Body.String())
	}
	if decodeHabit(t, w).ID != first.ID {
		t.Fatalf("replay returned a different habit")
	}

	// Same key on another route is a separate scope.
	w = do(r, http.MethodPost, "/api/habit", `{"name":"Read"}`, hdr)
	if w.Code != http.StatusConflict {
		t.Fatalf("other route = %d", w.Code)
	}

	// Once the habit is gone the key no longer replays.
	if w := do(r, http.MethodDelete, "/api/habits/1", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = do(r, http.MethodPost, "/api/habits", `{"name":"Read"}`, hdr)
	if w.Code != http.StatusCreated || w.Header().Get(handlers.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("after delete = %d replayed=%q", w.Code, w.Header().Get(handlers.HeaderIdempotencyReplayed))
	}
	second := decodeHabit(t, w)
	if second.ID == first.ID {
		t.Fatalf("ids must not be reused")
	}

	// The key now points at the new habit.
	w = do(r, http.MethodPost, "/api/habits", `{"name":"Read"}`, hdr)
	if w.Header().Get(handlers.HeaderIdempotencyReplayed) != "true" || decodeHabit(t, w).ID != second.ID {
		t.Fatalf("replay after re-create = %d %s", w.Code, w.Body.String())
	}

	// Invalid keys are rejected before the handler runs.
	w = do(r, http.MethodPost, "/api/habits", `{"name":"Other"}`, map[string]string{middleware.HeaderIdempotencyKey: "bad key!"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad key = %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerAndGzip(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	cfg.GzipEnabled = true
	r := newTestRouter(t, cfg)

	w := do(r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/habits") {
		t.Fatalf("swagger doc = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/habits", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := do(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

func TestLedgerShim(t *testing.T) {
	db := newTestDB(t)
	l := ledgerShim{db: db, ttl: time.Hour}
	ctx := context.Background()

	if _, _, err := l.Find(ctx, "POST /api/habits", "k", time.Now().UTC()); err == nil {
		t.Fatalf("expected miss before save")
	}
	if live, err := l.Live(ctx, "POST /api/habits", "k", time.Now().UTC()); live || err != nil {
		t.Fatalf("Live before save = %v %v", live, err)
	}
	if err := l.Save(ctx, "POST /api/habits", "k", 7, http.StatusCreated); err != nil {
		t.Fatalf("Save: %v", err)
	}
	id, status, err := l.Find(ctx, "POST /api/habits", "k", time.Now().UTC())
	if err != nil || id != 7 || status != http.StatusCreated {
		t.Fatalf("Find = %d %d %v", id, status, err)
	}
	if live, err := l.Live(ctx, "POST /api/habits", "k", time.Now().UTC()); !live || err != nil {
		t.Fatalf("Live after save = %v %v", live, err)
	}
	if live, _ := l.Live(ctx, "POST /api/habits", "k", time.Now().Add(2*time.Hour)); live {
		t.Fatalf("record should have expired")
	}
	if err := l.Save(ctx, "POST /api/habits", "k", 8, http.StatusCreated); err == nil {
		t.Fatalf("second save for the same key should fail")
	}
	if err := l.Forget(ctx, "POST /api/habits", "k"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, _, err := l.Find(ctx, "POST /api/habits", "k", time.Now().UTC()); err == nil {
		t.Fatalf("expected miss after forget")
	}
}

// Smoke test that a request traverses idempotency + ratelimit + otel + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.URL.Scheme = "https"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}
