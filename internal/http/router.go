// Package httpapi mounts the habit API on a Gin engine: the middleware chain,
// the habit routes and their legacy aliases, health, metrics and Swagger.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-habit-backend/docs"
	"github.com/tbourn/go-habit-backend/internal/config"
	"github.com/tbourn/go-habit-backend/internal/http/handlers"
	"github.com/tbourn/go-habit-backend/internal/http/middleware"
	"github.com/tbourn/go-habit-backend/internal/repo"
)

const maxBodyBytes = 1 << 20

// ledgerShim exposes the SQLite idempotency ledger to the middleware and
// handlers.
type ledgerShim struct {
	db  *gorm.DB
	ttl time.Duration
}

// Live answers middleware.IdempotencyLookup.
func (l ledgerShim) Live(ctx context.Context, route, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, l.db, route, key, now)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repo.ErrIdempotencyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (l ledgerShim) Find(ctx context.Context, route, key string, now time.Time) (int64, int, error) {
	rec, err := repo.GetIdempotency(ctx, l.db, route, key, now)
	if err != nil {
		return 0, 0, err
	}
	return rec.HabitID, rec.Status, nil
}

func (l ledgerShim) Save(ctx context.Context, route, key string, habitID int64, status int) error {
	_, err := repo.CreateIdempotency(ctx, l.db, route, key, habitID, status, l.ttl)
	return err
}

func (l ledgerShim) Forget(ctx context.Context, route, key string) error {
	return repo.DeleteIdempotency(ctx, l.db, route, key)
}

// RegisterRoutes installs the middleware chain and every endpoint on r.
// svc serves the habit operations; db holds the idempotency ledger and may be
// nil, which disables replay.
//
// Order: tracing, request id, access log, recovery, body cap, metrics,
// idempotency, rate limit, CORS, security headers, gzip. Idempotency runs
// before the limiter so replays are not throttled.
func RegisterRoutes(r *gin.Engine, svc handlers.HabitService, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	var ledger handlers.IdempotencyLedger
	var lookup middleware.IdempotencyLookup
	if db != nil {
		shim := ledgerShim{db: db, ttl: cfg.IdempotencyTTL}
		ledger, lookup = shim, shim.Live
	}

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup),
		middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Handler(),
	)
	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc, ledger)
	api := groupWithPrefix(r, cfg.APIBasePath)
	mountHabits(api.Group("/habits"), h)
	// Legacy spellings kept for older clients.
	mountHabits(api.Group("/Habits"), h)
	api.POST("/habit", h.CreateHabit)
}

// corsHandlers allows any origin when origins is empty and otherwise echoes
// only listed origins. The leading handler sets Allow-Origin even on requests
// without an Origin header, which the cors package skips.
func corsHandlers(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", handlers.HeaderIdempotencyReplayed},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Header("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if o := c.GetHeader("Origin"); allowed[o] {
				c.Header("Access-Control-Allow-Origin", o)
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Next()
		},
		cors.New(base),
	}
}

// mountHabits registers the habit collection routes on g.
func mountHabits(g *gin.RouterGroup, h *handlers.Handlers) {
	g.GET("", h.ListHabits)
	g.POST("", h.CreateHabit)
	g.GET("/search", h.SearchHabits)
	g.GET("/:id", h.GetHabit)
	g.PUT("/:id", h.UpdateHabit)
	g.DELETE("/:id", h.DeleteHabit)
}

// limitBody caps request bodies at maxBytes; reading past it fails and the
// JSON binding answers 400.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" and "" as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
