// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
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

	_ "github.com/workscout/go-marketplace-backend/docs"
	"github.com/workscout/go-marketplace-backend/internal/auth"
	"github.com/workscout/go-marketplace-backend/internal/config"
	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/http/handlers"
	"github.com/workscout/go-marketplace-backend/internal/http/middleware"
	"github.com/workscout/go-marketplace-backend/internal/media"
	"github.com/workscout/go-marketplace-backend/internal/notify"
	"github.com/workscout/go-marketplace-backend/internal/repo"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health/metrics/media endpoints, and
// then mounts the versioned marketplace API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. CORS and security headers
//
// Authentication, idempotency validation and rate limiting run inside the
// API group: the idempotency and rate-limit keys need the resolved account,
// and the idempotency replay flag must be set before the limiter runs.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, notifier notify.Notifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging; never log raw credentials
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			middleware.HeaderUserID,
			middleware.HeaderInitData,
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit sized for a full photo batch, plus gzip
	r.Use(limitBody(cfg.MaxPhotoBytes*int64(cfg.MaxOrderPhotos) + 1<<20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{
		"Origin", "Content-Type", "Accept",
		middleware.HeaderUserID, middleware.HeaderInitData, middleware.HeaderIdempotencyKey,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Uploaded media, served by reference
	if cfg.Media.Dir != "" {
		r.Static("/media", cfg.Media.Dir)
	}

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/notifier
	store := media.NewStore(cfg.Media)

	userSvc := services.NewUserService(db)
	userSvc.Media = store
	if t, ok := notifier.(*notify.Telegram); ok {
		userSvc.Avatars = t
	}

	orderSvc := services.NewOrderService(db, notifier, store)
	orderSvc.FreshDays = cfg.FreshDays
	orderSvc.MaxPhotos = cfg.MaxOrderPhotos

	respSvc := services.NewResponseService(db, notifier)
	reviewSvc := services.NewReviewService(db)
	supportSvc := services.NewSupportService(db)
	adminSvc := services.NewAdminService(db)

	resolver := &auth.Resolver{
		DB:             db,
		Mode:           cfg.AuthMode,
		BotToken:       cfg.Telegram.BotToken,
		InitDataMaxAge: cfg.InitDataMaxAge,
	}

	h := handlers.New(resolver, userSvc, orderSvc, respSvc, reviewSvc, supportSvc, adminSvc, cfg.MaxPhotoBytes)

	// Idempotency: replay lookup against stored records plus best-effort
	// persistence of completed first attempts.
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID int64, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
		func(ctx context.Context, userID int64, scope, key string, status int) {
			_, _ = repo.CreateIdempotency(ctx, db, userID, scope, key, 0, status, cfg.IdempotencyTTL)
		},
	)

	// Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Registration runs before any account exists, rate limited by IP.
	api.POST("/auth/register", rl.Handler(), h.Register)

	authed := api.Group("", middleware.Authenticate(resolver), idem, rl.Handler())
	{
		// Profiles
		authed.GET("/users/me", h.GetMe)
		authed.PUT("/users/me", h.UpdateMe)
		authed.GET("/users/:id", h.GetUser)

		// Order participation (either side)
		authed.GET("/orders/:id/contacts", h.ContactsState)
		authed.GET("/orders/:id/chat-link", h.ChatLink)
		authed.POST("/orders/:id/show-contacts", h.ShowContacts)
		authed.POST("/orders/:id/complete", h.CompleteOrder)

		// Reviews
		authed.POST("/reviews", h.CreateReview)
		authed.GET("/reviews/for-user/:id", h.ReviewsForUser)

		// Support
		authed.POST("/support", h.CreateTicket)
		authed.GET("/support/my", h.MyTickets)
	}

	customer := authed.Group("", middleware.RequireRole(domain.RoleCustomer))
	{
		customer.POST("/orders", h.CreateOrder)
		customer.GET("/orders/my", h.MyOrders)
		customer.GET("/orders/:id", h.GetOrder)
		customer.PATCH("/orders/:id", h.EditOrder)
		customer.DELETE("/orders/:id", h.CancelOrder)
		customer.POST("/orders/:id/photos", h.UploadPhotos)
		customer.POST("/orders/:id/choose_executor", h.ChooseExecutor)
		customer.GET("/orders/:id/responses", h.OrderResponses)
	}

	executor := authed.Group("", middleware.RequireRole(domain.RoleExecutor))
	{
		executor.GET("/orders/available", h.AvailableOrders)
		executor.POST("/orders/:id/responses", h.CreateResponse)
		executor.GET("/executor/responses", h.MyResponses)
	}

	admin := authed.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users/:id/block", h.AdminBlockUser)
		admin.POST("/users/:id/unblock", h.AdminUnblockUser)
		admin.GET("/orders", h.AdminListOrders)
		admin.PATCH("/orders/:id/status", h.AdminSetOrderStatus)
		admin.GET("/reviews", h.AdminListReviews)
		admin.PATCH("/reviews/:id", h.AdminModerateReview)
		admin.GET("/support", h.AdminListTickets)
		admin.PATCH("/support/:id", h.AdminUpdateTicket)
		admin.GET("/stats", h.AdminStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
