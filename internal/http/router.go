// Package httpapi wires the HTTP transport (Gin) to the marketplace services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
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

	"github.com/tbourn/go-market-backend/internal/config"
	_ "github.com/tbourn/go-market-backend/internal/docs" // swagger spec registration
	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/http/handlers"
	"github.com/tbourn/go-market-backend/internal/http/middleware"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/services"
)

// identityRepoShim adapts the repository free functions to the
// services.IdentityRepo interface expected by the RegistryService.
type identityRepoShim struct{}

// CreateIdentity proxies repo.CreateIdentity.
func (identityRepoShim) CreateIdentity(ctx context.Context, db *gorm.DB, kind domain.ActorKind, name, qualification string, start int64) (*domain.Identity, error) {
	return repo.CreateIdentity(ctx, db, kind, name, qualification, start)
}

// GetIdentity proxies repo.GetIdentity.
func (identityRepoShim) GetIdentity(ctx context.Context, db *gorm.DB, id string) (*domain.Identity, error) {
	return repo.GetIdentity(ctx, db, id)
}

// ResolveKind proxies repo.ResolveKind.
func (identityRepoShim) ResolveKind(ctx context.Context, db *gorm.DB, id string) (domain.ActorKind, error) {
	return repo.ResolveKind(ctx, db, id)
}

// SearchIdentities proxies repo.SearchIdentities.
func (identityRepoShim) SearchIdentities(ctx context.Context, db *gorm.DB, kind domain.ActorKind, needle string, alsoQualification bool) ([]domain.Identity, error) {
	return repo.SearchIdentities(ctx, db, kind, needle, alsoQualification)
}

// ProductIDsByMerchant proxies repo.ProductIDsByMerchant.
func (identityRepoShim) ProductIDsByMerchant(ctx context.Context, db *gorm.DB, merchantIDs []string) (map[string][]string, error) {
	return repo.ProductIDsByMerchant(ctx, db, merchantIDs)
}

// idempotencyStore persists idempotent request outcomes in the
// idempotency table for handlers.IdempotencyStore.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup returns the live record for (actorID, scope, key), or nil.
func (s idempotencyStore) Lookup(ctx context.Context, actorID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, actorID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Save stores the outcome. A concurrent duplicate is not an error: the
// first writer's record wins.
func (s idempotencyStore) Save(ctx context.Context, actorID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, actorID, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Actor: read X-Actor-ID for logs, rate limiting and idempotency
//  4. RedactingLogger: structured logs with contact/PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per actor/IP, bypass on replay)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Acting identity
	r.Use(middleware.Actor())

	// 4) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, actorID, scope, key string, now time.Time) (bool, error) {
			rec, err := idem.Lookup(ctx, actorID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per actor/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByActorOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderActorID, middleware.HeaderIdempotencyKey,
	}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
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
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
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

	// Search and comparison payloads grow with the catalog.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger/"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	registry := services.NewRegistryService(db, identityRepoShim{}, cfg.IDSequenceStart)
	catalog := services.NewCatalogService(db, cfg.IDSequenceStart)
	txs := services.NewTransactionService(db, cfg.IDSequenceStart)
	h := handlers.New(registry, catalog, txs, idem)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Identities
		api.POST("/users", h.RegisterUser)
		api.GET("/users", h.SearchUsers)
		api.GET("/users/:id", h.GetUser)
		api.POST("/merchants", h.CreateMerchant)
		api.GET("/merchants", h.SearchMerchants)
		api.GET("/merchants/:id", h.GetMerchant)
		api.GET("/merchants/:id/users/:userId/performance", h.GetPerformance)
		api.GET("/identities/:id", h.GetIdentityTier)

		// Catalog
		api.POST("/merchants/:id/products", h.AddProduct)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories/:category/products", h.ListCategoryProducts)
		api.GET("/categories/:category/comparison", h.CompareCategory)

		// Reviews
		api.GET("/merchants/:id/reviews", h.ListMerchantReviews)
	}

	// Transactions carry contact details; keep them out of shared caches.
	tx := api.Group("/transactions", middleware.NoStore())
	{
		tx.POST("", h.CreateTransaction)
		tx.GET("/:id", h.GetTransaction)
		tx.POST("/:id/seller-contact", h.SupplySellerContact)
		tx.POST("/:id/complete", h.CompleteTransaction)
		tx.POST("/:id/cancel", h.CancelTransaction)
		tx.GET("/:id/review", h.GetTransactionReview)
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
