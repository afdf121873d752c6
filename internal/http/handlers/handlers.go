// Package handlers exposes the marketplace engine over HTTP.
//
// Handlers are transport-thin: they bind and validate input, call the
// registry, catalog, and transaction services, and translate results and
// error kinds into JSON responses.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/http/middleware"
	"github.com/tbourn/go-market-backend/internal/services"
	"github.com/tbourn/go-market-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// RegistryService registers and looks up identities.
type RegistryService interface {
	RegisterUser(ctx context.Context, name string) (*domain.Identity, error)
	CreateMerchant(ctx context.Context, name, qualification string) (*services.Merchant, error)
	FindUser(ctx context.Context, id string) (*domain.Identity, error)
	FindMerchant(ctx context.Context, id string) (*services.Merchant, error)
	SearchUsers(ctx context.Context, substring string) ([]services.RankedUser, error)
	SearchMerchants(ctx context.Context, keyword string) ([]services.Merchant, error)
	ShowTier(ctx context.Context, id string) (*services.TierView, error)
	Performance(ctx context.Context, merchantID, userID string) (*services.PerformanceView, error)
}

// CatalogService lists and ranks products.
type CatalogService interface {
	AddProduct(ctx context.Context, in services.ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SearchByCategory(ctx context.Context, category string) ([]services.RankedProduct, error)
	Compare(ctx context.Context, category string) ([]services.ComparisonRow, error)
	// CategoryStats feeds the category listing ETag.
	CategoryStats(ctx context.Context, category string) (int64, *time.Time, error)
}

// TransactionService drives the transaction lifecycle.
//
// Implementations must be safe for concurrent use; stock and state changes
// are serialized inside the service.
type TransactionService interface {
	Create(ctx context.Context, buyerID, productID, buyerContact string) (*domain.Transaction, error)
	CreateAndExchange(ctx context.Context, buyerID, productID, buyerContact, sellerContact string) (*domain.Transaction, error)
	SupplySellerContact(ctx context.Context, transactionID, sellerContact string) (*domain.Transaction, error)
	CompleteAndReview(ctx context.Context, transactionID string, score int, content string) (*services.Completion, error)
	Cancel(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Get(ctx context.Context, id string) (*domain.Transaction, error)
	GetReview(ctx context.Context, transactionID string) (*domain.Review, error)
	ListReviewsBySeller(ctx context.Context, sellerID string, page, pageSize int) ([]domain.Review, int64, error)
}

// IdempotencyStore persists the outcome of idempotent requests. Lookup
// returns (nil, nil) when nothing is stored.
type IdempotencyStore interface {
	Lookup(ctx context.Context, actorID, scope, key string, now time.Time) (*domain.Idempotency, error)
	Save(ctx context.Context, actorID, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the marketplace.
type Handlers struct {
	registry RegistryService
	catalog  CatalogService
	txs      TransactionService
	idem     IdempotencyStore
}

// New constructs Handlers. idem may be nil, which disables replay of
// idempotent requests.
func New(registry RegistryService, catalog CatalogService, txs TransactionService, idem IdempotencyStore) *Handlers {
	return &Handlers{registry: registry, catalog: catalog, txs: txs, idem: idem}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.Clamp(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)
}

// newPagination fills the metadata for a page of a list of total items.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// pageOf slices an already ranked list. Ranking happens first, so a page
// never reorders across boundaries.
func pageOf[T any](items []T, page, pageSize int) ([]T, Pagination) {
	total := len(items)
	start, end := utils.Window(total, page, pageSize)
	out := items[start:end]
	if out == nil {
		out = []T{}
	}
	return out, newPagination(page, pageSize, int64(total))
}

// actorID returns the identity the caller acts for (X-Actor-ID), or "".
func actorID(c *gin.Context) string { return middleware.ActorFrom(c) }
