// Package services – CatalogService
//
// This file implements the catalog: merchants list products, and buyers
// look them up by category. Category results are ranked by the owning
// merchant's live credit score, so a completed sale can reorder a category
// immediately.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/reputation"
	"github.com/tbourn/go-market-backend/internal/search"
)

// ProductInput carries the fields of a new listing.
type ProductInput struct {
	MerchantID string
	Name       string
	Price      float64
	Version    string
	Stock      int
	Category   string
}

// RankedProduct is a product annotated with its owner's standing at query
// time.
type RankedProduct struct {
	domain.Product
	MerchantName   string          `json:"merchant_name"`
	MerchantCredit int             `json:"merchant_credit"`
	MerchantTier   reputation.Tier `json:"merchant_tier"`
}

// ComparisonRow is one line of a side-by-side category comparison.
type ComparisonRow struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Version        string  `json:"version"`
	Stock          int     `json:"stock"`
	MerchantID     string  `json:"merchant_id"`
	MerchantName   string  `json:"merchant_name"`
	MerchantCredit int     `json:"merchant_credit"`
}

// CatalogService owns product listing and category queries.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// IDStart is the first numeric id a fresh sequence issues.
	IDStart int64
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, idStart int64) *CatalogService {
	return &CatalogService{DB: db, IDStart: idStart}
}

// AddProduct lists a new product for a merchant.
//
// Errors:
//   - ErrEmptyName, ErrEmptyCategory, ErrInvalidPrice, ErrInvalidStock for bad input
//   - ErrActorNotMerchant when MerchantID names a plain user
//   - ErrMerchantNotFound when MerchantID names nothing
func (s *CatalogService) AddProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "AddProduct",
		trace.WithAttributes(attribute.String("merchant.id", in.MerchantID)))
	defer span.End()

	in.Name = search.CleanName(in.Name)
	in.Category = search.CleanName(in.Category)
	in.Version = search.CleanName(in.Version)
	switch {
	case in.Name == "":
		return nil, ErrEmptyName
	case in.Category == "":
		return nil, ErrEmptyCategory
	case in.Price < 0:
		return nil, ErrInvalidPrice
	case in.Stock < 0:
		return nil, ErrInvalidStock
	}

	var out *domain.Product
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := repo.GetIdentity(ctx, tx, in.MerchantID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMerchantNotFound
		}
		if err != nil {
			return err
		}
		if !owner.IsMerchant() {
			return ErrActorNotMerchant
		}

		p, err := repo.CreateProduct(ctx, tx, repo.NewProduct{
			MerchantID: owner.ID,
			Name:       in.Name,
			Price:      in.Price,
			Version:    in.Version,
			Stock:      in.Stock,
			Category:   in.Category,
		}, s.IDStart)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct returns a single product.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// SearchByCategory returns the products of category ranked by their
// merchant's live credit score. Equal scores keep listing order. An unknown
// or empty category yields an empty slice.
func (s *CatalogService) SearchByCategory(ctx context.Context, category string) ([]RankedProduct, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "SearchByCategory",
		trace.WithAttributes(attribute.String("category", category)))
	defer span.End()

	category = search.CleanName(category)
	if category == "" {
		return []RankedProduct{}, nil
	}

	products, err := repo.ListProductsByCategory(ctx, s.DB, category)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []RankedProduct{}, nil
	}

	ids := make([]string, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.MerchantID]; !ok {
			seen[p.MerchantID] = struct{}{}
			ids = append(ids, p.MerchantID)
		}
	}
	owners, err := repo.IdentitiesByID(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]RankedProduct, len(products))
	for i, p := range products {
		m := owners[p.MerchantID]
		rows[i] = RankedProduct{
			Product:        p,
			MerchantName:   m.DisplayName,
			MerchantCredit: m.CreditScore,
			MerchantTier:   m.Tier(),
		}
	}
	span.SetAttributes(attribute.Int("results", len(rows)))
	return search.Rank(rows, func(r RankedProduct) int { return r.MerchantCredit }), nil
}

// Compare returns the same ranking as SearchByCategory shaped for a
// side-by-side table.
func (s *CatalogService) Compare(ctx context.Context, category string) ([]ComparisonRow, error) {
	ranked, err := s.SearchByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]ComparisonRow, len(ranked))
	for i, r := range ranked {
		out[i] = ComparisonRow{
			ProductID:      r.ID,
			Name:           r.Name,
			Price:          r.Price,
			Version:        r.Version,
			Stock:          r.Stock,
			MerchantID:     r.MerchantID,
			MerchantName:   r.MerchantName,
			MerchantCredit: r.MerchantCredit,
		}
	}
	return out, nil
}

// CategoryStats returns the product count and latest change within a
// category, for cache validators.
func (s *CatalogService) CategoryStats(ctx context.Context, category string) (int64, *time.Time, error) {
	return repo.CategoryStats(ctx, s.DB, search.CleanName(category))
}
