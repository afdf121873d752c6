package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
)

// ErrOutOfStock is returned by DecrementStock when the product has no
// stock left at the time of the update.
var ErrOutOfStock = errors.New("out of stock")

// NewProduct carries the caller-supplied fields of a listing.
type NewProduct struct {
	MerchantID string
	Name       string
	Price      float64
	Version    string
	Stock      int
	Category   string
}

// CreateProduct inserts a product with a fresh "P"-prefixed id.
func CreateProduct(ctx context.Context, db *gorm.DB, in NewProduct, start int64) (*domain.Product, error) {
	var out *domain.Product
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, seq, err := NextID(ctx, tx, ProductIDs, start)
		if err != nil {
			return err
		}
		p := &domain.Product{
			ID:         id,
			Seq:        seq,
			Name:       in.Name,
			Price:      in.Price,
			Version:    in.Version,
			Stock:      in.Stock,
			Category:   in.Category,
			MerchantID: in.MerchantID,
		}
		if err := tx.Omit("Merchant").Create(p).Error; err != nil {
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

// GetProduct loads a product by id.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProductsByCategory returns products whose category equals category
// exactly, in creation order.
func ListProductsByCategory(ctx context.Context, db *gorm.DB, category string) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("category = ?", category).
		Order("seq asc").
		Find(&out).Error
	return out, err
}

// ProductIDsByMerchant returns the ids of products owned by each merchant,
// in creation order. Merchants without products are absent from the map.
func ProductIDsByMerchant(ctx context.Context, db *gorm.DB, merchantIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(merchantIDs))
	if len(merchantIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ID         string
		MerchantID string
	}
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("id", "merchant_id").
		Where("merchant_id IN ?", merchantIDs).
		Order("seq asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.MerchantID] = append(out[r.MerchantID], r.ID)
	}
	return out, nil
}

// DecrementStock removes exactly one unit of stock. The update is
// conditional on stock > 0 and returns ErrOutOfStock when no row matched
// and the product exists.
func DecrementStock(ctx context.Context, db *gorm.DB, productID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock > 0", productID).
		Update("stock", gorm.Expr("stock - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := GetProduct(ctx, db, productID); err != nil {
		return err
	}
	return ErrOutOfStock
}
