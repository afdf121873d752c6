package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
)

// ErrStaleStatus is returned by TransitionTransaction when the row was not
// in any of the expected source states.
var ErrStaleStatus = errors.New("stale transaction status")

// CreateTransaction inserts a transaction in the requested state with a
// fresh "T"-prefixed id.
func CreateTransaction(ctx context.Context, db *gorm.DB, buyerID, sellerID, productID, buyerContact string, start int64) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, seq, err := NextID(ctx, tx, TransactionIDs, start)
		if err != nil {
			return err
		}
		t := &domain.Transaction{
			ID:           id,
			Seq:          seq,
			BuyerID:      buyerID,
			SellerID:     sellerID,
			ProductID:    productID,
			Status:       domain.StatusRequested,
			BuyerContact: buyerContact,
		}
		if err := tx.Omit("Product").Create(t).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransaction loads a transaction by id.
func GetTransaction(ctx context.Context, db *gorm.DB, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TransitionTransaction moves a transaction into next, provided its
// current status is one that may legally precede next. Extra columns in
// fields are written in the same statement. It returns ErrStaleStatus when
// the row exists but was in another state, and ErrNotFound when it does
// not exist.
func TransitionTransaction(ctx context.Context, db *gorm.DB, id string, next domain.TransactionStatus, fields map[string]any) error {
	sources := domain.SourcesOf(next)
	if len(sources) == 0 {
		return ErrStaleStatus
	}

	updates := map[string]any{"status": next, "updated_at": time.Now().UTC()}
	for k, v := range fields {
		updates[k] = v
	}

	res := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ? AND status IN ?", id, sources).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := GetTransaction(ctx, db, id); err != nil {
		return err
	}
	return ErrStaleStatus
}
