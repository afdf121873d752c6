package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
)

// CreateReview inserts the review of a transaction with a fresh
// "R"-prefixed id. A second review for the same transaction violates
// ux_review_transaction and is reported as ErrDuplicate.
func CreateReview(ctx context.Context, db *gorm.DB, transactionID, reviewerID string, score int, content string, start int64) (*domain.Review, error) {
	var out *domain.Review
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, seq, err := NextID(ctx, tx, ReviewIDs, start)
		if err != nil {
			return err
		}
		r := &domain.Review{
			ID:            id,
			Seq:           seq,
			TransactionID: transactionID,
			ReviewerID:    reviewerID,
			Score:         score,
			Content:       content,
		}
		if err := tx.Omit("Transaction").Create(r).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetReviewByTransaction returns the review attached to a transaction.
func GetReviewByTransaction(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Review, error) {
	var r domain.Review
	if err := db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountReviewsBySeller returns how many reviews a seller has received.
func CountReviewsBySeller(ctx context.Context, db *gorm.DB, sellerID string) (int64, error) {
	var total int64
	err := reviewsBySeller(ctx, db, sellerID).Count(&total).Error
	return total, err
}

// ListReviewsBySellerPage returns reviews on transactions sold by
// sellerID, newest first.
func ListReviewsBySellerPage(ctx context.Context, db *gorm.DB, sellerID string, offset, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := reviewsBySeller(ctx, db, sellerID).
		Select("reviews.*").
		Order("reviews.seq desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func reviewsBySeller(ctx context.Context, db *gorm.DB, sellerID string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Review{}).
		Joins("JOIN transactions ON transactions.id = reviews.transaction_id").
		Where("transactions.seller_id = ?", sellerID)
}
