// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
)

// CategoryStats returns the number of products listed in category and the
// latest change among them or their owning merchants. A merchant credit
// change reorders the category, so it must change the validator too.
//
// Return values:
//   - count:        total products in category
//   - maxUpdatedAt: greatest UpdatedAt across products and merchants, or nil
//   - err:          database error, if any
func CategoryStats(ctx context.Context, db *gorm.DB, category string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Product{}).Where("category = ?", category)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest product change (avoid MAX() -> TEXT in SQLite)
	var prod struct{ UpdatedAt time.Time }
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&prod).Error; err != nil {
		return 0, nil, err
	}

	var merch struct{ UpdatedAt time.Time }
	err = db.WithContext(ctx).
		Model(&domain.Identity{}).
		Select("identities.updated_at").
		Joins("JOIN products ON products.merchant_id = identities.id").
		Where("products.category = ?", category).
		Order("identities.updated_at DESC").
		Limit(1).
		Scan(&merch).Error
	if err != nil {
		return 0, nil, err
	}

	latest := prod.UpdatedAt
	if merch.UpdatedAt.After(latest) {
		latest = merch.UpdatedAt
	}
	return count, &latest, nil
}
