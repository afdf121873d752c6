// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Identity
// model (plain users and merchants).
//
// Functions are thin: they persist and query, and leave kind checks and
// reputation rules to the service layer. A missing row is reported as
// ErrNotFound.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/reputation"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateIdentity inserts a new identity of the given kind with a fresh
// "U"-prefixed id and the initial standing.
func CreateIdentity(ctx context.Context, db *gorm.DB, kind domain.ActorKind, name, qualification string, start int64) (*domain.Identity, error) {
	var out *domain.Identity
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, seq, err := NextID(ctx, tx, IdentityIDs, start)
		if err != nil {
			return err
		}
		ident := &domain.Identity{
			ID:            id,
			Seq:           seq,
			Kind:          kind,
			DisplayName:   name,
			Qualification: qualification,
			Standing:      reputation.NewStanding(),
		}
		if err := tx.Create(ident).Error; err != nil {
			return err
		}
		out = ident
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetIdentity loads an identity of any kind.
func GetIdentity(ctx context.Context, db *gorm.DB, id string) (*domain.Identity, error) {
	var ident domain.Identity
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ident).Error; err != nil {
		return nil, err
	}
	return &ident, nil
}

// GetIdentityForUpdate loads an identity with a row lock where the dialect
// supports one. SQLite ignores the locking clause and serializes writers.
func GetIdentityForUpdate(ctx context.Context, db *gorm.DB, id string) (*domain.Identity, error) {
	var ident domain.Identity
	q := db.WithContext(ctx)
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", id).First(&ident).Error; err != nil {
		return nil, err
	}
	return &ident, nil
}

// SaveStanding persists the reputation fields of ident.
func SaveStanding(ctx context.Context, db *gorm.DB, ident *domain.Identity) error {
	res := db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("id = ?", ident.ID).
		Updates(map[string]any{
			"credit_score":      ident.CreditScore,
			"transaction_count": ident.TransactionCount,
			"return_count":      ident.ReturnCount,
			"success_rate":      ident.SuccessRate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveKind returns the stored kind for id, or ActorUnknown when no such
// identity exists.
func ResolveKind(ctx context.Context, db *gorm.DB, id string) (domain.ActorKind, error) {
	var row struct{ Kind domain.ActorKind }
	err := db.WithContext(ctx).
		Model(&domain.Identity{}).
		Select("kind").
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ActorUnknown, nil
	}
	if err != nil {
		return domain.ActorUnknown, err
	}
	return row.Kind, nil
}

// SearchIdentities returns identities of kind whose display name contains
// needle (case-sensitive). When alsoQualification is set, the
// qualification is matched too. Results are in creation order.
func SearchIdentities(ctx context.Context, db *gorm.DB, kind domain.ActorKind, needle string, alsoQualification bool) ([]domain.Identity, error) {
	q := db.WithContext(ctx).Where("kind = ?", kind)
	if alsoQualification {
		q = q.Where(db.Where(containsExpr(db, "display_name"), needle).
			Or(containsExpr(db, "qualification"), needle))
	} else {
		q = q.Where(containsExpr(db, "display_name"), needle)
	}

	var out []domain.Identity
	err := q.Order("seq asc").Find(&out).Error
	return out, err
}

// IdentitiesByID loads every identity in ids that exists, keyed by id.
func IdentitiesByID(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Identity, error) {
	out := make(map[string]domain.Identity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Identity
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}
