package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-market-backend/internal/domain"
)

func TestCategoryStats_Error_NoTable(t *testing.T) {
	db := newRepoDB(t, nil)
	if _, _, err := CategoryStats(context.Background(), db, "books"); err == nil {
		t.Fatalf("expected error due to missing products table")
	}
}

func TestCategoryStats_Empty(t *testing.T) {
	db := newRepoDB(t)
	n, ts, err := CategoryStats(context.Background(), db, "books")
	if err != nil || n != 0 || ts != nil {
		t.Fatalf("CategoryStats(empty) = (%d, %v, %v)", n, ts, err)
	}
}

func TestCategoryStats_TracksProductsAndMerchants(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	m, _ := CreateIdentity(ctx, db, domain.ActorMerchant, "Bob", "", 0)
	p, _ := CreateProduct(ctx, db, NewProduct{MerchantID: m.ID, Name: "x", Stock: 1, Category: "books"}, 0)
	_, _ = CreateProduct(ctx, db, NewProduct{MerchantID: m.ID, Name: "y", Category: "toys"}, 0)

	// Pin known timestamps so ordering does not depend on clock resolution.
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	db.Model(&domain.Product{}).Where("id = ?", p.ID).UpdateColumn("updated_at", t0)
	db.Model(&domain.Identity{}).Where("id = ?", m.ID).UpdateColumn("updated_at", t0.Add(-time.Hour))

	n, ts, err := CategoryStats(ctx, db, "books")
	if err != nil {
		t.Fatalf("CategoryStats: %v", err)
	}
	if n != 1 || ts == nil || !ts.Equal(t0) {
		t.Fatalf("got (%d, %v); want (1, %v)", n, ts, t0)
	}

	// A merchant credit change moves the validator forward.
	t1 := t0.Add(time.Hour)
	db.Model(&domain.Identity{}).Where("id = ?", m.ID).UpdateColumn("updated_at", t1)
	_, ts, _ = CategoryStats(ctx, db, "books")
	if ts == nil || !ts.Equal(t1) {
		t.Fatalf("expected merchant update %v, got %v", t1, ts)
	}
}
