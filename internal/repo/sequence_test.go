package repo

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/testutil"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	return testutil.NewDB(t, migrate...)
}

func TestNextID_StartsAtDefaultAndIncrements(t *testing.T) {
	db := newRepoDB(t, &domain.Sequence{})
	ctx := context.Background()

	for i, want := range []string{"U1000", "U1001", "U1002"} {
		id, seq, err := NextID(ctx, db, IdentityIDs, 0)
		if err != nil {
			t.Fatalf("NextID #%d: %v", i, err)
		}
		if id != want || seq != int64(1000+i) {
			t.Fatalf("NextID #%d = (%q, %d); want %q", i, id, seq, want)
		}
	}
}

func TestNextID_CountersArePerComponent(t *testing.T) {
	db := newRepoDB(t, &domain.Sequence{})
	ctx := context.Background()

	u, _, _ := NextID(ctx, db, IdentityIDs, 0)
	p, _, _ := NextID(ctx, db, ProductIDs, 0)
	u2, _, _ := NextID(ctx, db, IdentityIDs, 0)
	tr, _, _ := NextID(ctx, db, TransactionIDs, 0)
	r, _, _ := NextID(ctx, db, ReviewIDs, 0)

	if u != "U1000" || p != "P1000" || u2 != "U1001" || tr != "T1000" || r != "R1000" {
		t.Fatalf("unexpected ids: %s %s %s %s %s", u, p, u2, tr, r)
	}
}

func TestNextID_CustomStartOnlySeedsOnce(t *testing.T) {
	db := newRepoDB(t, &domain.Sequence{})
	ctx := context.Background()

	id, _, err := NextID(ctx, db, ProductIDs, 5000)
	if err != nil || id != "P5000" {
		t.Fatalf("first = (%q, %v); want P5000", id, err)
	}
	// A different start on an existing sequence does not rewind it.
	id, _, err = NextID(ctx, db, ProductIDs, 1)
	if err != nil || id != "P5001" {
		t.Fatalf("second = (%q, %v); want P5001", id, err)
	}
}

func TestNextID_RolledBackWithTransaction(t *testing.T) {
	db := newRepoDB(t, &domain.Sequence{})
	ctx := context.Background()

	_ = db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := NextID(ctx, tx, ReviewIDs, 0); err != nil {
			t.Fatalf("NextID in tx: %v", err)
		}
		return gorm.ErrInvalidTransaction
	})

	id, _, err := NextID(ctx, db, ReviewIDs, 0)
	if err != nil || id != "R1000" {
		t.Fatalf("after rollback = (%q, %v); want R1000", id, err)
	}
}

func TestNextID_Error_NoTable(t *testing.T) {
	db := newRepoDB(t, nil)
	if _, _, err := NextID(context.Background(), db, IdentityIDs, 0); err == nil {
		t.Fatalf("expected error without sequences table")
	}
}
