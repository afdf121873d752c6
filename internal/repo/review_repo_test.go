package repo

import (
	"context"
	"errors"
	"testing"
)

func TestCreateReview_OncePerTransaction(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	r, err := CreateReview(ctx, f.db, f.tr.ID, f.buyer.ID, 5, "great", 0)
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if r.ID != "R1000" || r.Score != 5 || r.ReviewerID != f.buyer.ID {
		t.Fatalf("unexpected review: %+v", r)
	}

	if _, err := CreateReview(ctx, f.db, f.tr.ID, f.buyer.ID, 1, "again", 0); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := GetReviewByTransaction(ctx, f.db, f.tr.ID)
	if err != nil || got.ID != r.ID || got.Content != "great" {
		t.Fatalf("GetReviewByTransaction = (%+v, %v)", got, err)
	}
	if _, err := GetReviewByTransaction(ctx, f.db, "T404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateReview_ScoreChecked(t *testing.T) {
	f := newTxFixture(t)
	if _, err := CreateReview(context.Background(), f.db, f.tr.ID, f.buyer.ID, 6, "", 0); err == nil {
		t.Fatalf("expected CHECK violation for score 6")
	}
}

func TestListReviewsBySeller(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	t2, err := CreateTransaction(ctx, f.db, f.buyer.ID, f.seller.ID, f.product.ID, "alice@example.com", 0)
	if err != nil {
		t.Fatalf("second transaction: %v", err)
	}
	r1, _ := CreateReview(ctx, f.db, f.tr.ID, f.buyer.ID, 5, "first", 0)
	r2, _ := CreateReview(ctx, f.db, t2.ID, f.buyer.ID, 2, "second", 0)

	total, err := CountReviewsBySeller(ctx, f.db, f.seller.ID)
	if err != nil || total != 2 {
		t.Fatalf("CountReviewsBySeller = (%d, %v)", total, err)
	}

	page, err := ListReviewsBySellerPage(ctx, f.db, f.seller.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListReviewsBySellerPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != r2.ID || page[1].ID != r1.ID {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page[0].TransactionID != t2.ID || page[0].Content != "second" {
		t.Fatalf("columns not mapped from reviews: %+v", page[0])
	}

	page, _ = ListReviewsBySellerPage(ctx, f.db, f.seller.ID, 1, 10)
	if len(page) != 1 || page[0].ID != r1.ID {
		t.Fatalf("offset page: %+v", page)
	}

	other, _ := CountReviewsBySeller(ctx, f.db, f.buyer.ID)
	if other != 0 {
		t.Fatalf("buyer has sold nothing, got %d reviews", other)
	}
}
