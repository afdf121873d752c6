// Package services – TransactionService
//
// This file implements the transaction lifecycle:
//
//	requested ──► contact_exchanged ──► completed
//	    │                 │
//	    └──────► cancelled ◄┘
//
// A buyer opens a request against a product; the seller answers with a
// contact string, which exchanges contacts and takes one unit of stock;
// completion records the buyer's review and applies completion scoring to
// both parties. Completion is the only path that changes credit scores.
//
// Concurrency: each product and each transaction has an in-process lock,
// and every state change is a conditional UPDATE inside a DB transaction,
// so a stock decrement and its status transition commit together or not at
// all. Identity locks guard the read-modify-write of standings.
//
// Observability: public methods are OpenTelemetry-instrumented and feed the
// market_* Prometheus collectors.
package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/reputation"
	"github.com/tbourn/go-market-backend/internal/utils"
)

// Completion bundles the result of CompleteAndReview.
type Completion struct {
	Transaction *domain.Transaction `json:"transaction"`
	Review      *domain.Review      `json:"review"`
	Buyer       reputation.Standing `json:"buyer"`
	Seller      reputation.Standing `json:"seller"`
}

// TransactionService drives the transaction state machine.
type TransactionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// IDStart is the first numeric id a fresh sequence issues.
	IDStart int64
	// Now returns the current time; defaults to time.Now in UTC.
	Now func() time.Time

	products     keyedMutex
	transactions keyedMutex
	identities   keyedMutex
}

// NewTransactionService constructs a TransactionService.
func NewTransactionService(db *gorm.DB, idStart int64) *TransactionService {
	return &TransactionService{
		DB:      db,
		IDStart: idStart,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a request from buyerID for productID. Nothing is reserved:
// stock is only taken when the seller supplies a contact.
//
// Errors: ErrEmptyContact, ErrBuyerNotFound, ErrActorNotUser,
// ErrProductNotFound, ErrSellerNotFound, ErrProductOutOfStock.
func (s *TransactionService) Create(ctx context.Context, buyerID, productID, buyerContact string) (*domain.Transaction, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("buyer.id", buyerID),
			attribute.String("product.id", productID),
		))
	defer span.End()

	buyerContact = strings.TrimSpace(buyerContact)
	if buyerContact == "" {
		return nil, ErrEmptyContact
	}

	unlock := s.products.Lock(productID)
	defer unlock()

	var out *domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.open(ctx, tx, buyerID, productID, buyerContact)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	transactionEvents.WithLabelValues(eventRequested).Inc()
	return out, nil
}

// SupplySellerContact answers a pending request with the seller's contact.
// The transaction moves to contact_exchanged and the product loses exactly
// one unit of stock in the same DB transaction. If stock ran out since the
// request was opened, ErrProductOutOfStock is returned and the transaction
// stays requested.
func (s *TransactionService) SupplySellerContact(ctx context.Context, transactionID, sellerContact string) (*domain.Transaction, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "SupplySellerContact",
		trace.WithAttributes(attribute.String("transaction.id", transactionID)))
	defer span.End()

	sellerContact = strings.TrimSpace(sellerContact)
	if sellerContact == "" {
		return nil, ErrEmptyContact
	}

	unlockTx := s.transactions.Lock(transactionID)
	defer unlockTx()

	current, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.StatusRequested {
		return nil, ErrTransactionState
	}

	unlockProduct := s.products.Lock(current.ProductID)
	defer unlockProduct()

	var out *domain.Transaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.exchange(ctx, tx, current, sellerContact)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	transactionEvents.WithLabelValues(eventExchanged).Inc()
	return out, nil
}

// CreateAndExchange runs Create and SupplySellerContact as one atomic step,
// for callers that already hold both contacts.
func (s *TransactionService) CreateAndExchange(ctx context.Context, buyerID, productID, buyerContact, sellerContact string) (*domain.Transaction, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "CreateAndExchange",
		trace.WithAttributes(
			attribute.String("buyer.id", buyerID),
			attribute.String("product.id", productID),
		))
	defer span.End()

	buyerContact = strings.TrimSpace(buyerContact)
	sellerContact = strings.TrimSpace(sellerContact)
	if buyerContact == "" || sellerContact == "" {
		return nil, ErrEmptyContact
	}

	unlock := s.products.Lock(productID)
	defer unlock()

	var out *domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.open(ctx, tx, buyerID, productID, buyerContact)
		if err != nil {
			return err
		}
		t, err = s.exchange(ctx, tx, t, sellerContact)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	transactionEvents.WithLabelValues(eventRequested).Inc()
	transactionEvents.WithLabelValues(eventExchanged).Inc()
	return out, nil
}

// CompleteAndReview completes a transaction whose contacts have been
// exchanged, stores the buyer's review, and applies completion scoring:
// the buyer gains one credit point and the seller gains (score - 3). Both
// parties record a successful outcome.
//
// Errors: ErrInvalidScore, ErrTransactionNotFound, ErrTransactionState
// (anything but contact_exchanged, including a second completion).
func (s *TransactionService) CompleteAndReview(ctx context.Context, transactionID string, score int, content string) (*Completion, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "CompleteAndReview",
		trace.WithAttributes(
			attribute.String("transaction.id", transactionID),
			attribute.Int("review.score", score),
		))
	defer span.End()

	buyerDelta, sellerDelta, err := reputation.CompletionDeltas(score)
	if err != nil {
		return nil, ErrInvalidScore
	}

	unlockTx := s.transactions.Lock(transactionID)
	defer unlockTx()

	current, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.StatusContactExchanged {
		return nil, ErrTransactionState
	}

	ids := []string{current.BuyerID, current.SellerID}
	slices.Sort(ids)
	for _, id := range ids {
		unlock := s.identities.Lock(id)
		defer unlock()
	}

	out := &Completion{}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := repo.TransitionTransaction(ctx, tx, transactionID, domain.StatusCompleted, map[string]any{
			"completed_at": s.now(),
		})
		if err != nil {
			return mapTransitionErr(err)
		}

		review, err := repo.CreateReview(ctx, tx, transactionID, current.BuyerID, score, content, s.IDStart)
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrTransactionState
		}
		if err != nil {
			return err
		}
		out.Review = review

		buyer, err := s.applyCompletion(ctx, tx, current.BuyerID, buyerDelta, "buyer")
		if err != nil {
			return err
		}
		seller, err := s.applyCompletion(ctx, tx, current.SellerID, sellerDelta, "seller")
		if err != nil {
			return err
		}
		out.Buyer, out.Seller = buyer, seller

		t, err := repo.GetTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		out.Transaction = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	transactionEvents.WithLabelValues(eventCompleted).Inc()
	observeCreditDelta("buyer", buyerDelta)
	observeCreditDelta("seller", sellerDelta)
	reviewScores.Observe(float64(score))
	return out, nil
}

// Cancel ends a requested or contact_exchanged transaction. It has no
// reputation effect and does not restore stock.
func (s *TransactionService) Cancel(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "Cancel",
		trace.WithAttributes(attribute.String("transaction.id", transactionID)))
	defer span.End()

	unlock := s.transactions.Lock(transactionID)
	defer unlock()

	var out *domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := repo.TransitionTransaction(ctx, tx, transactionID, domain.StatusCancelled, map[string]any{
			"cancelled_at": s.now(),
		})
		if err != nil {
			return mapTransitionErr(err)
		}
		t, err := repo.GetTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	transactionEvents.WithLabelValues(eventCancelled).Inc()
	return out, nil
}

// Get returns a transaction by id.
func (s *TransactionService) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := repo.GetTransaction(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

// GetReview returns the review of a completed transaction.
func (s *TransactionService) GetReview(ctx context.Context, transactionID string) (*domain.Review, error) {
	if _, err := s.Get(ctx, transactionID); err != nil {
		return nil, err
	}
	r, err := repo.GetReviewByTransaction(ctx, s.DB, transactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	return r, err
}

// ListReviewsBySeller returns a page of reviews received by a merchant,
// newest first, and the total count.
func (s *TransactionService) ListReviewsBySeller(ctx context.Context, sellerID string, page, pageSize int) ([]domain.Review, int64, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "ListReviewsBySeller",
		trace.WithAttributes(
			attribute.String("merchant.id", sellerID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	seller, err := repo.GetIdentity(ctx, s.DB, sellerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrMerchantNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	if !seller.IsMerchant() {
		return nil, 0, ErrActorNotMerchant
	}

	page, pageSize = utils.Clamp(page, pageSize)

	total, err := repo.CountReviewsBySeller(ctx, s.DB, sellerID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Review{}, 0, nil
	}
	items, err := repo.ListReviewsBySellerPage(ctx, s.DB, sellerID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// open validates the parties and the product and inserts a requested
// transaction. The caller holds the product lock.
func (s *TransactionService) open(ctx context.Context, tx *gorm.DB, buyerID, productID, buyerContact string) (*domain.Transaction, error) {
	buyer, err := repo.GetIdentity(ctx, tx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBuyerNotFound
	}
	if err != nil {
		return nil, err
	}
	if buyer.Kind != domain.ActorUser {
		return nil, ErrActorNotUser
	}

	product, err := repo.GetProduct(ctx, tx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	seller, err := repo.GetIdentity(ctx, tx, product.MerchantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, err
	}
	if !seller.IsMerchant() {
		return nil, ErrSellerNotFound
	}

	if product.Stock <= 0 {
		return nil, ErrProductOutOfStock
	}
	return repo.CreateTransaction(ctx, tx, buyer.ID, seller.ID, product.ID, buyerContact, s.IDStart)
}

// exchange records the seller contact, moves t to contact_exchanged, and
// then takes one unit of stock. The caller holds the product lock.
func (s *TransactionService) exchange(ctx context.Context, tx *gorm.DB, t *domain.Transaction, sellerContact string) (*domain.Transaction, error) {
	now := s.now()
	err := repo.TransitionTransaction(ctx, tx, t.ID, domain.StatusContactExchanged, map[string]any{
		"seller_contact":       sellerContact,
		"contact_exchanged_at": now,
	})
	if err != nil {
		return nil, mapTransitionErr(err)
	}

	switch err := repo.DecrementStock(ctx, tx, t.ProductID); {
	case errors.Is(err, repo.ErrOutOfStock):
		return nil, ErrProductOutOfStock
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrProductNotFound
	case err != nil:
		return nil, err
	}

	return repo.GetTransaction(ctx, tx, t.ID)
}

func (s *TransactionService) applyCompletion(ctx context.Context, tx *gorm.DB, id string, delta int, role string) (reputation.Standing, error) {
	ident, err := repo.GetIdentityForUpdate(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if role == "buyer" {
			return reputation.Standing{}, ErrBuyerNotFound
		}
		return reputation.Standing{}, ErrSellerNotFound
	}
	if err != nil {
		return reputation.Standing{}, err
	}
	ident.AdjustCredit(delta)
	ident.RecordOutcome(reputation.Completed)
	if err := repo.SaveStanding(ctx, tx, ident); err != nil {
		return reputation.Standing{}, err
	}
	return ident.Standing, nil
}

func (s *TransactionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrStaleStatus):
		return ErrTransactionState
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrTransactionNotFound
	default:
		return err
	}
}
