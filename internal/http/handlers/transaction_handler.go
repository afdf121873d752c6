// Transaction HTTP handlers.
//
// This file exposes the transaction lifecycle:
//   - POST /transactions                      (request; with seller_contact, request and exchange at once)
//   - GET  /transactions/{id}
//   - POST /transactions/{id}/seller-contact  (exchange contacts, takes one unit of stock)
//   - POST /transactions/{id}/complete        (complete with the buyer's review)
//   - POST /transactions/{id}/cancel
//   - GET  /transactions/{id}/review
//   - GET  /merchants/{id}/reviews            (paginated, newest first)
//
// Idempotency:
// POST /transactions honours Idempotency-Key. When a stored result exists
// for (actor, route, key) the recorded transaction is returned with
// `Idempotency-Replayed: true` and no new stock is taken. The actor is the
// X-Actor-ID caller, or the buyer when the request is anonymous.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/http/middleware"
)

//
// DTOs
//

// CreateTransactionRequest is the JSON payload for opening a transaction.
type CreateTransactionRequest struct {
	BuyerID      string `json:"buyer_id"      binding:"required,max=32"  example:"U1000"`
	ProductID    string `json:"product_id"    binding:"required,max=32"  example:"P1000"`
	BuyerContact string `json:"buyer_contact" binding:"max=255"          example:"alice@example.com"`
	// SellerContact, when set, exchanges contacts in the same call.
	SellerContact string `json:"seller_contact" binding:"max=255" example:"bob@example.com"`
}

// SellerContactRequest is the JSON payload answering a pending request.
type SellerContactRequest struct {
	SellerContact string `json:"seller_contact" binding:"required,max=255" example:"bob@example.com"`
}

// CompleteTransactionRequest carries the buyer's review.
type CompleteTransactionRequest struct {
	// Score must be within 1..5.
	Score   *int   `json:"score"   binding:"required"  example:"5"`
	Content string `json:"content" binding:"max=2000"  example:"Smooth handover, as described."`
}

// ListReviewsResponse wraps a page of reviews received by a merchant.
type ListReviewsResponse struct {
	Reviews    []domain.Review `json:"reviews"`
	Pagination Pagination      `json:"pagination"`
}

//
// Handlers
//

// CreateTransaction godoc
// @ID          createTransaction
// @Summary     Request a product
// @Description Opens a transaction in status "requested". When seller_contact is supplied the contacts are exchanged
// @Description in the same call and one unit of stock is taken. Supports Idempotency-Key for safe retries.
// @Tags        Transactions
// @Accept      json
// @Produce     json
//
// @Param       X-Actor-ID       header  string  false "Acting identity"   example(U1000)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateTransactionRequest  true  "Transaction payload"
//
// @Success     201  {object}  domain.Transaction
// @Header      201  {string}  Idempotency-Replayed  "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Buyer, product or seller not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Out of stock"
// @Failure     422  {object}  handlers.ErrorResponse  "Buyer is not a plain user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /transactions [post]
func (h *Handlers) CreateTransaction(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "buyer_id and product_id are required")
		return
	}

	actor := actorID(c)
	if actor == "" {
		actor = req.BuyerID
	}
	scope := c.FullPath()
	idemKey, _ := middleware.GetIdempotencyKey(c)

	// Idempotency (replay path).
	if idemKey != "" && h.idem != nil {
		if rec, err := h.idem.Lookup(ctx, actor, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := h.txs.Get(ctx, rec.ResourceID); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	var (
		t   *domain.Transaction
		err error
	)
	if req.SellerContact != "" {
		t, err = h.txs.CreateAndExchange(ctx, req.BuyerID, req.ProductID, req.BuyerContact, req.SellerContact)
	} else {
		t, err = h.txs.Create(ctx, req.BuyerID, req.ProductID, req.BuyerContact)
	}
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("transaction_id", t.ID).
		Str("buyer_id", t.BuyerID).
		Str("product_id", t.ProductID).
		Str("status", string(t.Status)).
		Msg("transaction created")

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.idem != nil {
		if err := h.idem.Save(ctx, actor, scope, idemKey, t.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("transaction_id", t.ID).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, t)
}

// GetTransaction godoc
// @ID          getTransaction
// @Summary     Get a transaction
// @Tags        Transactions
// @Produce     json
//
// @Param       id  path  string  true  "Transaction ID"  example(T1000)
//
// @Success     200  {object}  domain.Transaction
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *Handlers) GetTransaction(c *gin.Context) {
	t, err := h.txs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, t)
}

// SupplySellerContact godoc
// @ID          supplySellerContact
// @Summary     Answer a request with the seller's contact
// @Description Exchanges contacts, stamps contact_exchanged_at and takes exactly one unit of stock.
// @Description Fails with 409 out_of_stock when the product sold out meanwhile; the transaction then stays requested.
// @Tags        Transactions
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                          true  "Transaction ID"  example(T1000)
// @Param       body  body  handlers.SellerContactRequest   true  "Seller contact"
//
// @Success     200  {object}  domain.Transaction
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Out of stock or not in requested state"
// @Router      /transactions/{id}/seller-contact [post]
func (h *Handlers) SupplySellerContact(c *gin.Context) {
	var req SellerContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "seller_contact required")
		return
	}

	t, err := h.txs.SupplySellerContact(c.Request.Context(), c.Param("id"), req.SellerContact)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("transaction_id", t.ID).
		Str("product_id", t.ProductID).
		Msg("contacts exchanged")

	ok(c, http.StatusOK, t)
}

// CompleteTransaction godoc
// @ID          completeTransaction
// @Summary     Complete a transaction with a review
// @Description Requires status contact_exchanged. Records the review, grants the buyer +1 credit and moves the seller by (score - 3).
// @Tags        Transactions
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                                true  "Transaction ID"  example(T1000)
// @Param       body  body  handlers.CompleteTransactionRequest   true  "Review"
//
// @Success     200  {object}  services.Completion
// @Failure     400  {object}  handlers.ErrorResponse  "Score outside 1..5"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not in contact_exchanged state"
// @Router      /transactions/{id}/complete [post]
func (h *Handlers) CompleteTransaction(c *gin.Context) {
	var req CompleteTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "score required (1-5)")
		return
	}

	done, err := h.txs.CompleteAndReview(c.Request.Context(), c.Param("id"), *req.Score, req.Content)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("transaction_id", done.Transaction.ID).
		Int("score", done.Review.Score).
		Int("buyer_credit", done.Buyer.CreditScore).
		Int("seller_credit", done.Seller.CreditScore).
		Msg("transaction completed")

	ok(c, http.StatusOK, done)
}

// CancelTransaction godoc
// @ID          cancelTransaction
// @Summary     Cancel a transaction
// @Description Allowed from requested or contact_exchanged. Reputation is untouched and stock is not restored.
// @Tags        Transactions
// @Produce     json
//
// @Param       id  path  string  true  "Transaction ID"  example(T1000)
//
// @Success     200  {object}  domain.Transaction
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already completed or cancelled"
// @Router      /transactions/{id}/cancel [post]
func (h *Handlers) CancelTransaction(c *gin.Context) {
	t, err := h.txs.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}

	middleware.LoggerFrom(c).Info().Str("transaction_id", t.ID).Msg("transaction cancelled")
	ok(c, http.StatusOK, t)
}

// GetTransactionReview godoc
// @ID          getTransactionReview
// @Summary     Get the review of a completed transaction
// @Tags        Transactions
// @Produce     json
//
// @Param       id  path  string  true  "Transaction ID"  example(T1000)
//
// @Success     200  {object}  domain.Review
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction or review not found"
// @Router      /transactions/{id}/review [get]
func (h *Handlers) GetTransactionReview(c *gin.Context) {
	r, err := h.txs.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, r)
}

// ListMerchantReviews godoc
// @ID          listMerchantReviews
// @Summary     List reviews received by a merchant
// @Tags        Transactions
// @Produce     json
//
// @Param       id         path   string  true  "Merchant ID"     example(U1001)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListReviewsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Merchant not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Identity is not a merchant"
// @Router      /merchants/{id}/reviews [get]
func (h *Handlers) ListMerchantReviews(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.txs.ListReviewsBySeller(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Review{}
	}
	ok(c, http.StatusOK, ListReviewsResponse{Reviews: items, Pagination: newPagination(page, pageSize, total)})
}
