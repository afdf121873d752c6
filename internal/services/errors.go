// Package services defines the business logic of the marketplace: the
// identity registry, the catalog, and the transaction lifecycle.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Every specific error belongs to exactly one kind. Callers that only care
// about the kind test it with errors.Is:
//
//	if errors.Is(err, services.ErrNotFound) { ... }
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

// Error kinds.
var (
	ErrNotFound       = errors.New("not found")
	ErrWrongActorKind = errors.New("wrong actor kind")
	ErrOutOfStock     = errors.New("out of stock")
	ErrInvalidState   = errors.New("invalid state")
	ErrInvalidInput   = errors.New("invalid input")
)

// kindError is a specific error that unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Not found.
var (
	ErrUserNotFound        = newKindError(ErrNotFound, "user not found")
	ErrMerchantNotFound    = newKindError(ErrNotFound, "merchant not found")
	ErrIdentityNotFound    = newKindError(ErrNotFound, "identity not found")
	ErrBuyerNotFound       = newKindError(ErrNotFound, "buyer not found")
	ErrSellerNotFound      = newKindError(ErrNotFound, "seller not found")
	ErrProductNotFound     = newKindError(ErrNotFound, "product not found")
	ErrTransactionNotFound = newKindError(ErrNotFound, "transaction not found")
	ErrReviewNotFound      = newKindError(ErrNotFound, "review not found")
)

// Wrong actor kind: the id exists but names the other identity variant.
var (
	// ErrActorNotMerchant is returned when a plain user id is supplied where
	// a merchant is required.
	ErrActorNotMerchant = newKindError(ErrWrongActorKind, "identity is not a merchant")

	// ErrActorNotUser is returned when a merchant id is supplied where a
	// plain user is required.
	ErrActorNotUser = newKindError(ErrWrongActorKind, "identity is not a plain user")
)

// State and stock.
var (
	ErrProductOutOfStock = newKindError(ErrOutOfStock, "product is out of stock")

	// ErrTransactionState is returned when an operation requires a status
	// the transaction is not in.
	ErrTransactionState = newKindError(ErrInvalidState, "transaction is not in the required status")
)

// Input validation.
var (
	ErrEmptyName     = newKindError(ErrInvalidInput, "name is empty")
	ErrEmptyCategory = newKindError(ErrInvalidInput, "category is empty")
	ErrEmptyContact  = newKindError(ErrInvalidInput, "contact is empty")
	ErrInvalidPrice  = newKindError(ErrInvalidInput, "price must be >= 0")
	ErrInvalidStock  = newKindError(ErrInvalidInput, "stock must be >= 0")
	ErrInvalidScore  = newKindError(ErrInvalidInput, "score must be between 1 and 5")
)
