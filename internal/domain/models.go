// Package domain defines the persistence models of the marketplace:
// identities (plain users and merchants), products, transactions, and
// reviews. These types are mapped with GORM and shared by the repository,
// service, and HTTP layers.
package domain

import (
	"time"

	"github.com/tbourn/go-market-backend/internal/reputation"
)

// ActorKind discriminates the identity variants held by the registry.
type ActorKind string

const (
	ActorUser     ActorKind = "user"
	ActorMerchant ActorKind = "merchant"
	// ActorUnknown is never stored; it reports an unresolvable id.
	ActorUnknown ActorKind = "unknown"
)

// Identity is a registered participant. Kind selects the variant; the
// merchant-only payload (Qualification) is empty for plain users. All
// reputation rules act on the embedded Standing regardless of Kind.
//
// Fields:
//   - ID: prefixed monotonic token (e.g. "U1000"), never reused.
//   - Seq: numeric part of ID; the natural creation order.
//   - DisplayName: set once at creation.
//   - Standing: credit score and transaction statistics.
type Identity struct {
	ID            string    `json:"id"            gorm:"type:varchar(32);primaryKey"`
	Seq           int64     `json:"-"             gorm:"not null;uniqueIndex"`
	Kind          ActorKind `json:"kind"          gorm:"type:varchar(16);not null;index;check:kind IN ('user','merchant')"`
	DisplayName   string    `json:"display_name"  gorm:"type:varchar(255);not null"`
	Qualification string    `json:"qualification,omitempty" gorm:"type:varchar(255);not null;default:''"`

	reputation.Standing `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Identity.
func (Identity) TableName() string { return "identities" }

// IsMerchant reports whether the identity is the merchant variant.
func (i Identity) IsMerchant() bool { return i.Kind == ActorMerchant }

// Product is a catalog entry listed by a merchant.
type Product struct {
	ID         string    `json:"id"          gorm:"type:varchar(32);primaryKey"`
	Seq        int64     `json:"-"           gorm:"not null;uniqueIndex"`
	Name       string    `json:"name"        gorm:"type:varchar(255);not null"`
	Price      float64   `json:"price"       gorm:"not null;check:price >= 0"`
	Version    string    `json:"version"     gorm:"type:varchar(64);not null;default:''"`
	Stock      int       `json:"stock"       gorm:"not null;check:stock >= 0"`
	Category   string    `json:"category"    gorm:"type:varchar(128);not null;index:idx_products_category"`
	MerchantID string    `json:"merchant_id" gorm:"type:varchar(32);not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Merchant is the owning identity. Products cannot outlive it.
	Merchant Identity `json:"-" gorm:"foreignKey:MerchantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Transaction links a buyer to a merchant's product and records the
// exchanged contact strings. Identity fields never change after creation.
type Transaction struct {
	ID                 string            `json:"id"                   gorm:"type:varchar(32);primaryKey"`
	Seq                int64             `json:"-"                    gorm:"not null;uniqueIndex"`
	BuyerID            string            `json:"buyer_id"             gorm:"type:varchar(32);not null;index"`
	SellerID           string            `json:"seller_id"            gorm:"type:varchar(32);not null;index"`
	ProductID          string            `json:"product_id"           gorm:"type:varchar(32);not null;index"`
	Status             TransactionStatus `json:"status"               gorm:"type:varchar(24);not null;index;check:status IN ('requested','contact_exchanged','completed','cancelled')"`
	BuyerContact       string            `json:"buyer_contact"        gorm:"type:varchar(255);not null;default:''"`
	SellerContact      string            `json:"seller_contact"       gorm:"type:varchar(255);not null;default:''"`
	ContactExchangedAt *time.Time        `json:"contact_exchanged_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// Review is the buyer's rating of a completed transaction. At most one
// review exists per transaction (unique index) and it is never edited.
type Review struct {
	ID            string    `json:"id"             gorm:"type:varchar(32);primaryKey"`
	Seq           int64     `json:"-"              gorm:"not null;uniqueIndex"`
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(32);not null;uniqueIndex:ux_review_transaction"`
	ReviewerID    string    `json:"reviewer_id"    gorm:"type:varchar(32);not null;index"`
	Score         int       `json:"score"          gorm:"not null;check:score BETWEEN 1 AND 5"`
	Content       string    `json:"content"        gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"`

	Transaction Transaction `json:"-" gorm:"foreignKey:TransactionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// Sequence backs one id generator. Counter holds the last issued value.
type Sequence struct {
	Name    string `gorm:"type:varchar(32);primaryKey"`
	Counter int64  `gorm:"not null"`
}

// TableName returns the database table name for Sequence.
func (Sequence) TableName() string { return "sequences" }
