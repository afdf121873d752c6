package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/testutil"
)

// identityRepo adapts the repo free functions to IdentityRepo.
type identityRepo struct{}

func (identityRepo) CreateIdentity(ctx context.Context, db *gorm.DB, kind domain.ActorKind, name, qualification string, start int64) (*domain.Identity, error) {
	return repo.CreateIdentity(ctx, db, kind, name, qualification, start)
}

func (identityRepo) GetIdentity(ctx context.Context, db *gorm.DB, id string) (*domain.Identity, error) {
	return repo.GetIdentity(ctx, db, id)
}

func (identityRepo) ResolveKind(ctx context.Context, db *gorm.DB, id string) (domain.ActorKind, error) {
	return repo.ResolveKind(ctx, db, id)
}

func (identityRepo) SearchIdentities(ctx context.Context, db *gorm.DB, kind domain.ActorKind, needle string, alsoQualification bool) ([]domain.Identity, error) {
	return repo.SearchIdentities(ctx, db, kind, needle, alsoQualification)
}

func (identityRepo) ProductIDsByMerchant(ctx context.Context, db *gorm.DB, merchantIDs []string) (map[string][]string, error) {
	return repo.ProductIDsByMerchant(ctx, db, merchantIDs)
}

type market struct {
	db       *gorm.DB
	registry *RegistryService
	catalog  *CatalogService
	txs      *TransactionService
}

func newMarket(t *testing.T) *market {
	t.Helper()
	db := testutil.NewDB(t)
	return &market{
		db:       db,
		registry: NewRegistryService(db, identityRepo{}, 0),
		catalog:  NewCatalogService(db, 0),
		txs:      NewTransactionService(db, 0),
	}
}

func (m *market) user(t *testing.T, name string) *domain.Identity {
	t.Helper()
	u, err := m.registry.RegisterUser(context.Background(), name)
	require.NoError(t, err)
	return u
}

func (m *market) merchant(t *testing.T, name string) *Merchant {
	t.Helper()
	mer, err := m.registry.CreateMerchant(context.Background(), name, "")
	require.NoError(t, err)
	return mer
}

func (m *market) product(t *testing.T, merchantID, name, category string, stock int) *domain.Product {
	t.Helper()
	p, err := m.catalog.AddProduct(context.Background(), ProductInput{
		MerchantID: merchantID, Name: name, Price: 10, Version: "v1", Stock: stock, Category: category,
	})
	require.NoError(t, err)
	return p
}

func (m *market) identity(t *testing.T, id string) *domain.Identity {
	t.Helper()
	ident, err := repo.GetIdentity(context.Background(), m.db, id)
	require.NoError(t, err)
	return ident
}

func (m *market) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := repo.GetProduct(context.Background(), m.db, productID)
	require.NoError(t, err)
	return p.Stock
}

// exchanged runs a full request and contact exchange.
func (m *market) exchanged(t *testing.T, buyerID, productID string) *domain.Transaction {
	t.Helper()
	tr, err := m.txs.CreateAndExchange(context.Background(), buyerID, productID, "buyer@example.com", "seller@example.com")
	require.NoError(t, err)
	return tr
}
