package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/http/middleware"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/services"
	"github.com/tbourn/go-market-backend/internal/testutil"
	"github.com/tbourn/go-market-backend/internal/utils"
)

// ---------- repo shim + in-memory idempotency store ----------

type testIdentityRepo struct{}

func (testIdentityRepo) CreateIdentity(ctx context.Context, db *gorm.DB, kind domain.ActorKind, name, qualification string, start int64) (*domain.Identity, error) {
	return repo.CreateIdentity(ctx, db, kind, name, qualification, start)
}

func (testIdentityRepo) GetIdentity(ctx context.Context, db *gorm.DB, id string) (*domain.Identity, error) {
	return repo.GetIdentity(ctx, db, id)
}

func (testIdentityRepo) ResolveKind(ctx context.Context, db *gorm.DB, id string) (domain.ActorKind, error) {
	return repo.ResolveKind(ctx, db, id)
}

func (testIdentityRepo) SearchIdentities(ctx context.Context, db *gorm.DB, kind domain.ActorKind, needle string, alsoQualification bool) ([]domain.Identity, error) {
	return repo.SearchIdentities(ctx, db, kind, needle, alsoQualification)
}

func (testIdentityRepo) ProductIDsByMerchant(ctx context.Context, db *gorm.DB, merchantIDs []string) (map[string][]string, error) {
	return repo.ProductIDsByMerchant(ctx, db, merchantIDs)
}

type memIdem struct {
	mu    sync.Mutex
	recs  map[string]domain.Idempotency
	saves int
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]domain.Idempotency{}} }

func (s *memIdem) Lookup(_ context.Context, actorID, scope, key string, _ time.Time) (*domain.Idempotency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[actorID+"|"+scope+"|"+key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memIdem) Save(_ context.Context, actorID, scope, key, resourceID string, status int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.recs[actorID+"|"+scope+"|"+key] = domain.Idempotency{
		ActorID: actorID, Scope: scope, Key: key, ResourceID: resourceID, Status: status,
	}
	return nil
}

// ---------- test API over a real in-memory market ----------

type testAPI struct {
	t    *testing.T
	r    *gin.Engine
	idem *memIdem
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	idem := newMemIdem()
	h := New(
		services.NewRegistryService(db, testIdentityRepo{}, 0),
		services.NewCatalogService(db, 0),
		services.NewTransactionService(db, 0),
		idem,
	)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Actor(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	api := r.Group("/api/v1")
	{
		api.POST("/users", h.RegisterUser)
		api.GET("/users", h.SearchUsers)
		api.GET("/users/:id", h.GetUser)
		api.POST("/merchants", h.CreateMerchant)
		api.GET("/merchants", h.SearchMerchants)
		api.GET("/merchants/:id", h.GetMerchant)
		api.POST("/merchants/:id/products", h.AddProduct)
		api.GET("/merchants/:id/reviews", h.ListMerchantReviews)
		api.GET("/merchants/:id/users/:userId/performance", h.GetPerformance)
		api.GET("/identities/:id", h.GetIdentityTier)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories/:category/products", h.ListCategoryProducts)
		api.GET("/categories/:category/comparison", h.CompareCategory)
		api.POST("/transactions", h.CreateTransaction)
		api.GET("/transactions/:id", h.GetTransaction)
		api.POST("/transactions/:id/seller-contact", h.SupplySellerContact)
		api.POST("/transactions/:id/complete", h.CompleteTransaction)
		api.POST("/transactions/:id/cancel", h.CancelTransaction)
		api.GET("/transactions/:id/review", h.GetTransactionReview)
	}
	return &testAPI{t: t, r: r, idem: idem}
}

// do sends a request; headers are given as name/value pairs.
func (a *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// requireError asserts status and envelope code.
func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	er := decode[ErrorResponse](t, w)
	require.Equal(t, code, er.Code)
	require.NotEmpty(t, er.RequestID)
}

func (a *testAPI) user(name string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/users", gin.H{"name": name})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Identity](a.t, w).ID
}

func (a *testAPI) merchant(name, qualification string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/merchants", gin.H{"name": name, "qualification": qualification})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.Merchant](a.t, w).ID
}

func (a *testAPI) product(merchantID, name, category string, stock int) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/merchants/"+merchantID+"/products", gin.H{
		"name": name, "price": 10.5, "version": "v1", "stock": stock, "category": category,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Product](a.t, w).ID
}

// completeSale runs request → exchange → complete and returns the completion.
func (a *testAPI) completeSale(buyerID, productID string, score int) services.Completion {
	a.t.Helper()
	w := a.do(http.MethodPost, "/transactions", gin.H{
		"buyer_id": buyerID, "product_id": productID, "buyer_contact": "buyer@example.com",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	txID := decode[domain.Transaction](a.t, w).ID

	w = a.do(http.MethodPost, "/transactions/"+txID+"/seller-contact", gin.H{"seller_contact": "seller@example.com"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/transactions/"+txID+"/complete", gin.H{"score": score, "content": "fine"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[services.Completion](a.t, w)
}

// ---------- helpers ----------

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query          string
		page, pageSize int
	}{
		{"", 1, 20},
		{"page=3&page_size=5", 3, 5},
		{"page=0&page_size=0", 1, 1},
		{"page=-2&page_size=1000", 1, 100},
		{"page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		p, ps := clampPagination(c)
		require.Equal(t, tc.page, p, tc.query)
		require.Equal(t, tc.pageSize, ps, tc.query)
	}
}

func TestPageOf(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got, p := pageOf(items, 2, 2)
	require.Equal(t, []int{3, 4}, got)
	require.Equal(t, Pagination{Page: 2, PageSize: 2, Total: 5, TotalPages: 3, HasNext: true}, p)

	got, p = pageOf(items, 3, 2)
	require.Equal(t, []int{5}, got)
	require.False(t, p.HasNext)

	got, p = pageOf(items, 9, 2)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Equal(t, int64(5), p.Total)

	got, p = pageOf([]int(nil), 1, 20)
	require.NotNil(t, got)
	require.Zero(t, p.TotalPages)

	got, p = pageOf([]int{1, 2, 3}, math.MaxInt, 100)
	require.Empty(t, got)
	require.False(t, p.HasNext)
}

func TestListRoutes_HugePageIsEmpty(t *testing.T) {
	a := newTestAPI(t)
	alice := a.user("Alice")
	bob := a.merchant("Bob", "")
	a.completeSale(alice, a.product(bob, "Pixel", "electronics", 2), 4)

	huge := "page=" + strconv.Itoa(math.MaxInt) + "&page_size=100"
	for _, path := range []string{
		"/users?q=&" + huge,
		"/merchants?" + huge,
		"/categories/electronics/products?" + huge,
		"/merchants/" + bob + "/reviews?" + huge,
	} {
		w := a.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)

		var body struct {
			Pagination Pagination `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), path)
		require.Equal(t, utils.MaxPage, body.Pagination.Page, path)
		require.Equal(t, int64(1), body.Pagination.Total, path)
		require.False(t, body.Pagination.HasNext, path)
	}
}
