package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/reputation"
)

func TestAddProduct_Validation(t *testing.T) {
	a := newTestAPI(t)
	alice := a.user("Alice")
	bob := a.merchant("Bob", "")

	w := a.do(http.MethodPost, "/merchants/"+bob+"/products", gin.H{
		"name": "Pixel", "price": 0, "version": "128GB", "stock": 0, "category": "electronics",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[domain.Product](t, w)
	require.Equal(t, "P1000", p.ID)
	require.Equal(t, bob, p.MerchantID)
	require.Zero(t, p.Stock)

	full := gin.H{"name": "Pixel", "price": 1, "stock": 1, "category": "electronics"}
	requireError(t, a.do(http.MethodPost, "/merchants/"+alice+"/products", full), http.StatusUnprocessableEntity, ErrCodeWrongActorKind)
	requireError(t, a.do(http.MethodPost, "/merchants/U9999/products", full), http.StatusNotFound, ErrCodeNotFound)

	// price and stock must be present, not merely zero-valued
	requireError(t, a.do(http.MethodPost, "/merchants/"+bob+"/products", gin.H{"name": "X", "stock": 1, "category": "c"}),
		http.StatusBadRequest, ErrCodeBadRequest)
	requireError(t, a.do(http.MethodPost, "/merchants/"+bob+"/products", gin.H{"name": "X", "price": 1, "category": "c"}),
		http.StatusBadRequest, ErrCodeBadRequest)

	requireError(t, a.do(http.MethodPost, "/merchants/"+bob+"/products", gin.H{"name": "X", "price": -1, "stock": 1, "category": "c"}),
		http.StatusBadRequest, ErrCodeInvalidInput)
	requireError(t, a.do(http.MethodPost, "/merchants/"+bob+"/products", gin.H{"name": "X", "price": 1, "stock": -1, "category": "c"}),
		http.StatusBadRequest, ErrCodeInvalidInput)
	requireError(t, a.do(http.MethodPost, "/merchants/"+bob+"/products", gin.H{"name": "X", "price": 1, "stock": 1, "category": "  "}),
		http.StatusBadRequest, ErrCodeInvalidInput)
}

func TestGetProduct(t *testing.T) {
	a := newTestAPI(t)
	bob := a.merchant("Bob", "")
	id := a.product(bob, "Pixel", "electronics", 3)

	w := a.do(http.MethodGet, "/products/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[domain.Product](t, w)
	require.Equal(t, "Pixel", p.Name)
	require.Equal(t, 3, p.Stock)
	require.Equal(t, 10.5, p.Price)

	requireError(t, a.do(http.MethodGet, "/products/P9999", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestListCategoryProducts_RankedByLiveCredit(t *testing.T) {
	a := newTestAPI(t)
	alice := a.user("Alice")
	carol := a.merchant("Carol", "")
	bob := a.merchant("Bob", "")
	cp := a.product(carol, "Galaxy", "electronics", 5)
	bp := a.product(bob, "Pixel", "electronics", 5)
	a.product(bob, "Rake", "garden", 5)

	// Equal credit keeps listing order.
	res := decode[ListProductsResponse](t, a.do(http.MethodGet, "/categories/electronics/products", nil))
	require.Equal(t, "electronics", res.Category)
	require.Len(t, res.Products, 2)
	require.Equal(t, cp, res.Products[0].ID)
	require.Equal(t, bp, res.Products[1].ID)

	// A good review lifts Bob above Carol without touching the products.
	a.completeSale(alice, bp, 5)

	res = decode[ListProductsResponse](t, a.do(http.MethodGet, "/categories/electronics/products", nil))
	require.Equal(t, bp, res.Products[0].ID)
	require.Equal(t, "Bob", res.Products[0].MerchantName)
	require.Equal(t, 82, res.Products[0].MerchantCredit)
	require.Equal(t, reputation.TierStandard, res.Products[0].MerchantTier)
	require.Equal(t, 4, res.Products[0].Stock)

	// Pagination applies after ranking.
	res = decode[ListProductsResponse](t, a.do(http.MethodGet, "/categories/electronics/products?page=2&page_size=1", nil))
	require.Len(t, res.Products, 1)
	require.Equal(t, cp, res.Products[0].ID)
	require.Equal(t, int64(2), res.Pagination.Total)

	// Exact match only.
	res = decode[ListProductsResponse](t, a.do(http.MethodGet, "/categories/Electronics/products", nil))
	require.NotNil(t, res.Products)
	require.Empty(t, res.Products)
}

func TestListCategoryProducts_ETag(t *testing.T) {
	a := newTestAPI(t)
	bob := a.merchant("Bob", "")
	a.product(bob, "Pixel", "electronics", 1)

	w := a.do(http.MethodGet, "/categories/electronics/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.Regexp(t, `^W/"products:electronics:1:\d+"$`, etag)

	w = a.do(http.MethodGet, "/categories/electronics/products", nil, "If-None-Match", etag)
	require.Equal(t, http.StatusNotModified, w.Code)
	require.Zero(t, w.Body.Len())

	a.product(bob, "Pixel Pro", "electronics", 1)
	w = a.do(http.MethodGet, "/categories/electronics/products", nil, "If-None-Match", etag)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestCompareCategory(t *testing.T) {
	a := newTestAPI(t)
	bob := a.merchant("Bob", "")
	carol := a.merchant("Carol", "")
	a.product(bob, "Pixel", "electronics", 2)
	a.product(carol, "Galaxy", "electronics", 0)

	w := a.do(http.MethodGet, "/categories/electronics/comparison", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[ComparisonResponse](t, w)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "Pixel", res.Rows[0].Name)
	require.Equal(t, "Bob", res.Rows[0].MerchantName)
	require.Equal(t, 80, res.Rows[0].MerchantCredit)
	require.Equal(t, 0, res.Rows[1].Stock)

	res = decode[ComparisonResponse](t, a.do(http.MethodGet, "/categories/none/comparison", nil))
	require.NotNil(t, res.Rows)
	require.Empty(t, res.Rows)
}
