// Product HTTP handlers.
//
// This file exposes the catalog:
//   - POST /merchants/{id}/products          (list a product)
//   - GET  /products/{id}
//   - GET  /categories/{category}/products   (ranked, paginated, ETag)
//   - GET  /categories/{category}/comparison (side-by-side rows)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-market-backend/internal/services"
)

//
// DTOs
//

// AddProductRequest is the JSON payload for listing a product. Pointers
// distinguish an omitted price or stock from an explicit zero.
type AddProductRequest struct {
	Name     string   `json:"name"     binding:"required,max=255" example:"Pixel 9"`
	Price    *float64 `json:"price"    binding:"required"         example:"699.00"`
	Version  string   `json:"version"  binding:"max=64"           example:"128GB"`
	Stock    *int     `json:"stock"    binding:"required"         example:"3"`
	Category string   `json:"category" binding:"required,max=128" example:"electronics"`
}

// ListProductsResponse wraps a page of ranked products.
type ListProductsResponse struct {
	Category   string                   `json:"category"`
	Products   []services.RankedProduct `json:"products"`
	Pagination Pagination               `json:"pagination"`
}

// ComparisonResponse lists every product of a category as comparison rows.
type ComparisonResponse struct {
	Category string                   `json:"category"`
	Rows     []services.ComparisonRow `json:"rows"`
}

//
// Handlers
//

// AddProduct godoc
// @ID          addProduct
// @Summary     List a product
// @Description Adds a product owned by the merchant in the path. A plain user id yields 422, an unknown id 404.
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                         true  "Merchant ID"  example(U1001)
// @Param       body  body  handlers.AddProductRequest     true  "Product payload"
//
// @Success     201  {object}  domain.Product
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Merchant not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Identity is not a merchant"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /merchants/{id}/products [post]
func (h *Handlers) AddProduct(c *gin.Context) {
	var req AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, price, stock and category are required")
		return
	}

	p, err := h.catalog.AddProduct(c.Request.Context(), services.ProductInput{
		MerchantID: c.Param("id"),
		Name:       req.Name,
		Price:      *req.Price,
		Version:    req.Version,
		Stock:      *req.Stock,
		Category:   req.Category,
	})
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, p)
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Tags        Products
// @Produce     json
//
// @Param       id  path  string  true  "Product ID"  example(P1000)
//
// @Success     200  {object}  domain.Product
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListCategoryProducts godoc
// @ID          listCategoryProducts
// @Summary     Search products by category
// @Description Exact category match, ranked by the owning merchant's live credit score; ties keep listing order.
// @Description Pagination applies after ranking. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Products
// @Produce     json
//
// @Param       category       path    string  true  "Category"                     example(electronics)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"products:electronics:3:1700000000\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /categories/{category}/products [get]
func (h *Handlers) ListCategoryProducts(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Param("category")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Credit changes touch the merchant row, so
	// the stamp covers both products and their owners.
	if count, maxTS, err := h.catalog.CategoryStats(ctx, category); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"products:%s:%d:%d"`, category, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	ranked, err := h.catalog.SearchByCategory(ctx, category)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	items, p := pageOf(ranked, page, pageSize)
	ok(c, http.StatusOK, ListProductsResponse{Category: category, Products: items, Pagination: p})
}

// CompareCategory godoc
// @ID          compareCategory
// @Summary     Compare the products of a category
// @Description One row per product with price, version, stock and the merchant's name and credit, in ranking order.
// @Tags        Products
// @Produce     json
//
// @Param       category  path  string  true  "Category"  example(electronics)
//
// @Success     200  {object}  handlers.ComparisonResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{category}/comparison [get]
func (h *Handlers) CompareCategory(c *gin.Context) {
	category := c.Param("category")
	rows, err := h.catalog.Compare(c.Request.Context(), category)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if rows == nil {
		rows = []services.ComparisonRow{}
	}
	ok(c, http.StatusOK, ComparisonResponse{Category: category, Rows: rows})
}
