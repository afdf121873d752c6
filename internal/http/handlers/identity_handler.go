// Identity HTTP handlers.
//
// This file exposes the identity registry:
//   - POST /users, POST /merchants                 (register)
//   - GET  /users/{id}, GET /merchants/{id}        (kind-aware lookup)
//   - GET  /users?q=, GET /merchants?q=            (ranked search, paginated)
//   - GET  /identities/{id}                        (tier and credit)
//   - GET  /merchants/{id}/users/{userId}/performance
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-market-backend/internal/services"
)

//
// DTOs
//

// RegisterUserRequest is the JSON payload for registering a plain user.
type RegisterUserRequest struct {
	// Name is the display name; surrounding whitespace is dropped.
	Name string `json:"name" binding:"required,max=255" example:"Alice"`
}

// CreateMerchantRequest is the JSON payload for registering a merchant.
type CreateMerchantRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"Bob's Gadgets"`
	// Qualification is free text and may be empty.
	Qualification string `json:"qualification" binding:"max=255" example:"licensed electronics reseller"`
}

// ListUsersResponse wraps a page of ranked users.
type ListUsersResponse struct {
	Users      []services.RankedUser `json:"users"`
	Pagination Pagination            `json:"pagination"`
}

// ListMerchantsResponse wraps a page of ranked merchants.
type ListMerchantsResponse struct {
	Merchants  []services.Merchant `json:"merchants"`
	Pagination Pagination          `json:"pagination"`
}

//
// Handlers
//

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a plain user
// @Description Creates a buyer identity with credit 80, no transactions and a 100% success rate.
// @Tags        Identities
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterUserRequest  true  "User payload"
//
// @Success     201  {object}  domain.Identity
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (max 255 chars)")
		return
	}

	u, err := h.registry.RegisterUser(c.Request.Context(), req.Name)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, u)
}

// CreateMerchant godoc
// @ID          createMerchant
// @Summary     Register a merchant
// @Description Creates a seller identity with the default standing and no products.
// @Tags        Identities
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateMerchantRequest  true  "Merchant payload"
//
// @Success     201  {object}  services.Merchant
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /merchants [post]
func (h *Handlers) CreateMerchant(c *gin.Context) {
	var req CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (max 255 chars)")
		return
	}

	m, err := h.registry.CreateMerchant(c.Request.Context(), req.Name, req.Qualification)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, m)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a plain user
// @Tags        Identities
// @Produce     json
//
// @Param       id  path  string  true  "Identity ID"  example(U1000)
//
// @Success     200  {object}  domain.Identity
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Identity is a merchant"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.registry.FindUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetMerchant godoc
// @ID          getMerchant
// @Summary     Get a merchant with its product ids
// @Tags        Identities
// @Produce     json
//
// @Param       id  path  string  true  "Identity ID"  example(U1001)
//
// @Success     200  {object}  services.Merchant
// @Failure     404  {object}  handlers.ErrorResponse  "Merchant not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Identity is not a merchant"
// @Router      /merchants/{id} [get]
func (h *Handlers) GetMerchant(c *gin.Context) {
	m, err := h.registry.FindMerchant(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, m)
}

// SearchUsers godoc
// @ID          searchUsers
// @Summary     Search plain users by name
// @Description Case-sensitive substring match on display name, ranked by live credit score (ties keep registration order). An empty q lists everyone.
// @Tags        Identities
// @Produce     json
//
// @Param       q          query  string  false "Substring of the display name"  example(Ali)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) SearchUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	found, err := h.registry.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	items, p := pageOf(found, page, pageSize)
	ok(c, http.StatusOK, ListUsersResponse{Users: items, Pagination: p})
}

// SearchMerchants godoc
// @ID          searchMerchants
// @Summary     Search merchants by name or qualification
// @Description Case-sensitive substring match on display name or qualification, ranked by live credit score.
// @Tags        Identities
// @Produce     json
//
// @Param       q          query  string  false "Keyword"          example(phones)
// @Param       page       query  int     false "Page number"      minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListMerchantsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /merchants [get]
func (h *Handlers) SearchMerchants(c *gin.Context) {
	page, pageSize := clampPagination(c)

	found, err := h.registry.SearchMerchants(c.Request.Context(), c.Query("q"))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	items, p := pageOf(found, page, pageSize)
	ok(c, http.StatusOK, ListMerchantsResponse{Merchants: items, Pagination: p})
}

// GetIdentityTier godoc
// @ID          getIdentityTier
// @Summary     Show an identity's membership tier
// @Description Works for users and merchants alike. The tier is derived from the live credit score.
// @Tags        Identities
// @Produce     json
//
// @Param       id  path  string  true  "Identity ID"  example(U1000)
//
// @Success     200  {object}  services.TierView
// @Failure     404  {object}  handlers.ErrorResponse  "Identity not found"
// @Router      /identities/{id} [get]
func (h *Handlers) GetIdentityTier(c *gin.Context) {
	v, err := h.registry.ShowTier(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}

// GetPerformance godoc
// @ID          getPerformance
// @Summary     Merchant view of a user's transaction record
// @Tags        Identities
// @Produce     json
//
// @Param       id      path  string  true  "Merchant ID"  example(U1001)
// @Param       userId  path  string  true  "User ID"      example(U1000)
//
// @Success     200  {object}  services.PerformanceView
// @Failure     404  {object}  handlers.ErrorResponse  "Merchant or user not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Wrong identity kind"
// @Router      /merchants/{id}/users/{userId}/performance [get]
func (h *Handlers) GetPerformance(c *gin.Context) {
	v, err := h.registry.Performance(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}
