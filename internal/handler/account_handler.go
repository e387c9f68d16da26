package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sivira/snsdm/internal/handler/dto"
	"github.com/sivira/snsdm/internal/pkg/response"
	"github.com/sivira/snsdm/internal/server/middleware"
	"github.com/sivira/snsdm/internal/service"
)

// AccountHandler exposes the linked-account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// ListAccountsRequest optionally narrows the listing to one provider.
type ListAccountsRequest struct {
	Provider string `json:"provider"`
}

// ListAccounts handles POST /api/v1/sns/accounts.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var req ListAccountsRequest
	// body 可省略，等价于不过滤
	_ = c.ShouldBindJSON(&req)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
		return
	}

	accounts, total, err := h.accountSvc.ListAccounts(c.Request.Context(), userID, req.Provider)
	if response.ErrorFrom(c, err) {
		return
	}

	response.Success(c, gin.H{
		"accounts": dto.LinkedAccountsFromService(accounts),
		"total":    total,
	})
}

// DisconnectRequest names the account to disconnect.
type DisconnectRequest struct {
	AccountID int64 `json:"account_id" binding:"required"`
}

// Disconnect handles POST /api/v1/sns/disconnect.
func (h *AccountHandler) Disconnect(c *gin.Context) {
	var req DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "account_id is required")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
		return
	}

	if err := h.accountSvc.Disconnect(c.Request.Context(), userID, req.AccountID); response.ErrorFrom(c, err) {
		return
	}

	response.Success(c, gin.H{"disconnected": true, "account_id": req.AccountID})
}
