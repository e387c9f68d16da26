package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sivira/snsdm/internal/handler/dto"
	"github.com/sivira/snsdm/internal/pkg/pagination"
	"github.com/sivira/snsdm/internal/pkg/response"
	"github.com/sivira/snsdm/internal/server/middleware"
	"github.com/sivira/snsdm/internal/service"
)

// RuleHandler exposes the hashtag and post-reply rule CRUD endpoints.
type RuleHandler struct {
	ruleSvc *service.RuleService
}

// NewRuleHandler creates a RuleHandler.
func NewRuleHandler(ruleSvc *service.RuleService) *RuleHandler {
	return &RuleHandler{ruleSvc: ruleSvc}
}

func callerID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
	}
	return userID, ok
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid rule id")
		return 0, false
	}
	return id, true
}

// RegisterHashtagRequest creates a hashtag rule.
type RegisterHashtagRequest struct {
	AccountID  int64  `json:"account_id" binding:"required"`
	Hashtag    string `json:"hashtag" binding:"required"`
	DMTemplate string `json:"dm_template" binding:"required"`
}

// RegisterHashtag handles POST /api/v1/hashtags.
func (h *RuleHandler) RegisterHashtag(c *gin.Context) {
	var req RegisterHashtagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "account_id, hashtag and dm_template are required")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.RegisterHashtagRule(c.Request.Context(), userID, req.AccountID, req.Hashtag, req.DMTemplate)
	if response.ErrorFrom(c, err) {
		return
	}
	response.Created(c, dto.HashtagRuleFromService(rule))
}

// ListHashtags handles GET /api/v1/hashtags.
func (h *RuleHandler) ListHashtags(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page, pageSize := response.ParsePagination(c)
	params := pagination.PaginationParams{Page: page, PageSize: pageSize}
	rules, total, err := h.ruleSvc.ListHashtagRules(c.Request.Context(), userID, params.Offset(), params.Limit())
	if response.ErrorFrom(c, err) {
		return
	}
	response.Paginated(c, dto.HashtagRulesFromService(rules), total, page, pageSize)
}

// UpdateHashtagRequest carries the mutable rule fields; absent fields
// keep their value.
type UpdateHashtagRequest struct {
	Hashtag    string `json:"hashtag"`
	DMTemplate string `json:"dm_template"`
	IsActive   *bool  `json:"is_active"`
}

// UpdateHashtag handles PUT /api/v1/hashtags/:id.
func (h *RuleHandler) UpdateHashtag(c *gin.Context) {
	var req UpdateHashtagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.UpdateHashtagRule(c.Request.Context(), userID, id, req.Hashtag, req.DMTemplate, req.IsActive)
	if response.ErrorFrom(c, err) {
		return
	}
	response.Success(c, dto.HashtagRuleFromService(rule))
}

// DeleteHashtag handles DELETE /api/v1/hashtags/:id.
func (h *RuleHandler) DeleteHashtag(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.ruleSvc.DeleteHashtagRule(c.Request.Context(), userID, id); response.ErrorFrom(c, err) {
		return
	}
	response.Success(c, gin.H{"deleted": true, "id": id})
}

// RegisterPostRequest creates a post-reply rule.
type RegisterPostRequest struct {
	AccountID  int64  `json:"account_id" binding:"required"`
	PostID     string `json:"post_id"`
	PostURL    string `json:"post_url"`
	DMTemplate string `json:"dm_template" binding:"required"`
}

// RegisterPost handles POST /api/v1/posts.
func (h *RuleHandler) RegisterPost(c *gin.Context) {
	var req RegisterPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "account_id and dm_template are required")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.RegisterPostRule(c.Request.Context(), userID, req.AccountID, req.PostID, req.PostURL, req.DMTemplate)
	if response.ErrorFrom(c, err) {
		return
	}
	response.Created(c, dto.PostRuleFromService(rule))
}

// ListPosts handles GET /api/v1/posts.
func (h *RuleHandler) ListPosts(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page, pageSize := response.ParsePagination(c)
	params := pagination.PaginationParams{Page: page, PageSize: pageSize}
	rules, total, err := h.ruleSvc.ListPostRules(c.Request.Context(), userID, params.Offset(), params.Limit())
	if response.ErrorFrom(c, err) {
		return
	}
	response.Paginated(c, dto.PostRulesFromService(rules), total, page, pageSize)
}

// UpdatePostRequest carries the mutable rule fields.
type UpdatePostRequest struct {
	PostID     string `json:"post_id"`
	PostURL    string `json:"post_url"`
	DMTemplate string `json:"dm_template"`
	IsActive   *bool  `json:"is_active"`
}

// UpdatePost handles PUT /api/v1/posts/:id.
func (h *RuleHandler) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.UpdatePostRule(c.Request.Context(), userID, id, req.PostID, req.PostURL, req.DMTemplate, req.IsActive)
	if response.ErrorFrom(c, err) {
		return
	}
	response.Success(c, dto.PostRuleFromService(rule))
}

// DeletePost handles DELETE /api/v1/posts/:id.
func (h *RuleHandler) DeletePost(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.ruleSvc.DeletePostRule(c.Request.Context(), userID, id); response.ErrorFrom(c, err) {
		return
	}
	response.Success(c, gin.H{"deleted": true, "id": id})
}
