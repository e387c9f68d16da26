package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sivira/snsdm/internal/handler/dto"
	"github.com/sivira/snsdm/internal/pkg/pagination"
	"github.com/sivira/snsdm/internal/pkg/response"
	"github.com/sivira/snsdm/internal/service"
)

// DMHandler exposes the manual DM run triggers.
type DMHandler struct {
	dmSvc *service.DMService
}

// NewDMHandler creates a DMHandler.
func NewDMHandler(dmSvc *service.DMService) *DMHandler {
	return &DMHandler{dmSvc: dmSvc}
}

// RunHashtagRequest identifies the hashtag rule to run.
type RunHashtagRequest struct {
	HashtagID int64 `json:"hashtag_id" binding:"required"`
}

// RunHashtag handles POST /api/v1/dm/hashtag. It records a DM run for
// the given hashtag rule and reports the initiated run.
func (h *DMHandler) RunHashtag(c *gin.Context) {
	var req RunHashtagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "hashtag_id is required")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	hashtag, err := h.dmSvc.RunHashtagDM(c.Request.Context(), userID, req.HashtagID)
	if response.ErrorFrom(c, err) {
		return
	}
	response.Success(c, gin.H{
		"status":  service.DMRunStatusInitiated,
		"hashtag": hashtag,
	})
}

// RunReplyRequest identifies the post rule to run.
type RunReplyRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// RunReply handles POST /api/v1/dm/reply. It records a DM run for the
// given post-reply rule and reports the initiated run.
func (h *DMHandler) RunReply(c *gin.Context) {
	var req RunReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "post_id is required")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	postID, err := h.dmSvc.RunReplyDM(c.Request.Context(), userID, req.PostID)
	if response.ErrorFrom(c, err) {
		return
	}
	response.Success(c, gin.H{
		"status":  service.DMRunStatusInitiated,
		"post_id": postID,
	})
}

// ListLogs handles GET /api/v1/dm/logs.
func (h *DMHandler) ListLogs(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page, pageSize := response.ParsePagination(c)
	params := pagination.PaginationParams{Page: page, PageSize: pageSize}
	logs, total, err := h.dmSvc.ListDMLogs(c.Request.Context(), userID, params.Offset(), params.Limit())
	if response.ErrorFrom(c, err) {
		return
	}
	response.Paginated(c, dto.DMLogsFromService(logs), total, page, pageSize)
}
