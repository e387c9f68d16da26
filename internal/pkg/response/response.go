// Package response defines the unified JSON envelope returned by all API
// endpoints and helpers for writing it from gin handlers.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/pagination"
)

// Response 统一响应体。成功时 Code 为 0，失败时 Code 等于 HTTP 状态码。
type Response struct {
	Code     int               `json:"code"`
	Message  string            `json:"message"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Data     any               `json:"data,omitempty"`
}

// PaginatedData 分页响应的 Data 字段。
type PaginatedData struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

// PaginationResult re-exported for handler convenience.
type PaginationResult = pagination.PaginationResult

// Success writes a 200 response with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// Error writes an error response with the given HTTP status and message.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{Code: statusCode, Message: message})
}

// ErrorWithDetails writes an error response carrying a machine-readable
// reason and optional metadata.
func ErrorWithDetails(c *gin.Context, statusCode int, message, reason string, metadata map[string]string) {
	c.JSON(statusCode, Response{
		Code:     statusCode,
		Message:  message,
		Reason:   reason,
		Metadata: metadata,
	})
}

// ErrorFrom writes an error response derived from err. It reports whether a
// response was written; a nil err writes nothing.
func ErrorFrom(c *gin.Context, err error) bool {
	se := infraerrors.FromError(err)
	if se == nil {
		return false
	}
	ErrorWithDetails(c, se.Code, se.Message, se.Reason, se.Metadata)
	return true
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound writes a 404 response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError writes a 500 response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// Paginated writes a 200 response wrapping items in PaginatedData.
func Paginated(c *gin.Context, items any, total int64, page, pageSize int) {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data: PaginatedData{
			Items:    items,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Pages:    pages,
		},
	})
}

// PaginatedWithResult writes a 200 response using a repository-computed
// pagination result. A nil result falls back to an empty first page.
func PaginatedWithResult(c *gin.Context, items any, result *pagination.PaginationResult) {
	if result == nil {
		result = &pagination.PaginationResult{Page: 1, PageSize: 20, Pages: 1}
	}
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data: PaginatedData{
			Items:    items,
			Total:    result.Total,
			Page:     result.Page,
			PageSize: result.PageSize,
			Pages:    result.Pages,
		},
	})
}

// ParsePagination 解析 page / page_size（或 limit）查询参数。
// 非法值回退到默认值 page=1、page_size=20，page_size 上限 1000。
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if v, err := parseInt(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := parseInt(c.Query("page_size")); err == nil && v > 0 && v <= 1000 {
		pageSize = v
	} else if v, err := parseInt(c.Query("limit")); err == nil && v > 0 && v <= 1000 {
		pageSize = v
	}
	return page, pageSize
}

// parseInt 只接受纯数字串，其余输入一律按 0 处理。
func parseInt(s string) (int, error) {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, nil
		}
		n = n*10 + int(ch-'0')
	}
	return n, nil
}
