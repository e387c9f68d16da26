// Package pagination carries page/size parameters and results between the
// HTTP layer and repositories.
package pagination

// PaginationParams is the normalized page request coming from the HTTP layer.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the SQL offset for the current page.
func (p PaginationParams) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the SQL limit for the current page.
func (p PaginationParams) Limit() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// PaginationResult describes one page of a result set.
type PaginationResult struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

// NewPaginationResult computes the page count for a total row count.
func NewPaginationResult(total int64, params PaginationParams) *PaginationResult {
	pageSize := params.Limit()
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	return &PaginationResult{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}
}
