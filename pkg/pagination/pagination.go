// Package pagination provides 1-based page/page_size handling shared by
// every list endpoint.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

var (
	// DefaultPageSize is used when the client does not ask for a size.
	DefaultPageSize = 20
	// MaxPageSize caps page_size regardless of what the client asks for.
	MaxPageSize = 100
)

// Configure overrides the package limits from application config. Values
// below 1 keep the current setting.
func Configure(defaultSize, maxSize int) {
	if defaultSize >= 1 {
		DefaultPageSize = defaultSize
	}
	if maxSize >= 1 {
		MaxPageSize = maxSize
	}
	if DefaultPageSize > MaxPageSize {
		DefaultPageSize = MaxPageSize
	}
}

// Params holds a validated page selection.
type Params struct {
	Page     int
	PageSize int
}

// FromContext extracts page and page_size query params from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return Normalize(page, size)
}

// Normalize clamps raw values into the allowed range.
func Normalize(page, pageSize int) Params {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize}
}

// Offset converts the 1-based page into a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the row limit for the page.
func (p Params) Limit() int {
	return p.PageSize
}

// Result is a single page of items plus navigation metadata.
type Result[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

// NewResult derives page metadata from the total row count.
func NewResult[T any](items []T, total int64, p Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	if p.PageSize < 1 || p.Page < 1 {
		p = Normalize(p.Page, p.PageSize)
	}
	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return Result[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < totalPages,
	}
}
