package api

import (
	"fmt"
	"strconv"

	"github.com/folkloremap/folkloremap-backend/db"
)

// GetPaginationParams reads page and pageSize from the query string. Page is
// zero-based; pageSize is clamped to the maximum allowed.
func (h *HTTPContext) GetPaginationParams() (int, int, error) {
	page, err := h.GetPage()
	if err != nil {
		return 0, 0, err
	}
	pageSize := db.DefaultPageSize
	if param := h.URLParam("pageSize"); param != nil {
		pageSize, err = strconv.Atoi(param[0])
		if err != nil || pageSize < 1 {
			return 0, 0, fmt.Errorf("invalid page size")
		}
		if pageSize > db.MaxPageSize {
			pageSize = db.MaxPageSize
		}
	}
	return page, pageSize, nil
}

// CalculatePagination builds paging metadata for a list response.
func CalculatePagination(page, pageSize int, total int64) PaginationInfo {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PaginationInfo{
		Current:  page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
	}
}
