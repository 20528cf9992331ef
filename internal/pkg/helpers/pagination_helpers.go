package helpers

import (
	"math"

	"github.com/yigit/examprogress/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1
)

// NormalizePage clamps a 1-based page and a page size, falling back to
// defaultSize when size is unset or out of range.
func NormalizePage(page, size, defaultSize int) (int, int) {
	if defaultSize <= 0 || defaultSize > MaxPageSize {
		defaultSize = DefaultPageSize
	}
	if size <= 0 || size > MaxPageSize {
		size = defaultSize
	}
	if page < 1 {
		page = DefaultPage
	}
	return page, size
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page should be the 1-based page number.
func NewPaginationInfo(totalItems, page, size int) dto.PaginationInfo {
	page, size = NormalizePage(page, size, DefaultPageSize)

	totalPages := 1
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(size)))
	}

	currentPage := page
	if currentPage > totalPages {
		currentPage = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// CalculateSliceIndices returns the [start, end) bounds of a page within totalItems.
func CalculateSliceIndices(page, size, totalItems int) (start, end int) {
	page, size = NormalizePage(page, size, DefaultPageSize)
	if totalItems <= 0 {
		return 0, 0
	}
	// Pages past the end are empty; clamping first keeps the product in range.
	if lastPage := (totalItems + size - 1) / size; page > lastPage {
		return totalItems, totalItems
	}

	start = (page - 1) * size
	end = start + size
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}
	return start, end
}

// Paginate returns one page of items.
func Paginate[T any](items []T, page, size int) []T {
	start, end := CalculateSliceIndices(page, size, len(items))
	return items[start:end]
}
