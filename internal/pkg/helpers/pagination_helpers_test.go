package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(25, 2, 10)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 10, info.PageSize)
	assert.Equal(t, 25, info.TotalItems)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := NewPaginationInfo(5, 9, 10)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, 1, 2))
	assert.Equal(t, []int{5}, Paginate(items, 3, 2))
	assert.Empty(t, Paginate(items, 4, 2))
	assert.Equal(t, items, Paginate(items, 0, 0), "defaults to the first page of ten")
	assert.Empty(t, Paginate([]int{}, 3, 2))
}

func TestPaginateHugePage(t *testing.T) {
	items := []int{1, 2, 3}
	assert.NotPanics(t, func() {
		assert.Empty(t, Paginate(items, 922337203685477581, 10))
	})

	start, end := CalculateSliceIndices(int(^uint(0)>>1), MaxPageSize, 250)
	assert.Equal(t, 250, start)
	assert.Equal(t, 250, end)
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0, 25)
	assert.Equal(t, 1, page)
	assert.Equal(t, 25, size)

	_, size = NormalizePage(1, 500, 25)
	assert.Equal(t, 25, size)
}
