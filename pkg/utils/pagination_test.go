package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationOffset(t *testing.T) {
	tests := []struct {
		name       string
		in         Pagination
		wantOffset int
		wantLimit  int
	}{
		{"defaults", Pagination{}, 0, DefaultPageSize},
		{"clamped to max", Pagination{Page: 3, Limit: 500}, 2 * MaxPageSize, MaxPageSize},
		{"regular", Pagination{Page: 2, Limit: 10}, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			offset, limit := p.GetPageOffset()
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNewPageResult(t *testing.T) {
	p := Pagination{Page: 1, Limit: 2}
	p.GetPageOffset()

	res := NewPageResult([]string{"a", "b"}, 3, p)
	assert.True(t, res.HasMore)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 2, res.Limit)

	p.Page = 2
	assert.False(t, NewPageResult([]string{"c"}, 3, p).HasMore)
}
