package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestOffset(t *testing.T) {
	tests := []struct {
		name string
		req  PageRequest
		want int
	}{
		{"first page", PageRequest{Page: 1, Limit: 6}, 0},
		{"third page", PageRequest{Page: 3, Limit: 6}, 12},
		{"zero page", PageRequest{Page: 0, Limit: 6}, 0},
		{"huge page saturates", PageRequest{Page: 3074457345618258603, Limit: 6}, math.MaxInt},
		{"max page saturates", PageRequest{Page: math.MaxInt, Limit: 100}, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Offset())
		})
	}
}

func TestPageHasNext(t *testing.T) {
	page := Page[int]{Count: 7, Results: []int{1, 2, 3, 4, 5, 6}}
	assert.True(t, page.HasNext(PageRequest{Page: 1, Limit: 6}))

	page.Results = []int{7}
	assert.False(t, page.HasNext(PageRequest{Page: 2, Limit: 6}))

	page.Results = nil
	assert.False(t, page.HasNext(PageRequest{Page: math.MaxInt, Limit: 6}))
}
