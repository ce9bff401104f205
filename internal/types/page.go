package types

import "math"

// PageRequest selects a page of a list; Page is 1-based
type PageRequest struct {
	Page  int
	Limit int
}

// Offset saturates at math.MaxInt so a huge page number lands past the end instead of wrapping
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Page is a paginated list. Next and Previous are filled in by the HTTP layer.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p Page[T]) HasNext(req PageRequest) bool {
	offset := req.Offset()
	if offset > math.MaxInt-len(p.Results) {
		return false
	}
	return int64(offset+len(p.Results)) < p.Count
}
