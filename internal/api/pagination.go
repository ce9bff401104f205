package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/types"
)

var errInvalidPage = apperr.NotFound("invalid page")

// pageRequest reads ?page= and ?limit=; bad values fall back to the defaults
func pageRequest(c *gin.Context, defaultLimit int) types.PageRequest {
	req := types.PageRequest{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		req.Page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		req.Limit = min(n, maxPageSize)
	}
	return req
}

// recipesLimit reads ?recipes_limit=, the size of each author's recipe preview
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil {
		return defaultRecipesLimit
	}
	return max(n, 0)
}

// respondPage fills in the next and previous links and writes the page.
// Asking for a page past the end is a 404, except for the first page of an empty list.
func respondPage[T any](c *gin.Context, req types.PageRequest, page *types.Page[T]) {
	if req.Page > 1 && int64(req.Offset()) >= page.Count {
		respondError(c, errInvalidPage)
		return
	}
	if page.HasNext(req) {
		next := pageURL(c, req.Page+1)
		page.Next = &next
	}
	if req.Page > 1 {
		prev := pageURL(c, req.Page-1)
		page.Previous = &prev
	}
	c.JSON(http.StatusOK, page)
}

// pageURL is the absolute URL of the current request pointing at another page.
// The first page is addressed without a page parameter.
func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := *c.Request.URL
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	u.Scheme = scheme
	u.Host = c.Request.Host
	return u.String()
}
