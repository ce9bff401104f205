package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

// pathID parses a numeric path parameter. Anything else cannot name a row, so it is a 404.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.NotFound("not found"))
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds and validates the request body, writing a 400 on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, validation.FromBinding(err))
		return false
	}
	return true
}

// queryFlag reads boolean filters written as 1/0 or true/false
func queryFlag(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}
