package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
)

// RegisterRateLimitRoutes exposes the caller's remaining recipe-creation budget
func RegisterRateLimitRoutes(router *gin.RouterGroup, validator middleware.TokenValidator, limiter middleware.Limiter) {
	rateLimits := router.Group("/rate-limits")
	rateLimits.Use(middleware.AuthMiddleware(validator))
	{
		rateLimits.GET("/recipe-creation/", func(c *gin.Context) {
			viewer := middleware.ViewerFrom(c)
			decision, err := limiter.Peek(c.Request.Context(), fmt.Sprintf("%v", viewer.UserID))
			if err != nil {
				respondError(c, fmt.Errorf("failed to check rate limit: %w", err))
				return
			}
			cfg := limiter.Config()
			c.JSON(http.StatusOK, gin.H{
				"limit":      cfg.Limit,
				"remaining":  decision.Remaining,
				"reset_time": decision.Reset.Unix(),
				"window":     cfg.Window.String(),
			})
		})
	}
}
