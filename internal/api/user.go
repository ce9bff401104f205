package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	authService service.IAuthService
	userService service.IUserService
	pageSize    int
}

func NewUserHandler(authService service.IAuthService, userService service.IUserService, pageSize int) *UserHandler {
	return &UserHandler{authService: authService, userService: userService, pageSize: pageSize}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuth(h.authService)
	required := middleware.AuthMiddleware(h.authService)

	users := router.Group("/users")
	{
		users.POST("/", h.Register)
		users.GET("/", optional, h.List)
		users.GET("/me/", required, h.Me)
		users.POST("/set_password/", required, h.SetPassword)
		users.GET("/subscriptions/", required, h.Subscriptions)
		users.GET("/:id/", optional, h.Get)
		users.POST("/:id/subscribe/", required, h.Subscribe)
		users.DELETE("/:id/subscribe/", required, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.UserCreatedResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	req := pageRequest(c, h.pageSize)
	page, err := h.userService.List(c.Request.Context(), middleware.ViewerFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, req, page)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	viewer := middleware.ViewerFrom(c)
	user, err := h.userService.Get(c.Request.Context(), viewer, viewer.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	viewer := middleware.ViewerFrom(c)
	if err := h.authService.SetPassword(c.Request.Context(), viewer.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	req := pageRequest(c, h.pageSize)
	page, err := h.userService.Subscriptions(c.Request.Context(), middleware.ViewerFrom(c), req, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, req, page)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sub, err := h.userService.Subscribe(c.Request.Context(), middleware.ViewerFrom(c), id, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Unsubscribe(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
