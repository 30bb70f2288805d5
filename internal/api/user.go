package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	users    service.IUserService
	pageSize int
	logger   *zap.Logger
}

func NewUserHandler(users service.IUserService, pageSize int, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: users, pageSize: pageSize, logger: logger}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/me", requireAuth, h.Me)
		users.GET("/subscriptions", requireAuth, h.ListSubscriptions)
		users.GET("/:id", h.GetUser)
		users.POST("/:id/subscribe", requireAuth, h.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := pageQuery(c, h.pageSize)
	if !ok {
		return
	}
	result, err := h.users.ListUsers(c.Request.Context(), page, middleware.Viewer(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.users.GetUser(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	view, err := h.users.GetUser(c.Request.Context(), userID, &userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListSubscriptions lists the authors the caller follows; recipes_limit
// truncates each author's recipe list.
func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	page, ok := pageQuery(c, h.pageSize)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "recipes_limit", 0)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	result, err := h.users.ListSubscriptions(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "recipes_limit", 0)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	view, err := h.users.Subscribe(c.Request.Context(), userID, id, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	if err := h.users.Unsubscribe(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
