package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"algobank/backend/internal/middleware"
	"algobank/backend/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	g := r.Group("/notifications", auth)
	g.GET("", h.List)
	g.PATCH("/:id/read", h.MarkRead)
	g.PATCH("/read-all", h.MarkAllRead)
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	items, err := h.notificationService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked read"})
}
