package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zedemy/zedemy/backend/go-services/internal/notifications"
	"github.com/zedemy/zedemy/backend/go-services/pkg/middleware"
)

type NotificationHandler struct {
	Notifications *notifications.Service
}

func (h *NotificationHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/notifications", auth)
	g.GET("", h.List)
	g.PUT("/:id/read", h.MarkRead)
}

func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.Notifications.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err, "Notification not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Notification marked as read"})
}
