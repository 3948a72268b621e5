package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

type notificationFeed interface {
	Drain(ctx context.Context) []models.Notification
}

// NotificationHandler hands pending toasts to the client that caused them.
type NotificationHandler struct {
	feed notificationFeed
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(feed notificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// Drain godoc
// @Summary Pending notifications
// @Description Returns and removes the unexpired notifications for this client.
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Drain(c *gin.Context) {
	items := h.feed.Drain(c.Request.Context())
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}
