package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (nh *NotificationHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	unreadOnly := c.Query("unread") == "true"
	rows, err := nh.notificationService.List(c.Request.Context(), rd.UserID, unreadOnly)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"notifications": rows})
}

func (nh *NotificationHandler) MarkRead(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := nh.notificationService.MarkRead(c.Request.Context(), rd.UserID, notificationID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"read": true})
}
