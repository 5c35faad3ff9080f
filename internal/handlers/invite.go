package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
)

type InviteHandler struct {
	inviteService services.InviteService
}

func NewInviteHandler(inviteService services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

func (ih *InviteHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		TraineeEmail string `json:"trainee_email"`
		Message      string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := ih.inviteService.CreateInvite(c.Request.Context(), rd.UserID, req.TraineeEmail, req.Message)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (ih *InviteHandler) Accept(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := ih.inviteService.AcceptInvite(c.Request.Context(), rd.UserID, req.Token)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (ih *InviteHandler) Decline(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := ih.inviteService.DeclineInvite(c.Request.Context(), req.Token)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (ih *InviteHandler) ListMine(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	rows, err := ih.inviteService.ListForSupervisor(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"invites": rows})
}
