package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type SupportHandler struct {
	supportService services.SupportService
}

func NewSupportHandler(supportService services.SupportService) *SupportHandler {
	return &SupportHandler{supportService: supportService}
}

func (sh *SupportHandler) OpenTicket(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Subject  string `json:"subject"`
		Body     string `json:"body"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := sh.supportService.OpenTicket(c.Request.Context(), rd.UserID, req.Subject, req.Body, req.Priority)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (sh *SupportHandler) GetTicket(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := sh.supportService.GetTicket(c.Request.Context(), rd.UserID, rd.Role == types.RoleAdmin, ticketID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (sh *SupportHandler) ListTickets(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd.Role == types.RoleAdmin {
		rows, err := sh.supportService.ListTicketsByStatus(c.Request.Context(), c.Query("status"))
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, gin.H{"tickets": rows})
		return
	}
	rows, err := sh.supportService.ListTickets(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"tickets": rows})
}

func (sh *SupportHandler) Reply(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	msg, err := sh.supportService.Reply(c.Request.Context(), rd.UserID, rd.Role == types.RoleAdmin, ticketID, req.Body)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, msg)
}

func (sh *SupportHandler) SetStatus(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := sh.supportService.SetStatus(c.Request.Context(), ticketID, req.Status)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}
