package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
)

type PDEntryHandler struct {
	pdEntryService services.PDEntryService
}

func NewPDEntryHandler(pdEntryService services.PDEntryService) *PDEntryHandler {
	return &PDEntryHandler{pdEntryService: pdEntryService}
}

func (ph *PDEntryHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req services.PDEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := ph.pdEntryService.Create(c.Request.Context(), rd.UserID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (ph *PDEntryHandler) Update(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req services.PDEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := ph.pdEntryService.Update(c.Request.Context(), rd.UserID, entryID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (ph *PDEntryHandler) Remove(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := ph.pdEntryService.Remove(c.Request.Context(), rd.UserID, entryID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ph *PDEntryHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := ph.pdEntryService.Get(c.Request.Context(), rd.UserID, entryID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (ph *PDEntryHandler) List(c *gin.Context) {
	traineeID, err := traineeIDForScope(c)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	rows, err := ph.pdEntryService.List(c.Request.Context(), traineeID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": rows})
}

// Preview scores free text without saving, for live feedback in the form.
func (ph *PDEntryHandler) Preview(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	RespondOK(c, ph.pdEntryService.Preview(req.Text))
}
