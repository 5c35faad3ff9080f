package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
)

type SupervisionHandler struct {
	supervisionService services.SupervisionService
}

func NewSupervisionHandler(supervisionService services.SupervisionService) *SupervisionHandler {
	return &SupervisionHandler{supervisionService: supervisionService}
}

func (sh *SupervisionHandler) RecordEntry(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req services.SupervisionEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := sh.supervisionService.RecordEntry(c.Request.Context(), rd.UserID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (sh *SupervisionHandler) UpdateEntry(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req services.SupervisionEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := sh.supervisionService.UpdateEntry(c.Request.Context(), rd.UserID, entryID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (sh *SupervisionHandler) RemoveEntry(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := sh.supervisionService.RemoveEntry(c.Request.Context(), rd.UserID, entryID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (sh *SupervisionHandler) ListEntries(c *gin.Context) {
	traineeID, err := traineeIDForScope(c)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	rows, err := sh.supervisionService.ListEntries(c.Request.Context(), traineeID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": rows})
}

func (sh *SupervisionHandler) RecordObservation(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req services.ObservationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := sh.supervisionService.RecordObservation(c.Request.Context(), rd.UserID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (sh *SupervisionHandler) RemoveObservation(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	obsID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := sh.supervisionService.RemoveObservation(c.Request.Context(), rd.UserID, obsID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (sh *SupervisionHandler) ListObservations(c *gin.Context) {
	traineeID, err := traineeIDForScope(c)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	rows, err := sh.supervisionService.ListObservations(c.Request.Context(), traineeID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"observations": rows})
}

// traineeIDForScope resolves which trainee's records to list: trainees see
// their own, supervisors and admins pass ?trainee_id.
func traineeIDForScope(c *gin.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	raw := c.Query("trainee_id")
	if raw == "" {
		return rd.UserID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierr.Validation("invalid trainee_id %q", raw)
	}
	return id, nil
}
