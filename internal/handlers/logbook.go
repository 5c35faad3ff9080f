package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type LogbookHandler struct {
	logbookService services.LogbookService
}

func NewLogbookHandler(logbookService services.LogbookService) *LogbookHandler {
	return &LogbookHandler{logbookService: logbookService}
}

func (lh *LogbookHandler) OpenWeek(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	day := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
			return
		}
		day = parsed
	}
	row, err := lh.logbookService.OpenWeek(c.Request.Context(), rd.UserID, day)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	logbookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.GetByID(c.Request.Context(), rd.UserID, logbookID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) List(c *gin.Context) {
	traineeID, err := traineeIDForScope(c)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	rows, err := lh.logbookService.ListForTrainee(c.Request.Context(), traineeID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"logbooks": rows})
}

func (lh *LogbookHandler) AddEntry(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	logbookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req services.LogbookEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.AddEntry(c.Request.Context(), rd.UserID, logbookID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (lh *LogbookHandler) UpdateEntry(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("entryID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req services.LogbookEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.UpdateEntry(c.Request.Context(), rd.UserID, entryID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) RemoveEntry(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	entryID, err := uuid.Parse(c.Param("entryID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := lh.logbookService.RemoveEntry(c.Request.Context(), rd.UserID, entryID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// transitionRequest carries the status the client last saw; transitions fail
// with a conflict when the stored row has moved on.
type transitionRequest struct {
	ExpectedStatus string `json:"expected_status"`
}

func (lh *LogbookHandler) Submit(c *gin.Context) {
	lh.transition(c, lh.logbookService.Submit)
}

func (lh *LogbookHandler) StartReview(c *gin.Context) {
	lh.transition(c, lh.logbookService.StartReview)
}

func (lh *LogbookHandler) Approve(c *gin.Context) {
	lh.transition(c, lh.logbookService.Approve)
}

func (lh *LogbookHandler) Reject(c *gin.Context) {
	lh.transition(c, lh.logbookService.Reject)
}

func (lh *LogbookHandler) Resubmit(c *gin.Context) {
	lh.transition(c, lh.logbookService.Resubmit)
}

func (lh *LogbookHandler) Lock(c *gin.Context) {
	lh.transition(c, lh.logbookService.Lock)
}

func (lh *LogbookHandler) transition(c *gin.Context, apply func(ctx context.Context, actorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)) {
	rd := requestdata.GetRequestData(c.Request.Context())
	logbookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := apply(c.Request.Context(), rd.UserID, logbookID, req.ExpectedStatus)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) RequestChanges(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	logbookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req struct {
		ExpectedStatus string                        `json:"expected_status"`
		Requests       []services.ChangeRequestInput `json:"requests"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.RequestChanges(c.Request.Context(), rd.UserID, logbookID, req.ExpectedStatus, req.Requests)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) ListReviewRequests(c *gin.Context) {
	logbookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	rows, err := lh.logbookService.ListReviewRequests(c.Request.Context(), logbookID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"requests": rows})
}

func (lh *LogbookHandler) RespondToReviewRequest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	requestID, err := uuid.Parse(c.Param("requestID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req struct {
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.RespondToReviewRequest(c.Request.Context(), rd.UserID, requestID, req.Response)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) CompleteReviewRequest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	requestID, err := uuid.Parse(c.Param("requestID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.CompleteReviewRequest(c.Request.Context(), rd.UserID, requestID, req.Notes)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LogbookHandler) DismissReviewRequest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	requestID, err := uuid.Parse(c.Param("requestID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	row, err := lh.logbookService.DismissReviewRequest(c.Request.Context(), rd.UserID, requestID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}
