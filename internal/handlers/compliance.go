package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/services"
)

type ComplianceHandler struct {
	complianceService services.ComplianceService
}

func NewComplianceHandler(complianceService services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceService: complianceService}
}

// GetReport returns the stored report, computing it on first request.
func (ch *ComplianceHandler) GetReport(c *gin.Context) {
	traineeID, err := traineeIDForScope(c)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	report, err := ch.complianceService.GetReport(c.Request.Context(), nil, traineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			report, err = ch.complianceService.Recalculate(c.Request.Context(), nil, traineeID)
			if err != nil {
				RespondAPIError(c, err)
				return
			}
			RespondOK(c, report)
			return
		}
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, report)
}

func (ch *ComplianceHandler) Recalculate(c *gin.Context) {
	traineeID, err := traineeIDForScope(c)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	report, err := ch.complianceService.Recalculate(c.Request.Context(), nil, traineeID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, report)
}
