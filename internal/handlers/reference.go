package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/practicetrack/practicetrack-backend/internal/services"
)

type ReferenceHandler struct {
	referenceService services.ReferenceService
}

func NewReferenceHandler(referenceService services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

func (rh *ReferenceHandler) ListCompetencies(c *gin.Context) {
	rows, err := rh.referenceService.ListCompetencies(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"competencies": rows})
}

func (rh *ReferenceHandler) GetCompetency(c *gin.Context) {
	row, err := rh.referenceService.GetCompetency(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, row)
}

func (rh *ReferenceHandler) ListEPAs(c *gin.Context) {
	rows, err := rh.referenceService.ListEPAs(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"epas": rows})
}
