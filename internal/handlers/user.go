package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/services"
)

const maxAvatarUploadBytes = 5 << 20

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) Me(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	user, err := uh.userService.GetByID(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	user, err := uh.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) ListByRole(c *gin.Context) {
	rows, err := uh.userService.ListByRole(c.Request.Context(), c.Query("role"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"users": rows})
}

func (uh *UserHandler) UpdateName(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	user, err := uh.userService.UpdateName(c.Request.Context(), rd.UserID, req.FullName)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateAhpraNumber(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		AhpraNumber string `json:"ahpra_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	user, err := uh.userService.UpdateAhpraNumber(c.Request.Context(), rd.UserID, req.AhpraNumber)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateAvatarColor(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		ColorHex string `json:"color_hex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	user, err := uh.userService.UpdateAvatarColor(c.Request.Context(), rd.UserID, req.ColorHex)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxAvatarUploadBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	user, err := uh.userService.UploadAvatarImage(c.Request.Context(), rd.UserID, raw)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, user)
}
