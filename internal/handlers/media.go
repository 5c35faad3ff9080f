package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/media"
)

type MediaHandler struct {
	store media.Store
}

func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// Serve returns a stored media object by its key. Avatars are the only
// writers today, so everything is served as PNG unless the key says
// otherwise.
func (mh *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, err := mh.store.Open(key)
	if err != nil {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, err)
		return
	}
	contentType := "application/octet-stream"
	if strings.HasSuffix(key, ".png") {
		contentType = "image/png"
	}
	c.Data(http.StatusOK, contentType, data)
}
