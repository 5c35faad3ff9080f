package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/practicetrack/practicetrack-backend/internal/requestdata"
	"github.com/practicetrack/practicetrack-backend/internal/sse"
)

type SSEHandler struct {
	hub *sse.SSEHub
}

func NewSSEHandler(hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream subscribes the caller to their own channel and holds the connection
// open until the client disconnects.
func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	client := sh.hub.NewSSEClient(rd.UserID)
	sh.hub.AddChannel(client, rd.UserID.String())
	defer sh.hub.CloseClient(client)

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
