package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// handleRoomQR serves the room's join link as a PNG.
func (s *Server) handleRoomQR(c *gin.Context) {
	room, err := s.loadRoom(c.Request.Context(), roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := qrcode.Encode(s.joinURL(room), qrcode.Medium, qrSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
