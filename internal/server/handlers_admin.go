package server

import (
	"bytes"
	"crypto/subtle"
	"net/http"
	"strconv"

	"odai-party/internal/content"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const adminTokenHeader = "X-Admin-Token"

// requireAdmin gates content writes. With no token configured every write is refused.
func (s *Server) requireAdmin(c *gin.Context) {
	if s.cfg.AdminToken == "" {
		respondError(c, errAdminDisabled)
		return
	}
	provided := c.GetHeader(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.AdminToken)) != 1 {
		respondError(c, errAdminForbidden)
		return
	}
	c.Next()
}

func (s *Server) handleExportContent(c *gin.Context) {
	data := s.library.Snapshot()
	if data == nil {
		respondError(c, content.ErrNotLoaded)
		return
	}
	var buf bytes.Buffer
	if err := data.Encode(&buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="data.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (s *Server) handleImportContent(c *gin.Context) {
	data, err := content.Decode(c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.library.Replace(data); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int("initials", len(data.Initial)).Int("words", len(data.Words)).Msg("content replaced")
	s.respondContentSummary(c, http.StatusOK)
}

func (s *Server) handleAddWord(c *gin.Context) {
	var word content.Word
	if !bindJSON(c, &word, nil, "normal and not are required") {
		return
	}
	if err := s.library.AddWord(word); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("normal", word.Normal).Msg("word added")
	s.respondContentSummary(c, http.StatusCreated)
}

func (s *Server) handleUpdateWord(c *gin.Context) {
	index, ok := wordIndex(c)
	if !ok {
		return
	}
	var word content.Word
	if !bindJSON(c, &word, nil, "normal and not are required") {
		return
	}
	if err := s.library.UpdateWord(index, word); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int("index", index).Msg("word updated")
	s.respondContentSummary(c, http.StatusOK)
}

func (s *Server) handleDeleteWord(c *gin.Context) {
	index, ok := wordIndex(c)
	if !ok {
		return
	}
	if err := s.library.RemoveWord(index); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int("index", index).Msg("word deleted")
	s.respondContentSummary(c, http.StatusOK)
}

func (s *Server) respondContentSummary(c *gin.Context, status int) {
	data := s.library.Snapshot()
	if data == nil {
		respondError(c, content.ErrNotLoaded)
		return
	}
	c.JSON(status, gin.H{
		"initials": len(data.Initial),
		"words":    data.Words,
	})
}

func wordIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, content.ErrWordNotFound)
		return 0, false
	}
	return index, true
}
