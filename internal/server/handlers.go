package server

import (
	"errors"
	"net/http"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/repository"
	"github.com/gin-gonic/gin"
)

var validationErrors = []error{
	note.ErrInvalidType,
	note.ErrEmptyContent,
	note.ErrContentTooLong,
	note.ErrInvalidPage,
	note.ErrMissingDocument,
	note.ErrNotEditable,
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	if errors.Is(err, repository.ErrNotFound) {
		return http.StatusNotFound
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("note request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes the body, reporting an oversized body as 413.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, err)
			return false
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return false
	}

	return true
}

type listResponse struct {
	Notes []note.Note `json:"notes"`
}

func (s *Server) handleListNotes(c *gin.Context) {
	items, err := s.repo.List(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		s.fail(c, err)
		return
	}

	if items == nil {
		items = []note.Note{}
	}

	c.JSON(http.StatusOK, listResponse{Notes: items})
}

func (s *Server) handleCreateNote(c *gin.Context) {
	var draft note.Draft
	if !s.bindJSON(c, &draft) {
		return
	}

	if err := draft.Validate(); err != nil {
		s.fail(c, err)
		return
	}

	created, err := s.repo.Create(c.Request.Context(), draft)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.NotesCreated.WithLabelValues(string(created.Type)).Inc()
	s.metrics.NoteSize.WithLabelValues(string(created.Type)).Observe(float64(len(created.Content)))
	s.logger.Info("note created", "id", created.ID, "type", created.Type, "documentId", created.DocumentID)

	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	var patch note.Patch
	if !s.bindJSON(c, &patch) {
		return
	}

	if err := s.repo.Update(c.Request.Context(), c.Param("id"), patch); err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.NotesUpdated.Inc()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	if err := s.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.NotesDeleted.Inc()
	c.Status(http.StatusNoContent)
}
