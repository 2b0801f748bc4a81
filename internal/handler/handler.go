package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipcheck/internal/domain"
	"shipcheck/internal/preview"
	"shipcheck/internal/service"
	"shipcheck/internal/upload"
)

// PreviewSource serves previews kept in process. It is nil when previews
// live in object storage.
type PreviewSource interface {
	Get(id string) (preview.Object, bool)
}

type Handler struct {
	sessions  service.SessionService
	previews  PreviewSource
	maxUpload int64
	log       *zap.Logger
}

func NewHandler(sessions service.SessionService, previews PreviewSource, maxUpload int64, log *zap.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		previews:  previews,
		maxUpload: maxUpload,
		log:       log,
	}
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	sess := h.sessions.Create(c.Request.Context())
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SelectImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	// Oversized uploads are still parsed so they can be reported as too
	// large, but a body far beyond the limit is cut off.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 4*h.maxUpload)

	file, err := c.FormFile("image")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			// The file is at least as large as the cut-off, which is enough
			// for the session to reject it like any other oversized image.
			h.selectFile(c, sess, domain.Candidate{Size: mbe.Limit + 1})
			return
		}
		h.log.Error("Failed to get file from form", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Filename))
	}

	candidate := domain.Candidate{
		Name:      file.Filename,
		MediaType: contentType,
		Size:      file.Size,
	}

	// Content is only needed for images that can pass validation.
	if file.Size <= h.maxUpload {
		f, err := file.Open()
		if err != nil {
			h.log.Error("Failed to open file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file"})
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
		if err != nil {
			h.log.Error("Failed to read file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
			return
		}
		candidate.Content = data
		candidate.Size = int64(len(data))
	}

	h.selectFile(c, sess, candidate)
}

func (h *Handler) selectFile(c *gin.Context, sess *upload.Session, candidate domain.Candidate) {
	if err := sess.SelectFile(c.Request.Context(), candidate); err != nil {
		if errors.Is(err, upload.ErrSessionClosed) {
			c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
			return
		}
		status := http.StatusUnprocessableEntity
		if _, ok := domain.KindOf(err); !ok {
			status = http.StatusInternalServerError
		}
		snap := sess.Snapshot()
		c.JSON(status, gin.H{"error": snap.Error, "session": snap})
		return
	}

	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) ClearImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) SetLanguage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language is required"})
		return
	}

	if err := sess.SetLanguage(req.Language); err != nil {
		if errors.Is(err, upload.ErrSessionClosed) {
			c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language"})
		return
	}

	c.JSON(http.StatusOK, sess.Snapshot())
}

// Submit starts classification and answers once it settles. If the caller
// goes away first the submission keeps running and its outcome can be read
// with GetSession.
func (h *Handler) Submit(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	fut, err := sess.Submit(c.Request.Context())
	switch {
	case errors.Is(err, upload.ErrNoCandidate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image selected"})
		return
	case errors.Is(err, upload.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Analysis already in progress", "session": sess.Snapshot()})
		return
	case errors.Is(err, upload.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
		return
	case err != nil:
		h.log.Error("Failed to submit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit image"})
		return
	}

	if _, err := fut.Wait(c.Request.Context()); errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusAccepted, sess.Snapshot())
		return
	}

	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) GetPreview(c *gin.Context) {
	if h.previews == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
		return
	}
	obj, ok := h.previews.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
		return
	}
	// Previews that could not be re-encoded are the user's bytes as
	// uploaded; they must never run as a document on this origin.
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	if obj.ContentType != "image/jpeg" {
		c.Header("Content-Disposition", "attachment")
	}
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) GetUI(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"MaxSizeMB": h.maxUpload / (1024 * 1024),
	})
}

func (h *Handler) session(c *gin.Context) (*upload.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return sess, true
}
