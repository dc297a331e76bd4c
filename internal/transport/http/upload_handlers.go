package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/images"
)

// maxUploadBytes caps uploaded image size.
const maxUploadBytes = 5 << 20

// UploadHandlers provides the image upload endpoint.
type UploadHandlers struct {
	images *images.Service
	log    *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(svc *images.Service, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{images: svc, log: logger}
}

// Upload accepts a multipart image, normalizes it and stores it.
// POST /api/upload
func (h *UploadHandlers) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no file uploaded"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file too large"})
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "only images are allowed"})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("open upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process image"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.log.Error().Err(err).Msg("read upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process image"})
		return
	}

	stored, err := h.images.Process(c.Request.Context(), data)
	if err != nil {
		h.log.Error().Err(err).Msg("process upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process image"})
		return
	}

	h.log.Info().Str("image_id", stored.ID).Msg("image uploaded")
	c.JSON(http.StatusCreated, stored)
}
