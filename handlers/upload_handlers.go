package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videomcq/internal/pipeline"
	"videomcq/utils"
)

// AllowedVideoTypes is the upload mime allow-list.
var AllowedVideoTypes = map[string]bool{
	"video/mp4":        true,
	"video/avi":        true,
	"video/mov":        true,
	"video/quicktime":  true,
	"video/mkv":        true,
	"video/x-matroska": true,
	"video/webm":       true,
}

// UploadVideo godoc
// @Summary Upload a video
// @Description Stores the multipart field "video" and registers it with status uploaded.
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file"
// @Success 201 {object} utils.SuccessResponse{data=models.Video}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Router /upload [post]
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	file, err := c.FormFile("video")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No video file provided")
	}
	contentType := file.Header.Get("Content-Type")
	if !AllowedVideoTypes[contentType] {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Invalid file type %q, only video files are allowed", contentType))
	}
	if h.MaxUploadBytes > 0 && file.Size > h.MaxUploadBytes {
		return utils.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB limit", h.MaxUploadBytes>>20))
	}
	filename := utils.SanitizeFilename(file.Filename)
	if filename == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Missing file name")
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		h.Logger.WithError(err).Error("Could not create upload directory")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not store upload")
	}
	id := uuid.NewString()
	path := filepath.Join(h.UploadDir, id+filepath.Ext(filename))
	if err := c.SaveFile(file, path); err != nil {
		h.Logger.WithError(err).WithField("path", path).Error("Error saving uploaded file")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not store upload")
	}

	video, err := h.Pipeline.Ingest(c.UserContext(), pipeline.Upload{
		ID:        id,
		Filename:  filename,
		Path:      path,
		SizeBytes: file.Size,
	})
	if err != nil {
		os.Remove(path)
		return h.respondWithStoreError(c, err, "Video")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, video)
}
