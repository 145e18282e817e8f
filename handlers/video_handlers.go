package handlers

import (
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"videomcq/internal/pipeline"
	"videomcq/models"
	"videomcq/utils"
)

// CreateVideo godoc
// @Summary Create or replace a video record
// @Tags videos
// @Accept json
// @Produce json
// @Param video body models.Video true "Video record"
// @Success 201 {object} utils.SuccessResponse{data=models.Video}
// @Failure 400 {object} utils.ErrorResponse
// @Router /videos [post]
func (h *ApplicationHandler) CreateVideo(c *fiber.Ctx) error {
	var v models.Video
	if err := c.BodyParser(&v); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse video JSON: "+err.Error())
	}
	if err := h.validate.Struct(v); err != nil {
		return utils.RespondWithValidationError(c, err)
	}
	if v.Status == "" {
		v.Status = models.VideoStatusUploaded
	}
	if !v.Status.IsValid() {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid status "+string(v.Status))
	}
	if v.UploadedAt.IsZero() {
		v.UploadedAt = time.Now().UTC()
	}
	if err := h.Store.SaveVideo(c.UserContext(), v); err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, v)
}

// ListVideos godoc
// @Summary List videos
// @Description Newest upload first, with transcript and question counts.
// @Tags videos
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.VideoSummary}
// @Router /videos [get]
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.Store.ListVideos(c.UserContext())
	if err != nil {
		return h.respondWithStoreError(c, err, "Videos")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, videos)
}

// GetVideo godoc
// @Summary Get a video
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Video}
// @Failure 404 {object} utils.ErrorResponse
// @Router /videos/{videoId} [get]
func (h *ApplicationHandler) GetVideo(c *fiber.Ctx) error {
	v, err := h.Store.GetVideo(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, v)
}

// GetVideoFile streams the stored video file.
func (h *ApplicationHandler) GetVideoFile(c *fiber.Ctx) error {
	v, err := h.Store.GetVideo(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	if _, err := os.Stat(v.Filepath); err != nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Video file not found")
	}
	return c.SendFile(v.Filepath)
}

// DeleteVideo godoc
// @Summary Delete a video
// @Description Removes the record, its transcript, its questions and the stored file.
// @Tags videos
// @Param videoId path string true "Video ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /videos/{videoId} [delete]
func (h *ApplicationHandler) DeleteVideo(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("videoId")
	v, err := h.Store.GetVideo(ctx, id)
	if err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	if err := h.Store.DeleteVideo(ctx, id); err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}

	log := h.Logger.WithField("video_id", id)
	if v.Filepath != "" {
		if err := os.Remove(v.Filepath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("Could not remove video file")
		}
	}
	if h.Objects != nil {
		if err := h.Objects.RemoveObject(ctx, pipeline.ObjectPath(v)); err != nil {
			log.WithError(err).Warn("Could not remove stored object")
		}
	}
	log.Info("Video deleted")
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"id": id})
}
