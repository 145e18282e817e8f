package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videomcq/models"
	"videomcq/utils"
)

// SaveTranscript godoc
// @Summary Replace a transcript
// @Tags transcripts
// @Accept json
// @Produce json
// @Param transcript body models.Transcript true "Transcript"
// @Success 200 {object} utils.SuccessResponse{data=models.Transcript}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /transcripts [post]
func (h *ApplicationHandler) SaveTranscript(c *fiber.Ctx) error {
	var t models.Transcript
	if err := c.BodyParser(&t); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse transcript JSON: "+err.Error())
	}
	if err := h.validate.Struct(t); err != nil {
		return utils.RespondWithValidationError(c, err)
	}
	if err := h.Store.SaveTranscript(c.UserContext(), t.VideoID, t.Segments); err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, t)
}

// GetTranscript godoc
// @Summary Get a transcript
// @Tags transcripts
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} utils.SuccessResponse{data=[]models.TranscriptSegment}
// @Router /transcripts/{videoId} [get]
func (h *ApplicationHandler) GetTranscript(c *fiber.Ctx) error {
	segs, err := h.Store.GetTranscript(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.respondWithStoreError(c, err, "Transcript")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, segs)
}
