package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"videomcq/internal/jobs"
	"videomcq/internal/pipeline"
	"videomcq/internal/store"
	"videomcq/models"
	"videomcq/utils"
)

// respondWithStoreError maps domain errors to HTTP statuses. what names the
// addressed resource in the not-found message.
func (h *ApplicationHandler) respondWithStoreError(c *fiber.Ctx, err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return utils.RespondWithError(c, fiber.StatusNotFound, what+" not found")
	case errors.Is(err, pipeline.ErrNoTranscript):
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrEmptyQuestion),
		errors.Is(err, models.ErrTooFewOptions),
		errors.Is(err, models.ErrAnswerOutOfBounds):
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrStopped):
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, err.Error())
	}
	h.Logger.WithError(err).WithField("path", c.Path()).Error("Request failed")
	return utils.RespondWithError(c, fiber.StatusInternalServerError, "Internal server error")
}
