package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videomcq/models"
	"videomcq/utils"
)

// SaveMCQsRequest appends questions to a video.
type SaveMCQsRequest struct {
	VideoID   string               `json:"videoId" validate:"required"`
	Questions []models.MCQQuestion `json:"questions" validate:"required"`
}

// SaveMCQs godoc
// @Summary Append questions
// @Description Questions without an id get one.
// @Tags mcqs
// @Accept json
// @Produce json
// @Param request body SaveMCQsRequest true "Questions"
// @Success 201 {object} utils.SuccessResponse{data=[]models.MCQQuestion}
// @Failure 400 {object} utils.ErrorResponse
// @Router /mcqs [post]
func (h *ApplicationHandler) SaveMCQs(c *fiber.Ctx) error {
	var req SaveMCQsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse questions JSON: "+err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.RespondWithValidationError(c, err)
	}
	for i := range req.Questions {
		q := &req.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := q.Validate(); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("questions[%d]: %v", i, err))
		}
	}
	if err := h.Store.SaveMCQs(c.UserContext(), req.VideoID, req.Questions); err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, req.Questions)
}

// ListMCQs godoc
// @Summary List a video's questions
// @Tags mcqs
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} utils.SuccessResponse{data=[]models.MCQQuestion}
// @Router /mcqs/{videoId} [get]
func (h *ApplicationHandler) ListMCQs(c *fiber.Ctx) error {
	qs, err := h.Store.ListMCQs(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.respondWithStoreError(c, err, "Questions")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, qs)
}

// UpdateMCQ godoc
// @Summary Edit a question
// @Description Merges the given fields into the stored question.
// @Tags mcqs
// @Accept json
// @Produce json
// @Param questionId path string true "Question ID"
// @Param patch body models.MCQPatch true "Fields to change"
// @Success 200 {object} utils.SuccessResponse{data=models.MCQQuestion}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /mcqs/{questionId} [put]
func (h *ApplicationHandler) UpdateMCQ(c *fiber.Ctx) error {
	var patch models.MCQPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse question JSON: "+err.Error())
	}
	if patch.IsEmpty() {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No fields to update")
	}
	if err := h.validate.Struct(patch); err != nil {
		return utils.RespondWithValidationError(c, err)
	}
	q, err := h.Store.UpdateMCQ(c.UserContext(), c.Params("questionId"), patch)
	if err != nil {
		return h.respondWithStoreError(c, err, "Question")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, q)
}

// DeleteMCQ godoc
// @Summary Delete a question
// @Tags mcqs
// @Param questionId path string true "Question ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /mcqs/{questionId} [delete]
func (h *ApplicationHandler) DeleteMCQ(c *fiber.Ctx) error {
	id := c.Params("questionId")
	if err := h.Store.DeleteMCQ(c.UserContext(), id); err != nil {
		return h.respondWithStoreError(c, err, "Question")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"id": id})
}
