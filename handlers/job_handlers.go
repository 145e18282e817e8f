package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videomcq/models"
	"videomcq/utils"
)

// StartTranscription godoc
// @Summary Start transcript generation
// @Description Queues a transcription job. Progress is streamed on /videos/{videoId}/events.
// @Tags jobs
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 202 {object} utils.SuccessResponse{data=models.ProcessingJob}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /videos/{videoId}/transcribe [post]
func (h *ApplicationHandler) StartTranscription(c *fiber.Ctx) error {
	return h.submit(c, models.JobTypeTranscribe)
}

// StartMCQGeneration godoc
// @Summary Start question generation
// @Description Queues a question generation job over the stored transcript.
// @Tags jobs
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 202 {object} utils.SuccessResponse{data=models.ProcessingJob}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /videos/{videoId}/mcqs/generate [post]
func (h *ApplicationHandler) StartMCQGeneration(c *fiber.Ctx) error {
	ctx := c.UserContext()
	videoID := c.Params("videoId")
	segs, err := h.Store.GetTranscript(ctx, videoID)
	if err != nil {
		return h.respondWithStoreError(c, err, "Transcript")
	}
	if len(segs) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No transcript available, generate the transcript first")
	}
	return h.submit(c, models.JobTypeMCQ)
}

// StartProcessing godoc
// @Summary Run the full pipeline
// @Description Queues transcription followed by question generation.
// @Tags jobs
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 202 {object} utils.SuccessResponse{data=models.ProcessingJob}
// @Router /videos/{videoId}/process [post]
func (h *ApplicationHandler) StartProcessing(c *fiber.Ctx) error {
	return h.submit(c, models.JobTypeProcess)
}

func (h *ApplicationHandler) submit(c *fiber.Ctx, jobType models.JobType) error {
	ctx := c.UserContext()
	videoID := c.Params("videoId")
	if _, err := h.Store.GetVideo(ctx, videoID); err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	job, err := h.Jobs.Submit(ctx, videoID, jobType)
	if err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	h.Logger.WithField("job_id", job.ID).WithField("video_id", videoID).WithField("job_type", jobType).Info("Job queued")
	return utils.RespondWithJSON(c, fiber.StatusAccepted, job)
}

// GetJobStatus godoc
// @Summary Get a processing job
// @Tags jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} utils.SuccessResponse{data=models.ProcessingJob}
// @Failure 404 {object} utils.ErrorResponse
// @Router /jobs/{jobId} [get]
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	job, err := h.Jobs.Get(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return h.respondWithStoreError(c, err, "Job")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}
