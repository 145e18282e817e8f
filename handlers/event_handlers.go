package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"videomcq/internal/events"
	"videomcq/models"
	"videomcq/utils"
)

// KeepAlive is the interval of SSE comment lines on an idle stream.
var KeepAlive = 15 * time.Second

// StreamEvents godoc
// @Summary Stream progress events
// @Description Server-sent events for one video. The first event is the current state; the
// @Description stream ends after a completed or error state.
// @Tags events
// @Produce text/event-stream
// @Param videoId path string true "Video ID"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} utils.ErrorResponse
// @Router /videos/{videoId}/events [get]
func (h *ApplicationHandler) StreamEvents(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	v, err := h.Store.GetVideo(c.UserContext(), videoID)
	if err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}

	// The stream writer outlives the handler, so it gets its own context.
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.Bus.Subscribe(ctx, videoID)
	if err != nil {
		cancel()
		h.Logger.WithError(err).WithField("video_id", videoID).Error("Could not subscribe to events")
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Event stream unavailable")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.Logger.WithField("video_id", videoID)
	snapshot := events.State(videoID, stageOf(v.Status), v.Status, "")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		if err := writeEvent(w, snapshot); err != nil || snapshot.Terminal() {
			return
		}
		ticker := time.NewTicker(KeepAlive)
		defer ticker.Stop()
		for {
			select {
			case e, ok := <-sub:
				if !ok {
					return
				}
				if err := writeEvent(w, e); err != nil {
					log.WithError(err).Debug("Event client went away")
					return
				}
				if e.Terminal() {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data); err != nil {
		return err
	}
	return w.Flush()
}

// stageOf maps a stored status to the stage reported in the first event.
func stageOf(s models.VideoStatus) models.Stage {
	switch s {
	case models.VideoStatusCompleted:
		return models.StageCompleted
	case models.VideoStatusProcessing:
		return models.StageTranscription
	}
	return models.StageUpload
}
