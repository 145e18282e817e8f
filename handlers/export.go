package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"videomcq/models"
	"videomcq/utils"
)

// ExportMCQs godoc
// @Summary Export a video's questions
// @Tags mcqs
// @Produce json,text/csv,text/plain
// @Param videoId path string true "Video ID"
// @Param format query string false "json, csv or txt" default(json)
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponse
// @Router /mcqs/{videoId}/export [get]
func (h *ApplicationHandler) ExportMCQs(c *fiber.Ctx) error {
	ctx := c.UserContext()
	videoID := c.Params("videoId")
	if _, err := h.Store.GetVideo(ctx, videoID); err != nil {
		return h.respondWithStoreError(c, err, "Video")
	}
	qs, err := h.Store.ListMCQs(ctx, videoID)
	if err != nil {
		return h.respondWithStoreError(c, err, "Questions")
	}

	format := strings.ToLower(c.Query("format", "json"))
	base := "mcq-questions-" + videoID
	switch format {
	case "json":
		c.Attachment(base + ".json")
		return c.JSON(qs)
	case "csv":
		c.Attachment(base + ".csv")
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return writeCSV(c.Response().BodyWriter(), qs)
	case "txt":
		c.Attachment(base + ".txt")
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return writeText(c.Response().BodyWriter(), qs)
	}
	return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Unsupported export format %q", format))
}

func optionLetter(i int) string {
	return string(rune('A' + i))
}

// writeCSV writes one row per question. Options are joined with " | ".
func writeCSV(w io.Writer, qs []models.MCQQuestion) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"number", "question", "options", "correct_answer", "explanation", "segment_id"})
	for i, q := range qs {
		cw.Write([]string{
			strconv.Itoa(i + 1),
			q.Question,
			strings.Join(q.Options, " | "),
			optionLetter(q.CorrectAnswer),
			q.Explanation,
			q.SegmentID,
		})
	}
	cw.Flush()
	return cw.Error()
}

// writeText renders the questions followed by an answer key.
func writeText(w io.Writer, qs []models.MCQQuestion) error {
	var b strings.Builder
	b.WriteString("MCQ Questions\n\n")
	for i, q := range qs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "   %s. %s\n", optionLetter(j), opt)
		}
		b.WriteString("\n")
	}
	b.WriteString("Answer Key\n\n")
	for i, q := range qs {
		fmt.Fprintf(&b, "%d. Correct Answer: %s\n", i+1, optionLetter(q.CorrectAnswer))
		if q.Explanation != "" {
			fmt.Fprintf(&b, "   Explanation: %s\n", q.Explanation)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
