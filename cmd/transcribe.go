package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"videomcq/internal/pipeline"
	"videomcq/models"
)

var (
	transcribeVideoID string
	withQuestions     bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <video-file>",
	Short: "Transcribe a video file and print its segments as JSON",
	Long: `Register a local video file with the configured store, stream it to the
transcription service and print the resulting segments. With --questions the
questions are generated as well and printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribeVideoID, "id", "", "video id (default: a new uuid)")
	transcribeCmd.Flags().BoolVar(&withQuestions, "questions", false, "also generate questions")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("file not found: %s", args[0])
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	id := transcribeVideoID
	if id == "" {
		id = uuid.NewString()
	}
	v, err := d.pipe.Ingest(ctx, pipeline.Upload{
		ID:        id,
		Filename:  filepath.Base(absPath),
		Path:      absPath,
		SizeBytes: info.Size(),
	})
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "video %s (%.0fs)\n", v.ID, v.Duration)

	cb := progressCallbacks(cmd)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if withQuestions {
		qs, err := d.pipe.Process(ctx, v.ID, cb)
		if err != nil {
			return err
		}
		return enc.Encode(qs)
	}
	segs, err := d.pipe.GenerateTranscript(ctx, v.ID, cb)
	if err != nil {
		return err
	}
	return enc.Encode(segs)
}

// progressCallbacks prints progress to stderr.
func progressCallbacks(cmd *cobra.Command) pipeline.Callbacks {
	w := cmd.ErrOrStderr()
	return pipeline.Callbacks{
		OnTranscriptProgress: func(segs []models.TranscriptSegment, p float64) {
			fmt.Fprintf(w, "transcript %5.1f%% (%d segments)\n", p, len(segs))
		},
		OnMCQProgress: func(current, total int) {
			fmt.Fprintf(w, "question %d/%d\n", current, total)
		},
		OnQuestion: func(q models.MCQQuestion) {
			fmt.Fprintf(w, "  %s\n", strings.TrimSpace(q.Question))
		},
	}
}
