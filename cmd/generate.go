package cmd

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <video-id>",
	Short: "Generate questions for a stored transcript and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	qs, err := d.pipe.GenerateMCQs(ctx, args[0], progressCallbacks(cmd))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(qs)
}
