// Package cmd implements the videomcq command line.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"videomcq/config"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "videomcq",
	Short: "Turn uploaded videos into transcripts and multiple-choice questions",
	Long: `videomcq accepts video uploads, streams them to a transcription service,
groups the transcript into one-minute segments and asks a language model for
one multiple-choice question per segment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Server.LogLevel = logLevel
		}
		cfg = loaded
		logger = config.NewLogger(cfg.Server.LogLevel)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}
