package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"videomcq/internal/jobs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run queued generation jobs from Redis",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	if cfg.Queue.Driver != "redis" {
		return fmt.Errorf("worker needs queue.driver redis, got %q", cfg.Queue.Driver)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	runner := jobs.NewRunner(d.store, d.pipe, logger)
	dispatcher := jobs.NewDispatcher(cfg.Queue.Workers, cfg.Queue.Workers, logger)
	dispatcher.Run(ctx)
	defer dispatcher.Stop()

	queue := jobs.NewRedisQueue(d.redis, cfg.Queue.Key, int64(cfg.Queue.Size), logger)
	logger.WithField("key", cfg.Queue.Key).Info("Worker consuming jobs")
	return queue.Consume(ctx, dispatcher, runner)
}
