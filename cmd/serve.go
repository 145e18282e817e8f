package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"videomcq/handlers"
	"videomcq/internal/healthz"
	"videomcq/internal/jobs"
	"videomcq/internal/observe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health service",
	Long: `Serve the REST API, the progress event stream and the gRPC health service.
With the local queue driver generation jobs run in this process; with the
redis driver they are left to "videomcq worker".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	runner := jobs.NewRunner(d.store, d.pipe, logger)
	queue, dispatcher, err := newQueue(d, runner)
	if err != nil {
		return err
	}
	if dispatcher != nil {
		dispatcher.Run(ctx)
		defer dispatcher.Stop()
	}

	checker := healthz.NewChecker(d.store, cfg.Telemetry.HealthInterval, logger)
	h := handlers.NewApplicationHandler(d.store, d.pipe, jobs.NewService(d.store, queue, logger), d.bus, logger)
	h.HealthChecker = checker
	h.UploadDir = cfg.Server.UploadDir
	h.MaxUploadBytes = int64(cfg.Server.BodyLimitMB) << 20
	h.Services = map[string]string{
		"transcription": cfg.Transcription.Endpoint,
		"generation":    cfg.Generation.Endpoint,
		"store":         cfg.Store.Driver,
		"queue":         cfg.Queue.Driver,
	}
	app := handlers.NewApp(h, handlers.AppConfig{
		BodyLimitMB:    cfg.Server.BodyLimitMB,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
		Metrics:        d.metrics,
	})

	grpcServer := grpc.NewServer()
	checker.Register(grpcServer)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.Server.HTTPAddr).Info("HTTP server listening")
		return app.Listen(cfg.Server.HTTPAddr)
	})
	if cfg.Server.GRPCAddr != "" {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			logger.WithField("addr", cfg.Server.GRPCAddr).Info("gRPC health service listening")
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		checker.Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		grpcServer.GracefulStop()
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	return g.Wait()
}
