package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "videomcq/docs"
	"videomcq/internal/observe"
	"videomcq/middleware"
	"videomcq/utils"
)

// AppConfig configures the fiber application.
type AppConfig struct {
	BodyLimitMB int
	CORSOrigins string
	// MetricsEnabled serves the Prometheus registry on /metrics.
	MetricsEnabled bool
	Metrics        *observe.Metrics
}

// NewApp builds the fiber application with every route registered.
func NewApp(h *ApplicationHandler, cfg AppConfig) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 500
	}
	app := fiber.New(fiber.Config{
		AppName:      "videomcq",
		BodyLimit:    bodyLimit << 20,
		ErrorHandler: errorHandler,
	})

	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestLogger(h.Logger, cfg.Metrics))

	app.Get("/health", h.Health)
	app.Get("/swagger/*", fiberSwagger.WrapHandler)
	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := app.Group("/api")
	api.Post("/upload", h.UploadVideo)

	api.Post("/videos", h.CreateVideo)
	api.Get("/videos", h.ListVideos)
	api.Get("/videos/:videoId", h.GetVideo)
	api.Get("/videos/:videoId/file", h.GetVideoFile)
	api.Delete("/videos/:videoId", h.DeleteVideo)
	api.Post("/videos/:videoId/transcribe", h.StartTranscription)
	api.Post("/videos/:videoId/mcqs/generate", h.StartMCQGeneration)
	api.Post("/videos/:videoId/process", h.StartProcessing)
	api.Get("/videos/:videoId/events", h.StreamEvents)

	api.Post("/transcripts", h.SaveTranscript)
	api.Get("/transcripts/:videoId", h.GetTranscript)

	api.Post("/mcqs", h.SaveMCQs)
	api.Get("/mcqs/:videoId/export", h.ExportMCQs)
	api.Get("/mcqs/:videoId", h.ListMCQs)
	api.Put("/mcqs/:questionId", h.UpdateMCQ)
	api.Delete("/mcqs/:questionId", h.DeleteMCQ)

	api.Get("/jobs/:jobId", h.GetJobStatus)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return utils.RespondWithError(c, code, msg)
}
