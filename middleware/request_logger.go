package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videomcq/internal/observe"
)

// RequestIDKey is the fiber locals key holding the request id.
const RequestIDKey = "requestid"

// RequestLogger creates a middleware handler for structured request logging
// with logrus. Request latency is also recorded on metrics, which may be nil.
func RequestLogger(logger logrus.FieldLogger, metrics *observe.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(RequestIDKey, requestID)
		c.Set(fiber.HeaderXRequestID, requestID)

		err := c.Next()

		latency := time.Since(start)
		statusCode := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet.
			if fe, ok := err.(*fiber.Error); ok {
				statusCode = fe.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}
		metrics.RecordHTTPRequest(c.UserContext(), c.Method(), c.Route().Path, latency)

		logEntry := logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.IP(),
			"user_agent":  string(c.Request().Header.UserAgent()),
		})

		switch {
		case err != nil:
			logEntry.WithField("error", err.Error()).Error("Request processing failed")
		case statusCode >= 500:
			logEntry.Error("Request completed with server error")
		case statusCode >= 400:
			logEntry.Warn("Request completed with client error")
		default:
			logEntry.Info("Request completed successfully")
		}
		return err
	}
}
