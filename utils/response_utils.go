package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Status  string   `json:"status" example:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse is the envelope of every successful request.
type SuccessResponse struct {
	Status string      `json:"status" example:"success"`
	Data   interface{} `json:"data"`
}

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{Status: "error", Message: message})
}

// RespondWithValidationError sends a 400 listing every failed field.
func RespondWithValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Status:  "error",
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(SuccessResponse{Status: "success", Data: data})
}

// FormatValidationErrors formats validation errors from validator/v10.
// Errors of any other kind are returned as their message.
func FormatValidationErrors(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		out = append(out, element)
	}
	return out
}

// SanitizeFilename strips directories and surrounding whitespace from a
// client supplied file name.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
