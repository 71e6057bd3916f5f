package utils

import (
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
)

// NormalizeEmail lowercases and trims an email address. Applied at
// every write and lookup so matching works identically across database
// engines.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ErrorResponse creates a standardized error response. Unexpected
// server-side failures are additionally reported to Sentry.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"message": message,
	}
	if err != nil {
		response["error"] = err.Error()
	}
	if status >= fiber.StatusInternalServerError && err != nil {
		sentry.CaptureException(err)
	}
	return c.Status(status).JSON(response)
}

// NotFoundOrUnauthorized reports a missing resource and a denied one
// identically so callers cannot probe for existence.
func NotFoundOrUnauthorized(c *fiber.Ctx, resource string) error {
	return ErrorResponse(c, fiber.StatusNotFound, resource+" not found or unauthorized", nil)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
