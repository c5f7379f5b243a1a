package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pkthom/japanese-conjugation-search/internal/http/middleware"
)

// errorPayload defines the standardized API error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_LIMIT", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// renderErrorPage renders the HTML error template for page routes. If the
// template itself fails to render, a minimal inline page is sent instead so
// the client always gets a real response.
func renderErrorPage(c *fiber.Ctx, status int, message string) error {
	if err := c.Status(status).Render("error", fiber.Map{"Message": message}); err != nil {
		return c.Status(status).Type("html").
			SendString("<h1>Error</h1><p>" + message + `</p><p><a href="/">Back to top</a></p>`)
	}
	return nil
}

// isAPIPath reports whether the request targets the JSON API surface.
func isAPIPath(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/admin/")
}

// ErrorHandler returns a Fiber global error handler. API routes get the JSON
// envelope; page routes get the rendered error template.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		if isAPIPath(c) {
			switch status {
			case fiber.StatusBadRequest:
				return writeError(c, status, "BAD_REQUEST", "bad request")
			case fiber.StatusUnauthorized:
				return writeError(c, status, "UNAUTHORIZED", "unauthorized")
			case fiber.StatusNotFound:
				return writeError(c, status, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
			default:
				return writeError(c, status, "INTERNAL_ERROR", "internal server error")
			}
		}

		switch status {
		case fiber.StatusNotFound:
			return renderErrorPage(c, status, "Page not found")
		default:
			return renderErrorPage(c, status, "An error occurred while processing the request")
		}
	}
}
