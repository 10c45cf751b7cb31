package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse wraps payloads of admin endpoints.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed request. Error carries the
// status text, Message the reason.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type PaginatedResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{Success: true, Data: data})
}

// Fail writes an ErrorResponse with the given status.
func Fail(c *fiber.Ctx, status int, message string, details ...interface{}) error {
	resp := ErrorResponse{Error: http.StatusText(status), Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	return c.Status(status).JSON(resp)
}

// ValidationError reports per-field problems with a 400.
func ValidationError(c *fiber.Ctx, problems map[string]string) error {
	return Fail(c, fiber.StatusBadRequest, "Invalid input", problems)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusForbidden, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, message)
}

func Conflict(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusConflict, message)
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusInternalServerError, message)
}

// ErrorHandler is the fiber fallback for errors returned by handlers and
// middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return Fail(c, code, err.Error())
}
