package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponses(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"id": 7})
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return ValidationError(c, map[string]string{"email": "required"})
	})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return Conflict(c, "taken")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	tests := []struct {
		path   string
		status int
		want   map[string]interface{}
	}{
		{"/ok", 201, map[string]interface{}{"success": true, "data": map[string]interface{}{"id": float64(7)}}},
		{"/invalid", 400, map[string]interface{}{"success": false, "error": "Bad Request", "message": "Invalid input", "details": map[string]interface{}{"email": "required"}}},
		{"/conflict", 409, map[string]interface{}{"success": false, "error": "Conflict", "message": "taken"}},
		{"/boom", 418, map[string]interface{}{"success": false, "error": "I'm a teapot", "message": "short and stout"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body)
		})
	}
}
