package server

import (
	"errors"
	"net/http/httptest"
	"testing"

	"wayfare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()

	var got Pagination
	app.Get("/items", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name     string
		url      string
		expected Pagination
	}{
		{"Defaults", "/items", Pagination{Limit: 20, Offset: 0}},
		{"Explicit", "/items?limit=5&offset=10", Pagination{Limit: 5, Offset: 10}},
		{"Clamped To Max", "/items?limit=5000", Pagination{Limit: 100, Offset: 0}},
		{"Negative Values", "/items?limit=-1&offset=-5", Pagination{Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.url, nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()

	var gotID uint
	var gotErr error
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		gotID, gotErr = s.parseID(c, "id")
		if gotErr != nil {
			return nil
		}
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("Valid", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/things/42", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, uint(42), gotID)
		assert.NoError(t, gotErr)
	})

	t.Run("Non Numeric", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/things/abc", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.ErrorIs(t, gotErr, errResponseWritten)
	})

	t.Run("Zero", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/things/0", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "image ID", humanizeParam("imageId"))
	assert.Equal(t, "comment ID", humanizeParam("commentId"))
	assert.Equal(t, "code", humanizeParam("code"))
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"Validation", models.NewValidationError("bad"), fiber.StatusBadRequest},
		{"Unauthorized", models.NewUnauthorizedError("nope"), fiber.StatusUnauthorized},
		{"Forbidden", models.NewForbiddenError("no"), fiber.StatusForbidden},
		{"Not Found", models.NewNotFoundError("Booking", 7), fiber.StatusNotFound},
		{"Conflict", models.NewConflictError("dates taken"), fiber.StatusConflict},
		{"Unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapServiceError(tt.err))
		})
	}
}
