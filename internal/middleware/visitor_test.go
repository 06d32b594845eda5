package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/logging"
	"concierge/internal/visitor"
)

func TestVisitor(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		referer    string
		query      string
		want       visitor.Category
		confidence float64
	}{
		{"browser", "Mozilla/5.0 (Macintosh)", "", "", visitor.CategoryChat, 0.6},
		{"crawler", "Mozilla/5.0 (compatible; Googlebot/2.1)", "", "", visitor.CategoryBot, 0.9},
		{"newsletter referrer", "Mozilla/5.0", "https://mail.google.com/", "", visitor.CategoryNewsletter, 0.8},
		{"utm newsletter", "Mozilla/5.0", "", "?utm_source=newsletter", visitor.CategoryNewsletter, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got visitor.Category
			var fields logging.Fields

			app := fiber.New()
			app.Use(requestid.New())
			app.Use(Visitor())
			app.Get("/", func(c fiber.Ctx) error {
				got = VisitorFrom(c)
				fields = logging.FieldsFrom(c.Context())
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest("GET", "/"+tt.query, nil)
			req.Header.Set("User-Agent", tt.ua)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, "203.0.113.7", fields.ClientID)
			assert.Equal(t, tt.want.String(), fields.Visitor)
			assert.InDelta(t, tt.confidence, fields.VisitorConfidence, 1e-9)
			assert.NotEmpty(t, fields.RequestID)
		})
	}
}

func TestVisitorFrom_Default(t *testing.T) {
	var got visitor.Category

	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		got = VisitorFrom(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, visitor.CategoryChat, got)
}
