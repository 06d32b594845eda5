package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"concierge/internal/chat"
	"concierge/internal/logging"
	"concierge/internal/visitor"
)

const visitorKey = "visitor"

// Visitor classifies the request origin, stores the category in locals and
// attaches request-scoped log fields to the request context.
func Visitor() fiber.Handler {
	return func(c fiber.Ctx) error {
		vc := visitor.Context{
			UserAgent: c.Get(fiber.HeaderUserAgent),
			Referrer:  c.Get(fiber.HeaderReferer),
			UTMSource: c.Query("utm_source"),
		}
		category := visitor.ClassifyContext(vc)
		c.Locals(visitorKey, category)

		c.SetContext(logging.WithFields(c.Context(), logging.Fields{
			RequestID:         requestid.FromContext(c),
			ClientID:          chat.ClientID(c.Get(fiber.HeaderXForwardedFor)),
			Visitor:           category.String(),
			VisitorConfidence: visitor.Confidence(category, vc),
		}))

		return c.Next()
	}
}

// VisitorFrom returns the category set by Visitor, defaulting to chat.
func VisitorFrom(c fiber.Ctx) visitor.Category {
	if category, ok := c.Locals(visitorKey).(visitor.Category); ok {
		return category
	}
	return visitor.CategoryChat
}
