package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"concierge/internal/content"
	"concierge/internal/middleware"
	"concierge/internal/validation"
)

// ContentHandler serves topic content and query matching.
type ContentHandler struct {
	matcher  *content.Matcher
	selector *content.Selector
}

// NewContentHandler creates a content handler.
func NewContentHandler(store content.Store, callToAction string) *ContentHandler {
	return &ContentHandler{
		matcher:  content.NewMatcher(store),
		selector: content.NewSelector(store, callToAction),
	}
}

// Topic handles GET /api/content/:topic, rendering the variant for the
// requesting visitor.
func (h *ContentHandler) Topic(c fiber.Ctx) error {
	id := c.Params("topic")
	if !validation.ValidateTopicID(id) {
		return jsonError(c, fiber.StatusBadRequest, "invalid topic id")
	}

	sel, err := h.selector.Select(id, middleware.VisitorFrom(c), validation.Sanitize(c.Query("q")))
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return jsonError(c, fiber.StatusNotFound, "topic not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to render content")
	}

	c.Set(fiber.HeaderVary, "User-Agent, Referer")
	return jsonSuccess(c, sel)
}

// MatchResponse is returned by GET /api/match.
type MatchResponse struct {
	Query      string           `json:"query"`
	Results    []content.Result `json:"results"`
	Industries []string         `json:"industries"`
	Best       *content.Result  `json:"best,omitempty"`
}

// Match handles GET /api/match?q=.
func (h *ContentHandler) Match(c fiber.Ctx) error {
	q := validation.Sanitize(c.Query("q"))
	if q == "" {
		return jsonError(c, fiber.StatusBadRequest, "query parameter q is required")
	}

	resp := MatchResponse{
		Query:      q,
		Results:    h.matcher.Match(q),
		Industries: content.DetectIndustries(q),
	}
	if resp.Results == nil {
		resp.Results = []content.Result{}
	}
	if resp.Industries == nil {
		resp.Industries = []string{}
	}
	if best, ok := h.matcher.Best(q); ok {
		resp.Best = &best
	}
	return jsonSuccess(c, resp)
}
