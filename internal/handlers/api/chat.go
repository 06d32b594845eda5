package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"concierge/internal/chat"
	"concierge/internal/middleware"
	"concierge/internal/models"
)

// Gateway answers chat and research queries.
type Gateway interface {
	Handle(ctx context.Context, req chat.Request) (*chat.Response, error)
	Research(ctx context.Context, req chat.ResearchRequest) (*chat.Response, error)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Query               string      `json:"query"`
	ConversationHistory []chat.Turn `json:"conversationHistory"`
}

// ResearchRequest is the body of POST /api/research.
type ResearchRequest struct {
	Query    string `json:"query"`
	Sector   string `json:"sector"`
	Question string `json:"question"`
}

// ChatHandler serves the chat and research endpoints.
type ChatHandler struct {
	gateway Gateway
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(gateway Gateway) *ChatHandler {
	return &ChatHandler{gateway: gateway}
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body ChatRequest
	if err := c.Bind().Body(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.gateway.Handle(c.Context(), chat.Request{
		Query:        body.Query,
		History:      body.ConversationHistory,
		ForwardedFor: c.Get(fiber.HeaderXForwardedFor),
		Visitor:      middleware.VisitorFrom(c),
	})
	if err != nil {
		return gatewayError(c, err)
	}
	return answer(c, resp)
}

// Research handles POST /api/research.
func (h *ChatHandler) Research(c fiber.Ctx) error {
	var body ResearchRequest
	if err := c.Bind().Body(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.gateway.Research(c.Context(), chat.ResearchRequest{
		Query:        body.Query,
		Sector:       body.Sector,
		Question:     body.Question,
		ForwardedFor: c.Get(fiber.HeaderXForwardedFor),
		Visitor:      middleware.VisitorFrom(c),
	})
	if err != nil {
		return gatewayError(c, err)
	}
	return answer(c, resp)
}

func answer(c fiber.Ctx, resp *chat.Response) error {
	return c.JSON(models.AnswerResponse{
		Answer:    resp.Answer,
		Timestamp: resp.Timestamp.UTC().Format(time.RFC3339),
	})
}

func gatewayError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrRateLimitExceeded):
		var le *chat.LimitError
		if errors.As(err, &le) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retrySeconds(le.RetryAfter)))
			c.Set("X-RateLimit-Limit", strconv.Itoa(le.Limit))
		}
		return jsonError(c, fiber.StatusTooManyRequests, chat.MsgRateLimited)
	case errors.Is(err, chat.ErrInvalidInput):
		return jsonError(c, fiber.StatusBadRequest, chat.MsgInvalid)
	default:
		return jsonError(c, fiber.StatusInternalServerError, chat.MsgUpstream)
	}
}

// retrySeconds rounds d up to whole seconds, never below one.
func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}
