// Package chat admits, sanitizes and answers visitor queries, either from
// the canned content corpus or through a language model completion.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"concierge/internal/content"
	"concierge/internal/llm"
	"concierge/internal/metrics"
	"concierge/internal/models"
	"concierge/internal/ratelimit"
	"concierge/internal/validation"
	"concierge/internal/visitor"
)

// AnonymousClient is the client id used when no forwarded address is present.
const AnonymousClient = "anonymous"

// HistoryLimit is the number of trailing conversation turns forwarded.
const HistoryLimit = 6

// Turn is one conversation history entry as received from the widget.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat query.
type Request struct {
	Query        string
	History      []Turn
	ForwardedFor string
	Visitor      visitor.Category
}

// ResearchRequest is a web-search backed question about a sector.
type ResearchRequest struct {
	Query        string
	Sector       string
	Question     string
	ForwardedFor string
	Visitor      visitor.Category
}

// Response is a successful answer.
type Response struct {
	Answer     string
	Timestamp  time.Time
	TopicID    string
	Confidence float64
	Canned     bool
}

// Recorder receives one event per handled query.
type Recorder interface {
	Record(ctx context.Context, e models.ChatEvent)
}

// Prompts holds the injected system prompts.
type Prompts struct {
	Chat     string
	Research string
}

// Gateway orchestrates rate limiting, sanitization, content matching and
// the completion fallback.
type Gateway struct {
	chatLimiter     *ratelimit.Limiter
	researchLimiter *ratelimit.Limiter
	matcher         *content.Matcher
	selector        *content.Selector
	completer       llm.Completer
	recorder        Recorder
	prompts         Prompts
	preferCanned    bool
	now             func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRecorder sets the analytics recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Gateway) { g.recorder = r }
}

// WithPreferCanned enables the canned content fast path.
func WithPreferCanned(enabled bool) Option {
	return func(g *Gateway) { g.preferCanned = enabled }
}

// WithResearchLimiter sets the limiter for research queries.
func WithResearchLimiter(l *ratelimit.Limiter) Option {
	return func(g *Gateway) { g.researchLimiter = l }
}

// WithClock overrides the response timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway creates a gateway. A nil completer is allowed; queries that
// miss the fast path then fail with ErrUpstreamUnavailable.
func NewGateway(chatLimiter *ratelimit.Limiter, store content.Store, cta string, completer llm.Completer, prompts Prompts, opts ...Option) *Gateway {
	g := &Gateway{
		chatLimiter: chatLimiter,
		matcher:     content.NewMatcher(store),
		selector:    content.NewSelector(store, cta),
		completer:   completer,
		prompts:     prompts,
		recorder:    metrics.NewRecorder(nil, nil),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ClientID returns the first hop of an X-Forwarded-For value, or
// AnonymousClient when there is none.
func ClientID(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if id := strings.TrimSpace(first); id != "" {
		return id
	}
	return AnonymousClient
}

// SanitizeHistory keeps the last HistoryLimit turns, sanitizes their text
// and coerces roles to user or assistant. Turns left empty are dropped.
func SanitizeHistory(history []Turn) []llm.Message {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	out := make([]llm.Message, 0, len(history))
	for _, t := range history {
		text := validation.Sanitize(t.Content)
		if text == "" {
			continue
		}
		role := llm.RoleUser
		if strings.EqualFold(strings.TrimSpace(t.Role), string(llm.RoleAssistant)) {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: text})
	}

	// the conversation sent upstream must open with a user turn
	for len(out) > 0 && out[0].Role == llm.RoleAssistant {
		out = out[1:]
	}
	return out
}

// Handle answers a chat query.
func (g *Gateway) Handle(ctx context.Context, req Request) (*Response, error) {
	ev := g.newEvent(models.EndpointChat, req.Visitor)

	if err := g.admit(ctx, g.chatLimiter, ClientID(req.ForwardedFor)); err != nil {
		return g.finish(ctx, &ev, nil, err)
	}

	query := validation.Sanitize(req.Query)
	ev.Query = query
	if query == "" {
		return g.finish(ctx, &ev, nil, ErrInvalidInput)
	}

	if best, ok := g.matcher.Best(query); ok {
		ev.TopicID, ev.Confidence = best.TopicID, best.Confidence
	}

	if g.preferCanned && ev.TopicID != "" {
		sel, err := g.selector.Select(ev.TopicID, visitor.CategoryChat, query)
		switch {
		case err == nil:
			ev.Outcome = models.OutcomeCanned
			return g.finish(ctx, &ev, &Response{Answer: sel.Content, Canned: true}, nil)
		case errors.Is(err, content.ErrContentNotFound):
			slog.DebugContext(ctx, "matched topic has no content", "topic", ev.TopicID)
		default:
			slog.WarnContext(ctx, "content selection failed", "topic", ev.TopicID, "error", err)
		}
	}

	messages := append(SanitizeHistory(req.History), llm.Message{Role: llm.RoleUser, Content: query})
	answer, err := g.complete(ctx, models.EndpointChat, llm.Request{System: g.prompts.Chat, Messages: messages})
	if err != nil {
		return g.finish(ctx, &ev, nil, err)
	}

	ev.Outcome = models.OutcomeAnswered
	return g.finish(ctx, &ev, &Response{Answer: answer}, nil)
}

// Research answers a sector question with web search enabled. It has its
// own rate limit bucket.
func (g *Gateway) Research(ctx context.Context, req ResearchRequest) (*Response, error) {
	ev := g.newEvent(models.EndpointResearch, req.Visitor)

	limiter := g.researchLimiter
	if limiter == nil {
		limiter = g.chatLimiter
	}
	if err := g.admit(ctx, limiter, ClientID(req.ForwardedFor)); err != nil {
		return g.finish(ctx, &ev, nil, err)
	}

	query := validation.Sanitize(req.Query)
	question := validation.Sanitize(req.Question)
	sector := validation.Truncate(validation.Sanitize(req.Sector), 100)
	if question == "" {
		question = query
	}
	ev.Query = question
	if question == "" {
		return g.finish(ctx, &ev, nil, ErrInvalidInput)
	}

	if best, ok := g.matcher.Best(strings.TrimSpace(sector + " " + question)); ok {
		ev.TopicID, ev.Confidence = best.TopicID, best.Confidence
	}

	answer, err := g.complete(ctx, models.EndpointResearch, llm.Request{
		System:    g.prompts.Research,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: researchPrompt(sector, question, query)}},
		WebSearch: true,
	})
	if err != nil {
		return g.finish(ctx, &ev, nil, err)
	}

	ev.Outcome = models.OutcomeAnswered
	return g.finish(ctx, &ev, &Response{Answer: answer}, nil)
}

func researchPrompt(sector, question, query string) string {
	var b strings.Builder
	if sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", sector)
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	if query != "" && query != question {
		fmt.Fprintf(&b, "Context: %s\n", query)
	}
	b.WriteString("\nResearch current developments relevant to this question and answer concisely, citing sources where possible.")
	return b.String()
}

// admit returns a *LimitError when the client is limited. A store failure
// admits the request.
func (g *Gateway) admit(ctx context.Context, l *ratelimit.Limiter, clientID string) error {
	if l == nil {
		return nil
	}
	limited, err := l.IsRateLimited(ctx, clientID)
	if err != nil {
		slog.ErrorContext(ctx, "rate limit store failed, admitting request", "limiter", l.Name(), "error", err)
		return nil
	}
	if !limited {
		return nil
	}
	return &LimitError{Limit: l.Limit(), RetryAfter: l.RetryAfter(ctx, clientID)}
}

func (g *Gateway) complete(ctx context.Context, endpoint string, req llm.Request) (string, error) {
	if g.completer == nil {
		return "", fmt.Errorf("%w: no completion client configured", ErrUpstreamUnavailable)
	}

	start := time.Now()
	answer, err := g.completer.Complete(ctx, req)
	metrics.ObserveLLM(endpoint, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return answer, nil
}

func (g *Gateway) newEvent(endpoint string, category visitor.Category) models.ChatEvent {
	if !category.Valid() {
		category = visitor.CategoryChat
	}
	return models.ChatEvent{Endpoint: endpoint, Visitor: category.String()}
}

// finish stamps the response, emits the analytics line and records the event.
func (g *Gateway) finish(ctx context.Context, ev *models.ChatEvent, resp *Response, err error) (*Response, error) {
	ev.CreatedAt = g.now().UTC()

	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		ev.Outcome = models.OutcomeRateLimited
	case errors.Is(err, ErrInvalidInput):
		ev.Outcome = models.OutcomeInvalid
	case err != nil:
		ev.Outcome = models.OutcomeUpstreamError
		slog.ErrorContext(ctx, "completion failed", "endpoint", ev.Endpoint, "error", err)
	}

	slog.InfoContext(ctx, "chat query",
		"timestamp", ev.CreatedAt.Format(time.RFC3339),
		"endpoint", ev.Endpoint,
		"query", ev.Query,
		"visitor", ev.Visitor,
		"topic", ev.TopicID,
		"confidence", ev.Confidence,
		"outcome", ev.Outcome)

	if g.recorder != nil {
		g.recorder.Record(ctx, *ev)
	}

	if err != nil {
		return nil, err
	}
	resp.Timestamp = ev.CreatedAt
	resp.TopicID = ev.TopicID
	resp.Confidence = ev.Confidence
	return resp, nil
}
