package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/content"
	"concierge/internal/llm"
	"concierge/internal/models"
	"concierge/internal/ratelimit"
	"concierge/internal/visitor"
)

type fakeCompleter struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type captureRecorder struct {
	mu     sync.Mutex
	events []models.ChatEvent
}

func (c *captureRecorder) Record(_ context.Context, e models.ChatEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureRecorder) last() models.ChatEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[len(c.events)-1]
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (ratelimit.Entry, bool, error) {
	return ratelimit.Entry{}, false, errors.New("redis: connection refused")
}

func (failingStore) Set(context.Context, string, ratelimit.Entry) error {
	return errors.New("redis: connection refused")
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestGateway(t *testing.T, completer llm.Completer, opts ...Option) (*Gateway, *captureRecorder) {
	t.Helper()

	corpus, err := content.Embedded()
	require.NoError(t, err)

	rec := &captureRecorder{}
	store := ratelimit.NewMemoryStore()
	chatLimiter := ratelimit.New("chat", 10, time.Hour, store)
	researchLimiter := ratelimit.New("research", 5, time.Hour, store)

	opts = append([]Option{
		WithRecorder(rec),
		WithResearchLimiter(researchLimiter),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)

	g := NewGateway(chatLimiter, corpus, "Book a call.", completer,
		Prompts{Chat: "You are the Summit Labs concierge.", Research: "You are a research analyst."}, opts...)
	return g, rec
}

func TestClientID(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", AnonymousClient},
		{"   ", AnonymousClient},
		{"203.0.113.7", "203.0.113.7"},
		{"203.0.113.7, 10.0.0.1, 10.0.0.2", "203.0.113.7"},
		{" 198.51.100.2 ,10.0.0.1", "198.51.100.2"},
		{",10.0.0.1", AnonymousClient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClientID(tt.header), "header %q", tt.header)
	}
}

func TestSanitizeHistory(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "turn 1"},
		{Role: "assistant", Content: "turn 2"},
		{Role: "user", Content: "turn 3"},
		{Role: "assistant", Content: "turn 4"},
		{Role: "system", Content: "turn 5 <script>alert(1)</script>"},
		{Role: "ASSISTANT", Content: "<b>turn 6</b>"},
		{Role: "user", Content: "turn 7"},
		{Role: "assistant", Content: "  "},
	}

	got := SanitizeHistory(history)

	// last six are turns 3..8; turn 4 opens with assistant and is dropped,
	// the blank final turn is dropped.
	require.Len(t, got, 4)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "turn 3"}, got[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "turn 5"}, got[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "turn 6"}, got[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "turn 7"}, got[3])
}

func TestSanitizeHistory_Empty(t *testing.T) {
	assert.Empty(t, SanitizeHistory(nil))
	assert.Empty(t, SanitizeHistory([]Turn{{Role: "assistant", Content: "Hi! How can I help?"}}))
}

func TestHandle_LLMPath(t *testing.T) {
	fc := &fakeCompleter{answer: "Engagements start with a two-week discovery sprint."}
	g, rec := newTestGateway(t, fc)

	resp, err := g.Handle(context.Background(), Request{
		Query:        "How much does this cost?",
		History:      []Turn{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
		ForwardedFor: "203.0.113.7",
	})
	require.NoError(t, err)

	assert.Equal(t, fc.answer, resp.Answer)
	assert.Equal(t, fixedNow, resp.Timestamp)
	assert.False(t, resp.Canned)
	assert.Equal(t, "pricing", resp.TopicID)

	require.Equal(t, 1, fc.calls())
	req := fc.requests[0]
	assert.Equal(t, "You are the Summit Labs concierge.", req.System)
	assert.False(t, req.WebSearch)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "How much does this cost?"}, req.Messages[2])

	ev := rec.last()
	assert.Equal(t, models.OutcomeAnswered, ev.Outcome)
	assert.Equal(t, models.EndpointChat, ev.Endpoint)
	assert.Equal(t, "chat", ev.Visitor)
	assert.Equal(t, "pricing", ev.TopicID)
}

func TestHandle_CannedFastPath(t *testing.T) {
	fc := &fakeCompleter{answer: "unused"}
	g, rec := newTestGateway(t, fc, WithPreferCanned(true))

	resp, err := g.Handle(context.Background(), Request{Query: "How much does this cost?"})
	require.NoError(t, err)

	assert.True(t, resp.Canned)
	assert.NotEmpty(t, resp.Answer)
	assert.Equal(t, "pricing", resp.TopicID)
	assert.GreaterOrEqual(t, resp.Confidence, content.HighConfidence)
	assert.Zero(t, fc.calls())
	assert.Equal(t, models.OutcomeCanned, rec.last().Outcome)
}

func TestHandle_CannedEnabledButNoMatch(t *testing.T) {
	fc := &fakeCompleter{answer: "I can help with that."}
	g, _ := newTestGateway(t, fc, WithPreferCanned(true))

	resp, err := g.Handle(context.Background(), Request{Query: "xyzzy plugh quux"})
	require.NoError(t, err)

	assert.False(t, resp.Canned)
	assert.Equal(t, 1, fc.calls())
}

func TestHandle_RateLimited(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	g, rec := newTestGateway(t, fc)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := g.Handle(ctx, Request{Query: "hello there", ForwardedFor: "198.51.100.9"})
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := g.Handle(ctx, Request{Query: "hello there", ForwardedFor: "198.51.100.9"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 10, le.Limit)
	assert.Greater(t, le.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, le.RetryAfter, time.Hour)
	assert.Equal(t, 10, fc.calls())
	assert.Equal(t, models.OutcomeRateLimited, rec.last().Outcome)

	// another client is unaffected
	_, err = g.Handle(ctx, Request{Query: "hello there", ForwardedFor: "198.51.100.10"})
	assert.NoError(t, err)
}

func TestHandle_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"script only", "<script>alert('x')</script>"},
		{"tags only", "<div><br/></div>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{answer: "ok"}
			g, rec := newTestGateway(t, fc)

			_, err := g.Handle(context.Background(), Request{Query: tt.query})
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, fc.calls())
			assert.Equal(t, models.OutcomeInvalid, rec.last().Outcome)
		})
	}
}

func TestHandle_QueryIsSanitizedAndTruncated(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	g, rec := newTestGateway(t, fc)

	long := "<p>" + strings.Repeat("a", 600) + "</p><script>steal()</script>"
	_, err := g.Handle(context.Background(), Request{Query: long})
	require.NoError(t, err)

	sent := fc.requests[0].Messages[len(fc.requests[0].Messages)-1].Content
	assert.Equal(t, 500, len([]rune(sent)))
	assert.NotContains(t, sent, "<")
	assert.Equal(t, sent, rec.last().Query)
}

func TestHandle_UpstreamFailure(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("anthropic messages: 529 overloaded")}
	g, rec := newTestGateway(t, fc)

	resp, err := g.Handle(context.Background(), Request{Query: "What industries do you work with?"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 1, fc.calls())
	assert.Equal(t, models.OutcomeUpstreamError, rec.last().Outcome)
}

func TestHandle_NoCompleter(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	_, err := g.Handle(context.Background(), Request{Query: "hello"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestHandle_StoreFailureAdmits(t *testing.T) {
	corpus, err := content.Embedded()
	require.NoError(t, err)

	fc := &fakeCompleter{answer: "ok"}
	g := NewGateway(ratelimit.New("chat", 10, time.Hour, failingStore{}), corpus, "", fc, Prompts{})

	_, err = g.Handle(context.Background(), Request{Query: "hello"})
	assert.NoError(t, err)
}

func TestHandle_VisitorCategory(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	g, rec := newTestGateway(t, fc)

	_, err := g.Handle(context.Background(), Request{Query: "hello", Visitor: visitor.CategoryNewsletter})
	require.NoError(t, err)
	assert.Equal(t, "newsletter", rec.last().Visitor)

	_, err = g.Handle(context.Background(), Request{Query: "hello", Visitor: visitor.Category("alien")})
	require.NoError(t, err)
	assert.Equal(t, "chat", rec.last().Visitor)
}

func TestResearch(t *testing.T) {
	fc := &fakeCompleter{answer: "Hospitals are piloting ambient scribes."}
	g, rec := newTestGateway(t, fc)

	resp, err := g.Research(context.Background(), ResearchRequest{
		Sector:   "Healthcare",
		Question: "How are hospitals using AI for triage?",
	})
	require.NoError(t, err)
	assert.Equal(t, fc.answer, resp.Answer)

	req := fc.requests[0]
	assert.True(t, req.WebSearch)
	assert.Equal(t, "You are a research analyst.", req.System)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Sector: Healthcare")
	assert.Contains(t, req.Messages[0].Content, "Question: How are hospitals using AI for triage?")

	ev := rec.last()
	assert.Equal(t, models.EndpointResearch, ev.Endpoint)
	assert.Equal(t, models.OutcomeAnswered, ev.Outcome)
}

func TestResearch_FallsBackToQuery(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	g, _ := newTestGateway(t, fc)

	_, err := g.Research(context.Background(), ResearchRequest{Query: "retail demand forecasting trends"})
	require.NoError(t, err)
	assert.Contains(t, fc.requests[0].Messages[0].Content, "Question: retail demand forecasting trends")
}

func TestResearch_Invalid(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	g, _ := newTestGateway(t, fc)

	_, err := g.Research(context.Background(), ResearchRequest{Sector: "Finance"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, fc.calls())
}

func TestResearch_OwnBucket(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	g, _ := newTestGateway(t, fc)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := g.Research(ctx, ResearchRequest{Question: "q", ForwardedFor: "192.0.2.1"})
		require.NoError(t, err)
	}
	_, err := g.Research(ctx, ResearchRequest{Question: "q", ForwardedFor: "192.0.2.1"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 5, le.Limit)

	// chat bucket is independent
	_, err = g.Handle(ctx, Request{Query: "hello", ForwardedFor: "192.0.2.1"})
	assert.NoError(t, err)
}
