package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat event outcome constants
const (
	OutcomeAnswered      = "answered"
	OutcomeCanned        = "canned"
	OutcomeRateLimited   = "rate_limited"
	OutcomeInvalid       = "invalid"
	OutcomeUpstreamError = "upstream_error"
)

// Endpoint names recorded on chat events.
const (
	EndpointChat     = "chat"
	EndpointResearch = "research"
)

// ChatEvent is one handled chat or research query.
type ChatEvent struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Endpoint   string    `json:"endpoint"`
	Visitor    string    `json:"visitor"`
	Query      string    `json:"query"`
	TopicID    string    `json:"topic_id,omitempty"`
	Confidence float64   `json:"confidence"`
	Outcome    string    `json:"outcome"`
}

// OutcomeCount is an aggregated event count for one endpoint and outcome.
type OutcomeCount struct {
	Endpoint string
	Outcome  string
	Count    int64
}
