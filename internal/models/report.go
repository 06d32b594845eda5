package models

import "time"

// TopicCount is the number of queries routed to a topic.
type TopicCount struct {
	TopicID string `json:"topic_id"`
	Count   int64  `json:"count"`
}

// DailyReport summarises chat activity over a period.
type DailyReport struct {
	Since         time.Time        `json:"since"`
	Until         time.Time        `json:"until"`
	Total         int64            `json:"total"`
	ByOutcome     map[string]int64 `json:"by_outcome"`
	ByVisitor     map[string]int64 `json:"by_visitor"`
	ByEndpoint    map[string]int64 `json:"by_endpoint"`
	TopTopics     []TopicCount     `json:"top_topics"`
	SampleQueries []string         `json:"sample_queries"`
}

// Answered returns the number of queries that received an answer.
func (r *DailyReport) Answered() int64 {
	return r.ByOutcome[OutcomeAnswered] + r.ByOutcome[OutcomeCanned]
}
