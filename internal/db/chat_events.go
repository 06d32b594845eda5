package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"concierge/internal/models"
)

// RecordChatEvent inserts a chat event. ID and CreatedAt are set when empty.
func (d *DB) RecordChatEvent(ctx context.Context, e *models.ChatEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := d.Pool.Exec(ctx, `
		INSERT INTO chat_events (id, created_at, endpoint, visitor, query, topic_id, confidence, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.CreatedAt, e.Endpoint, e.Visitor, e.Query, e.TopicID, e.Confidence, e.Outcome)
	if err != nil {
		return fmt.Errorf("failed to insert chat event: %w", err)
	}
	return nil
}

// GetChatEventsSince returns events created at or after since, newest first.
func (d *DB) GetChatEventsSince(ctx context.Context, since time.Time, limit int) ([]models.ChatEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT id, created_at, endpoint, visitor, query, topic_id, confidence, outcome
		FROM chat_events
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ChatEvent
	for rows.Next() {
		var e models.ChatEvent
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Endpoint, &e.Visitor, &e.Query, &e.TopicID, &e.Confidence, &e.Outcome); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetOutcomeCounts returns all-time event counts grouped by endpoint and outcome.
func (d *DB) GetOutcomeCounts(ctx context.Context) ([]models.OutcomeCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT endpoint, outcome, COUNT(*)
		FROM chat_events
		GROUP BY endpoint, outcome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.OutcomeCount
	for rows.Next() {
		var c models.OutcomeCount
		if err := rows.Scan(&c.Endpoint, &c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// BuildDailyReport aggregates events in [since, until).
func (d *DB) BuildDailyReport(ctx context.Context, since, until time.Time, topN, samples int) (*models.DailyReport, error) {
	if !until.After(since) {
		return nil, ErrInvalidPeriod
	}

	report := &models.DailyReport{
		Since:      since,
		Until:      until,
		ByOutcome:  map[string]int64{},
		ByVisitor:  map[string]int64{},
		ByEndpoint: map[string]int64{},
	}

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"outcome", report.ByOutcome},
		{"visitor", report.ByVisitor},
		{"endpoint", report.ByEndpoint},
	}
	for _, g := range groups {
		// column names come from the fixed table above
		rows, err := d.Pool.Query(ctx, `
			SELECT `+g.column+`, COUNT(*)
			FROM chat_events
			WHERE created_at >= $1 AND created_at < $2
			GROUP BY `+g.column, since, until)
		if err != nil {
			return nil, fmt.Errorf("failed to count by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var n int64
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, err
			}
			g.into[key] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	for _, n := range report.ByOutcome {
		report.Total += n
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT topic_id, COUNT(*) AS n
		FROM chat_events
		WHERE created_at >= $1 AND created_at < $2 AND topic_id <> ''
		GROUP BY topic_id
		ORDER BY n DESC, topic_id
		LIMIT $3
	`, since, until, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to rank topics: %w", err)
	}
	for rows.Next() {
		var tc models.TopicCount
		if err := rows.Scan(&tc.TopicID, &tc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		report.TopTopics = append(report.TopTopics, tc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `
		SELECT query
		FROM chat_events
		WHERE created_at >= $1 AND created_at < $2 AND query <> ''
		ORDER BY created_at DESC
		LIMIT $3
	`, since, until, samples)
	if err != nil {
		return nil, fmt.Errorf("failed to sample queries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		report.SampleQueries = append(report.SampleQueries, q)
	}

	return report, rows.Err()
}
