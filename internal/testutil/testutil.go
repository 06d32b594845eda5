// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"concierge/internal/db"
	"concierge/internal/models"
)

// TestDB connects to TEST_DATABASE_URL, runs migrations and returns a
// cleanup function. The test is skipped when the variable is unset.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database.Pool)

	cleanup := func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	pool.Exec(ctx, "DELETE FROM chat_events")
	pool.Exec(ctx, "DELETE FROM contact_submissions")
}

// CreateChatEvent inserts an event with the given created_at and returns it.
func CreateChatEvent(t *testing.T, database *db.DB, endpoint, visitor, topicID, outcome string, at time.Time) *models.ChatEvent {
	t.Helper()

	e := &models.ChatEvent{
		CreatedAt: at,
		Endpoint:  endpoint,
		Visitor:   visitor,
		Query:     "test query about " + topicID,
		TopicID:   topicID,
		Outcome:   outcome,
	}
	if topicID != "" {
		e.Confidence = 0.5
	}
	if err := database.RecordChatEvent(context.Background(), e); err != nil {
		t.Fatalf("failed to create test chat event: %v", err)
	}
	return e
}
