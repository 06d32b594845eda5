package jobs_test

import (
	"context"
	"testing"
	"time"

	"concierge/internal/jobs"
	"concierge/internal/models"
	"concierge/internal/testutil"
)

type captureSender struct {
	report *models.DailyReport
}

func (c *captureSender) SendDailyReport(_ context.Context, report *models.DailyReport, _ []string) error {
	c.report = report
	return nil
}

func TestDailyReporter_WithDatabase(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	now := time.Now().UTC()
	testutil.CreateChatEvent(t, database, models.EndpointChat, "chat", "pricing", models.OutcomeAnswered, now.Add(-time.Hour))
	testutil.CreateChatEvent(t, database, models.EndpointChat, "bot", "pricing", models.OutcomeCanned, now.Add(-2*time.Hour))
	testutil.CreateChatEvent(t, database, models.EndpointResearch, "chat", "", models.OutcomeRateLimited, now.Add(-3*time.Hour))
	// Outside the window
	testutil.CreateChatEvent(t, database, models.EndpointChat, "chat", "ai-strategy", models.OutcomeAnswered, now.Add(-48*time.Hour))

	sender := &captureSender{}
	reporter := jobs.NewDailyReporter(database, sender, []string{"ops@example.com"}, 24*time.Hour)

	report, err := reporter.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if sender.report != report {
		t.Error("RunOnce() did not hand the built report to the sender")
	}
	if report.Total != 3 {
		t.Errorf("Total = %d, want 3", report.Total)
	}
	if report.Answered() != 2 {
		t.Errorf("Answered() = %d, want 2", report.Answered())
	}
	if len(report.TopTopics) == 0 || report.TopTopics[0].TopicID != "pricing" {
		t.Errorf("TopTopics = %v, want pricing first", report.TopTopics)
	}
}
