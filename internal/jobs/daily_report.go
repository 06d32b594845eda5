package jobs

import (
	"context"
	"log/slog"
	"time"

	"concierge/internal/models"
)

// ReportSource aggregates chat events.
type ReportSource interface {
	BuildDailyReport(ctx context.Context, since, until time.Time, topN, samples int) (*models.DailyReport, error)
}

// ReportSender delivers a built report.
type ReportSender interface {
	SendDailyReport(ctx context.Context, report *models.DailyReport, recipients []string) error
}

// DailyReporter periodically mails a summary of recent chat activity.
type DailyReporter struct {
	source     ReportSource
	sender     ReportSender
	recipients []string
	interval   time.Duration
	now        func() time.Time
}

// NewDailyReporter creates a reporter covering one interval per run.
func NewDailyReporter(source ReportSource, sender ReportSender, recipients []string, interval time.Duration) *DailyReporter {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &DailyReporter{
		source:     source,
		sender:     sender,
		recipients: recipients,
		interval:   interval,
		now:        time.Now,
	}
}

// Start runs the report loop until ctx is cancelled. The first report is
// sent after one interval.
func (r *DailyReporter) Start(ctx context.Context) {
	slog.Info("daily reporter started", "interval", r.interval, "recipients", len(r.recipients))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("daily reporter stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				slog.Error("daily report failed", "error", err)
			}
		}
	}
}

// RunOnce builds and sends the report for the interval ending now.
func (r *DailyReporter) RunOnce(ctx context.Context) (*models.DailyReport, error) {
	until := r.now().UTC()
	since := until.Add(-r.interval)

	report, err := r.source.BuildDailyReport(ctx, since, until, 5, 10)
	if err != nil {
		return nil, err
	}

	if err := r.sender.SendDailyReport(ctx, report, r.recipients); err != nil {
		return report, err
	}

	slog.Info("daily report sent", "total", report.Total, "recipients", len(r.recipients))
	return report, nil
}
