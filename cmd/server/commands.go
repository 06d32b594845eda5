package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"concierge/internal/config"
	"concierge/internal/content"
	"concierge/internal/db"
	"concierge/internal/email"
	"concierge/internal/jobs"
	"concierge/internal/logging"
	"concierge/internal/models"
	"concierge/internal/validation"
	"concierge/internal/visitor"
)

func newMatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "match <query>",
		Short: "Rank content topics for a query",
		Example: `  concierge match "how much does an AI pilot cost"
  concierge match --json "hospital triage case study"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.OutOrStdout(), strings.Join(args, " "), jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runMatch(out io.Writer, query string, jsonOutput bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	corpus, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	matcher := content.NewMatcher(corpus)
	results := matcher.Match(query)
	industries := content.DetectIndustries(query)

	if jsonOutput {
		return printJSON(out, map[string]any{
			"query":      query,
			"results":    results,
			"industries": industries,
		})
	}

	if len(industries) > 0 {
		fmt.Fprintf(out, "Industries: %s\n\n", strings.Join(industries, ", "))
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No topics matched.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tCONFIDENCE\tKEYWORDS")
	for _, r := range results {
		marker := ""
		if r.Confidence >= content.HighConfidence {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%.2f\t%s\n", r.TopicID, marker, r.Confidence, strings.Join(r.MatchedKeywords, ", "))
	}
	return w.Flush()
}

func newClassifyCmd() *cobra.Command {
	var in visitor.Context

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a visitor from request metadata",
		Example: `  concierge classify --ua "Mozilla/5.0 (compatible; Googlebot/2.1)"
  concierge classify --referrer https://mail.google.com/ --utm newsletter`,
		RunE: func(cmd *cobra.Command, args []string) error {
			category := visitor.ClassifyContext(in)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence %.2f)\n", category, visitor.Confidence(category, in))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.UserAgent, "ua", "", "User-Agent header")
	cmd.Flags().StringVar(&in.Referrer, "referrer", "", "Referer header")
	cmd.Flags().StringVar(&in.UTMSource, "utm", "", "utm_source query parameter")

	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		printOnly  bool
		recent     int
		recipients []string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build and send the chat activity report now",
		Example: `  concierge report
  concierge report --print
  concierge report --print --recent 20
  concierge report --to ops@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Env)
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if len(recipients) == 0 {
				recipients = cfg.ReportRecipients
			}

			site, err := config.LoadSite(cfg.SiteConfig)
			if err != nil {
				return err
			}

			database, err := db.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()

			var sender jobs.ReportSender = email.NewNotifier(cfg, site, email.NewService(cfg), nil)
			if printOnly {
				sender = discardSender{}
			}

			report, err := jobs.NewDailyReporter(database, sender, recipients, cfg.ReportInterval).RunOnce(cmd.Context())
			if report != nil && printOnly {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}
			if err != nil {
				return err
			}
			if recent > 0 {
				return printRecent(cmd.Context(), cmd.OutOrStdout(), database, report.Since, recent)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print the report as JSON instead of mailing it")
	cmd.Flags().IntVarP(&recent, "recent", "r", 0, "Also list the N most recent queries in the report period")
	cmd.Flags().StringSliceVar(&recipients, "to", nil, "Override REPORT_RECIPIENTS")

	return cmd
}

// eventLister reads stored chat events.
type eventLister interface {
	GetChatEventsSince(ctx context.Context, since time.Time, limit int) ([]models.ChatEvent, error)
}

// printRecent lists the newest chat events created at or after since.
func printRecent(ctx context.Context, out io.Writer, events eventLister, since time.Time, limit int) error {
	list, err := events.GetChatEventsSince(ctx, since, limit)
	if err != nil {
		return fmt.Errorf("failed to list chat events: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No queries in this period.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tENDPOINT\tVISITOR\tOUTCOME\tTOPIC\tQUERY")
	for _, e := range list {
		topic := e.TopicID
		if topic == "" {
			topic = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Endpoint, e.Visitor, e.Outcome, topic,
			validation.Truncate(e.Query, 60))
	}
	return w.Flush()
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// discardSender satisfies jobs.ReportSender for --print runs.
type discardSender struct{}

func (discardSender) SendDailyReport(context.Context, *models.DailyReport, []string) error {
	return nil
}
