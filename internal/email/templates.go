package email

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"concierge/internal/config"
	"concierge/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	site    *config.Site
	baseURL string
}

// NewTemplates creates a new templates instance.
func NewTemplates(site *config.Site, baseURL string) *Templates {
	return &Templates{site: site, baseURL: strings.TrimRight(baseURL, "/")}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	company := html.EscapeString(t.site.Company)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .quote { white-space: pre-wrap; border-left: 3px solid #0f766e; padding-left: 12px; color: #374151; }
        table { width: 100%%; border-collapse: collapse; }
        td { padding: 4px 0; }
        td.n { text-align: right; font-variant-numeric: tabular-nums; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>%s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), company, content, company, html.EscapeString(t.baseURL), html.EscapeString(t.baseURL))
}

func (t *Templates) textFooter() string {
	return fmt.Sprintf("\n--\n%s\n%s", t.site.Company, t.baseURL)
}

// ContactNotification is sent to the team member a visitor addressed.
func (t *Templates) ContactNotification(req *models.ContactRequest, member *config.TeamMember) (subject, htmlBody, textBody string) {
	recipient := req.TeamMember
	if member != nil {
		recipient = member.Name
	}
	subject = fmt.Sprintf("[%s] New enquiry from %s", t.site.Company, req.Name)

	content := fmt.Sprintf(`
        <p>A visitor sent a message through the website for <strong>%s</strong>.</p>

        <div class="info-box">
            <p><span class="label">Name:</span> %s</p>
            <p><span class="label">Email:</span> <a href="mailto:%s">%s</a></p>
        </div>

        <p class="quote">%s</p>

        <p>Reply to this email to respond directly.</p>
    `,
		html.EscapeString(recipient),
		html.EscapeString(req.Name),
		html.EscapeString(req.Email),
		html.EscapeString(req.Email),
		html.EscapeString(req.Message),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`New website enquiry for %s

Name: %s
Email: %s

%s
%s`,
		recipient,
		req.Name,
		req.Email,
		req.Message,
		t.textFooter(),
	)

	return
}

// ContactAcknowledgement confirms receipt to the visitor.
func (t *Templates) ContactAcknowledgement(req *models.ContactRequest, member *config.TeamMember) (subject, htmlBody, textBody string) {
	who := "our team"
	if member != nil {
		who = member.Name
	}
	subject = fmt.Sprintf("Thanks for contacting %s", t.site.Company)

	content := fmt.Sprintf(`
        <p>Hi %s,</p>
        <p>Thanks for getting in touch. %s will reply within one business day.</p>
        <p>For reference, here is your message:</p>
        <p class="quote">%s</p>
    `,
		html.EscapeString(req.Name),
		html.EscapeString(who),
		html.EscapeString(req.Message),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Hi %s,

Thanks for getting in touch. %s will reply within one business day.

Your message:
%s
%s`,
		req.Name,
		who,
		req.Message,
		t.textFooter(),
	)

	return
}

// DailyReport summarises chat activity.
func (t *Templates) DailyReport(r *models.DailyReport) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Chat report %s: %d queries", t.site.Company, r.Until.Format("2006-01-02"), r.Total)

	var rowsHTML, rowsText strings.Builder
	section := func(title string, counts map[string]int64) {
		keys := sortedByCount(counts)
		if len(keys) == 0 {
			return
		}
		fmt.Fprintf(&rowsHTML, `<div class="info-box"><p class="label">%s</p><table>`, html.EscapeString(title))
		fmt.Fprintf(&rowsText, "\n%s\n", title)
		for _, k := range keys {
			fmt.Fprintf(&rowsHTML, `<tr><td>%s</td><td class="n">%d</td></tr>`, html.EscapeString(k), counts[k])
			fmt.Fprintf(&rowsText, "  %-16s %d\n", k, counts[k])
		}
		rowsHTML.WriteString(`</table></div>`)
	}

	section("By outcome", r.ByOutcome)
	section("By visitor", r.ByVisitor)
	section("By endpoint", r.ByEndpoint)

	if len(r.TopTopics) > 0 {
		rowsHTML.WriteString(`<div class="info-box"><p class="label">Top topics</p><table>`)
		rowsText.WriteString("\nTop topics\n")
		for _, tc := range r.TopTopics {
			fmt.Fprintf(&rowsHTML, `<tr><td>%s</td><td class="n">%d</td></tr>`, html.EscapeString(tc.TopicID), tc.Count)
			fmt.Fprintf(&rowsText, "  %-32s %d\n", tc.TopicID, tc.Count)
		}
		rowsHTML.WriteString(`</table></div>`)
	}

	if len(r.SampleQueries) > 0 {
		rowsHTML.WriteString(`<div class="info-box"><p class="label">Recent questions</p><ul>`)
		rowsText.WriteString("\nRecent questions\n")
		for _, q := range r.SampleQueries {
			fmt.Fprintf(&rowsHTML, `<li>%s</li>`, html.EscapeString(q))
			fmt.Fprintf(&rowsText, "  - %s\n", q)
		}
		rowsHTML.WriteString(`</ul></div>`)
	}

	period := fmt.Sprintf("%s to %s", r.Since.Format("Jan 2 15:04 MST"), r.Until.Format("Jan 2 15:04 MST"))
	content := fmt.Sprintf(`
        <p>Chat activity from %s.</p>
        <div class="info-box">
            <p><span class="label">Total queries:</span> %d</p>
            <p><span class="label">Answered:</span> %d</p>
        </div>
        %s
    `,
		html.EscapeString(period),
		r.Total,
		r.Answered(),
		rowsHTML.String(),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Chat report

Period: %s
Total queries: %d
Answered: %d
%s%s`,
		period,
		r.Total,
		r.Answered(),
		rowsText.String(),
		t.textFooter(),
	)

	return
}

func sortedByCount(counts map[string]int64) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
