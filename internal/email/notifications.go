package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"concierge/internal/config"
	"concierge/internal/models"
)

// ErrNoRecipient is returned when a contact request cannot be routed.
var ErrNoRecipient = errors.New("no recipient for contact request")

// Notifier sends contact and report emails.
type Notifier struct {
	sender     Sender
	pool       Submitter
	templates  *Templates
	site       *config.Site
	defaultTo  string
	ackEnabled bool
}

// NewNotifier creates a new email notifier. pool runs acknowledgement
// emails; when nil they are sent inline.
func NewNotifier(cfg *config.Config, site *config.Site, sender Sender, pool Submitter) *Notifier {
	defaultTo := cfg.ContactDefaultTo
	if defaultTo == "" {
		defaultTo = site.ContactEmail
	}
	return &Notifier{
		sender:     sender,
		pool:       pool,
		templates:  NewTemplates(site, cfg.BaseURL),
		site:       site,
		defaultTo:  defaultTo,
		ackEnabled: cfg.ContactAckEnabled,
	}
}

// NotifyContact emails the addressed team member, falling back to the
// default inbox, with the visitor as Reply-To. The visitor acknowledgement
// is sent in the background and never fails the call.
func (n *Notifier) NotifyContact(ctx context.Context, req *models.ContactRequest) error {
	member := n.site.Member(req.TeamMember)

	to := n.defaultTo
	if member != nil && member.Email != "" {
		to = member.Email
	}
	if to == "" {
		return ErrNoRecipient
	}

	subject, htmlBody, textBody := n.templates.ContactNotification(req, member)
	err := n.sender.Send(ctx, Message{
		To:      []string{to},
		ReplyTo: req.Email,
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return fmt.Errorf("contact notification: %w", err)
	}

	if n.ackEnabled {
		subject, htmlBody, textBody := n.templates.ContactAcknowledgement(req, member)
		ack := Message{To: []string{req.Email}, Subject: subject, HTML: htmlBody, Text: textBody}
		if n.pool != nil {
			SendAsync(n.pool, n.sender, ack)
		} else if err := n.sender.Send(ctx, ack); err != nil {
			slog.WarnContext(ctx, "contact acknowledgement failed", "error", err)
		}
	}
	return nil
}

// SendDailyReport mails the report to recipients.
func (n *Notifier) SendDailyReport(ctx context.Context, report *models.DailyReport, recipients []string) error {
	if len(recipients) == 0 {
		return ErrNoRecipient
	}

	subject, htmlBody, textBody := n.templates.DailyReport(report)
	if err := n.sender.Send(ctx, Message{To: recipients, Subject: subject, HTML: htmlBody, Text: textBody}); err != nil {
		return fmt.Errorf("daily report: %w", err)
	}
	return nil
}
