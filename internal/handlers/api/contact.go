package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"concierge/internal/email"
	"concierge/internal/metrics"
	"concierge/internal/models"
	"concierge/internal/validation"
)

// ContactNotifier delivers contact requests.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, req *models.ContactRequest) error
}

// ContactStore persists contact requests.
type ContactStore interface {
	CreateContactSubmission(ctx context.Context, req *models.ContactRequest) (uuid.UUID, error)
	MarkContactDelivered(ctx context.Context, id uuid.UUID) error
}

// ContactHandler serves the contact form endpoint.
type ContactHandler struct {
	notifier ContactNotifier
	store    ContactStore
}

// NewContactHandler creates a contact handler. store may be nil.
func NewContactHandler(notifier ContactNotifier, store ContactStore) *ContactHandler {
	return &ContactHandler{notifier: notifier, store: store}
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(c fiber.Ctx) error {
	var req models.ContactRequest
	if err := c.Bind().Body(&req); err != nil {
		if validation.MissingRequired(err) {
			return jsonError(c, fiber.StatusBadRequest, "Missing required fields")
		}
		if len(validation.FieldErrors(err)) > 0 {
			return jsonError(c, fiber.StatusBadRequest, "Invalid fields: "+strings.Join(validation.FieldErrors(err), ", "))
		}
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Name = validation.Sanitize(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.TeamMember = strings.TrimSpace(req.TeamMember)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.TeamMember == "" || req.Message == "" {
		return jsonError(c, fiber.StatusBadRequest, "Missing required fields")
	}
	if !validation.ValidateEmail(req.Email) {
		return jsonError(c, fiber.StatusBadRequest, "Invalid email address")
	}

	ctx := c.Context()

	var id uuid.UUID
	if h.store != nil {
		var err error
		if id, err = h.store.CreateContactSubmission(ctx, &req); err != nil {
			slog.ErrorContext(ctx, "failed to store contact submission", "error", err)
		}
	}

	err := h.notifier.NotifyContact(ctx, &req)
	switch {
	case err == nil:
		metrics.ContactsTotal.WithLabelValues("sent").Inc()
		if id != uuid.Nil {
			if err := h.store.MarkContactDelivered(ctx, id); err != nil {
				slog.WarnContext(ctx, "failed to mark contact delivered", "id", id, "error", err)
			}
		}
	case errors.Is(err, email.ErrDisabled) && id != uuid.Nil:
		// kept for follow-up from the database
		metrics.ContactsTotal.WithLabelValues("stored").Inc()
		slog.WarnContext(ctx, "email disabled, contact submission stored only", "id", id)
	default:
		metrics.ContactsTotal.WithLabelValues("failed").Inc()
		slog.ErrorContext(ctx, "contact notification failed", "team_member", req.TeamMember, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to send message")
	}

	return c.JSON(models.ContactResponse{Success: true})
}
