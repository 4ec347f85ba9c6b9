package notify

import (
	"context"

	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/pkg/retry"
	"github.com/ignite/forms-api/internal/submission"
)

// Service renders templates and dispatches the resulting emails. It is
// the single entry point handlers use for notifications.
type Service struct {
	dispatcher *Dispatcher
	templates  *Templates
}

// NewService wires a dispatcher and the template set together.
func NewService(gateway Gateway, sender SenderConfig, cfg retry.Config) *Service {
	return &Service{
		dispatcher: NewDispatcher(gateway, sender, cfg),
		templates:  NewTemplates(),
	}
}

// ContactConfirmation sends the submitter their confirmation email.
// Failures propagate so the caller can report degraded success.
func (s *Service) ContactConfirmation(ctx context.Context, c *submission.Contact) error {
	subject, html, text, err := s.templates.ContactConfirmation(c)
	if err != nil {
		return &submission.NotificationError{Kind: "contact_confirmation", Err: err}
	}
	return s.dispatcher.SendCritical(ctx, "contact_confirmation", []string{c.Email}, subject, html, text)
}

// WaitlistConfirmation sends the signup confirmation with the assigned
// position. Failures propagate.
func (s *Service) WaitlistConfirmation(ctx context.Context, e *submission.WaitlistEntry) error {
	subject, html, text, err := s.templates.WaitlistConfirmation(e)
	if err != nil {
		return &submission.NotificationError{Kind: "waitlist_confirmation", Err: err}
	}
	return s.dispatcher.SendCritical(ctx, "waitlist_confirmation", []string{e.Email}, subject, html, text)
}

// AdminContactAlert notifies the admin recipients about a new contact
// submission. Best effort: errors are logged, never returned.
func (s *Service) AdminContactAlert(ctx context.Context, c *submission.Contact) {
	subject, html, err := s.templates.AdminContactAlert(c)
	if err != nil {
		logger.Error("rendering admin contact alert", "error", err)
		return
	}
	s.dispatcher.NotifyAdmins(ctx, "admin_contact_alert", subject, html)
}

// AdminWaitlistAlert notifies the admin recipients about a new waitlist
// signup. Best effort.
func (s *Service) AdminWaitlistAlert(ctx context.Context, e *submission.WaitlistEntry) {
	subject, html, err := s.templates.AdminWaitlistAlert(e)
	if err != nil {
		logger.Error("rendering admin waitlist alert", "error", err)
		return
	}
	s.dispatcher.NotifyAdmins(ctx, "admin_waitlist_alert", subject, html)
}
