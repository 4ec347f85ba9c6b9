package notify

import (
	"context"
	"time"

	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/pkg/retry"
	"github.com/ignite/forms-api/internal/submission"
)

// Sender identity and internal recipients for outbound mail.
type SenderConfig struct {
	From            string
	FromName        string
	ReplyTo         string
	AdminRecipients []string
}

// Dispatcher sends notifications with retry. Critical sends report their
// final failure to the caller; non-critical sends never do.
type Dispatcher struct {
	gateway Gateway
	sender  SenderConfig
	cfg     retry.Config

	// nonCriticalTimeout bounds a fire-and-forget send that outlives its
	// originating request.
	nonCriticalTimeout time.Duration
}

// NewDispatcher builds a dispatcher. cfg controls the retry policy for
// every send.
func NewDispatcher(gateway Gateway, sender SenderConfig, cfg retry.Config) *Dispatcher {
	return &Dispatcher{
		gateway:            gateway,
		sender:             sender,
		cfg:                cfg,
		nonCriticalTimeout: 2 * time.Minute,
	}
}

func (d *Dispatcher) message(to []string, subject, html, text string) *Message {
	return &Message{
		From:     d.sender.From,
		FromName: d.sender.FromName,
		ReplyTo:  d.sender.ReplyTo,
		To:       to,
		Subject:  subject,
		HTML:     html,
		Text:     text,
	}
}

// SendCritical delivers msg with retry. On exhaustion or a non-retryable
// failure it returns a NotificationError wrapping the cause. The caller
// is expected to report degraded success — the record behind the
// notification is already durable and must not be rolled back.
func (d *Dispatcher) SendCritical(ctx context.Context, kind string, to []string, subject, html, text string) error {
	msg := d.message(to, subject, html, text)
	_, err := retry.Do(ctx, kind, d.cfg, func(ctx context.Context) (string, error) {
		return d.gateway.Send(ctx, msg)
	})
	if err != nil {
		return &submission.NotificationError{Kind: kind, Err: err}
	}
	return nil
}

// SendNonCritical delivers msg with retry. A final failure is logged and
// swallowed; it never reaches the caller's control flow.
func (d *Dispatcher) SendNonCritical(ctx context.Context, kind string, to []string, subject, html, text string) {
	msg := d.message(to, subject, html, text)
	_, err := retry.Do(ctx, kind, d.cfg, func(ctx context.Context) (string, error) {
		return d.gateway.Send(ctx, msg)
	})
	if err != nil {
		logger.Warn("non-critical notification failed", "kind", kind, "error", err.Error())
	}
}

// DispatchNonCritical fires SendNonCritical on its own goroutine and
// returns immediately. The send is detached from the request context so
// an already-written response does not cancel it; failures surface only
// in the log.
func (d *Dispatcher) DispatchNonCritical(ctx context.Context, kind string, to []string, subject, html, text string) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.nonCriticalTimeout)
	go func() {
		defer cancel()
		d.SendNonCritical(detached, kind, to, subject, html, text)
	}()
}

// NotifyAdmins is a convenience for internal alerts; a no-op when no
// admin recipients are configured.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, kind, subject, html string) {
	if len(d.sender.AdminRecipients) == 0 {
		return
	}
	d.DispatchNonCritical(ctx, kind, d.sender.AdminRecipients, subject, html, "")
}
