// Package api exposes the public form endpoints and the token-protected
// admin surface over chi.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/forms-api/internal/archive"
	"github.com/ignite/forms-api/internal/pkg/httputil"
	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/submission"
)

// Store is the persistence surface the handlers depend on.
type Store interface {
	CreateContact(ctx context.Context, c submission.Contact) (*submission.Contact, error)
	GetContact(ctx context.Context, id string) (*submission.Contact, error)
	ListContacts(ctx context.Context, status submission.ContactStatus, limit int) ([]submission.Contact, error)
	UpdateContactStatus(ctx context.Context, id string, status submission.ContactStatus) (*submission.Contact, error)
	CreateWaitlistEntry(ctx context.Context, e submission.WaitlistEntry) (*submission.WaitlistEntry, error)
	FindWaitlistByEmail(ctx context.Context, email string) (*submission.WaitlistEntry, error)
	GetWaitlistEntry(ctx context.Context, id string) (*submission.WaitlistEntry, error)
	ListWaitlist(ctx context.Context, status submission.WaitlistStatus, limit int) ([]submission.WaitlistEntry, error)
	UpdateWaitlistStatus(ctx context.Context, id string, status submission.WaitlistStatus) (*submission.WaitlistEntry, error)
}

// Notifier sends the emails triggered by a submission. Confirmation
// sends return errors; admin alerts are best effort.
type Notifier interface {
	ContactConfirmation(ctx context.Context, c *submission.Contact) error
	WaitlistConfirmation(ctx context.Context, e *submission.WaitlistEntry) error
	AdminContactAlert(ctx context.Context, c *submission.Contact)
	AdminWaitlistAlert(ctx context.Context, e *submission.WaitlistEntry)
}

// Exporter snapshots submissions to object storage.
type Exporter interface {
	ExportAll(ctx context.Context, now time.Time) (*archive.Snapshot, error)
}

// Handlers contains the HTTP handlers for all endpoints.
type Handlers struct {
	store    Store
	notifier Notifier
	exporter Exporter // nil when no export bucket is configured
}

// NewHandlers creates the handler set.
func NewHandlers(store Store, notifier Notifier, exporter Exporter) *Handlers {
	return &Handlers{store: store, notifier: notifier, exporter: exporter}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	EmailSent bool      `json:"email_sent"`
}

// SubmitContact handles POST /api/contact. The record is persisted
// before any email goes out; a failed confirmation downgrades the
// response to email_sent=false but the submission still succeeds.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := validateContact(&req); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}

	saved, err := h.store.CreateContact(r.Context(), submission.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		logger.Error("creating contact submission", "error", err)
		httputil.InternalError(w, err)
		return
	}

	emailSent := true
	if err := h.notifier.ContactConfirmation(r.Context(), saved); err != nil {
		logger.Warn("contact confirmation failed, submission saved",
			"id", saved.ID, "error", err)
		emailSent = false
	}
	h.notifier.AdminContactAlert(r.Context(), saved)

	httputil.Created(w, contactResponse{
		ID:        saved.ID,
		Email:     saved.Email,
		Status:    string(saved.Status),
		SubmittedAt: saved.SubmittedAt,
		EmailSent: emailSent,
	})
}

type waitlistRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type waitlistResponse struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Position          int    `json:"position"`
	Status            string `json:"status"`
	EmailSent         bool   `json:"email_sent"`
	AlreadyRegistered bool   `json:"already_registered,omitempty"`
}

// SubmitWaitlist handles POST /api/waitlist. A repeat signup for the
// same email returns the existing entry instead of creating a second
// one; no emails are re-sent for repeats.
func (h *Handlers) SubmitWaitlist(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		httputil.BadRequest(w, "a valid email is required")
		return
	}

	existing, err := h.store.FindWaitlistByEmail(r.Context(), req.Email)
	if err != nil {
		logger.Error("checking waitlist for duplicate", "error", err)
		httputil.InternalError(w, err)
		return
	}
	if existing != nil {
		httputil.OK(w, waitlistResponse{
			ID:                existing.ID,
			Email:             existing.Email,
			Position:          existing.Position,
			Status:            string(existing.Status),
			EmailSent:         false,
			AlreadyRegistered: true,
		})
		return
	}

	saved, err := h.store.CreateWaitlistEntry(r.Context(), submission.WaitlistEntry{
		Email: req.Email,
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		logger.Error("creating waitlist entry", "error", err)
		httputil.InternalError(w, err)
		return
	}

	emailSent := true
	if err := h.notifier.WaitlistConfirmation(r.Context(), saved); err != nil {
		logger.Warn("waitlist confirmation failed, signup saved",
			"id", saved.ID, "error", err)
		emailSent = false
	}
	h.notifier.AdminWaitlistAlert(r.Context(), saved)

	httputil.Created(w, waitlistResponse{
		ID:        saved.ID,
		Email:     saved.Email,
		Position:  saved.Position,
		Status:    string(saved.Status),
		EmailSent: emailSent,
	})
}

func validateContact(req *contactRequest) string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if !validEmail(req.Email) {
		return "a valid email is required"
	}
	if strings.TrimSpace(req.Message) == "" {
		return "message is required"
	}
	return ""
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
