package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/forms-api/internal/pkg/httputil"
	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/submission"
)

// ListContacts handles GET /api/admin/contacts?status=&limit=.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	status := submission.ContactStatus(r.URL.Query().Get("status"))
	if status != "" && !submission.ValidContactStatus(status) {
		httputil.BadRequest(w, "unknown contact status: "+string(status))
		return
	}

	contacts, err := h.store.ListContacts(r.Context(), status, queryLimit(r))
	if err != nil {
		logger.Error("listing contacts", "error", err)
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// GetContact handles GET /api/admin/contacts/{id}.
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.store.GetContact(r.Context(), id)
	if err != nil {
		logger.Error("fetching contact", "id", id, "error", err)
		httputil.InternalError(w, err)
		return
	}
	if c == nil {
		httputil.NotFound(w, "contact not found")
		return
	}
	httputil.OK(w, c)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateContactStatus handles PATCH /api/admin/contacts/{id}/status.
func (h *Handlers) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	status := submission.ContactStatus(req.Status)
	if !submission.ValidContactStatus(status) {
		httputil.BadRequest(w, "unknown contact status: "+req.Status)
		return
	}

	c, err := h.store.UpdateContactStatus(r.Context(), id, status)
	if err != nil {
		logger.Error("updating contact status", "id", id, "error", err)
		httputil.InternalError(w, err)
		return
	}
	if c == nil {
		httputil.NotFound(w, "contact not found")
		return
	}
	httputil.OK(w, c)
}

// ListWaitlist handles GET /api/admin/waitlist?status=&limit=.
func (h *Handlers) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	status := submission.WaitlistStatus(r.URL.Query().Get("status"))
	if status != "" && !submission.ValidWaitlistStatus(status) {
		httputil.BadRequest(w, "unknown waitlist status: "+string(status))
		return
	}

	entries, err := h.store.ListWaitlist(r.Context(), status, queryLimit(r))
	if err != nil {
		logger.Error("listing waitlist", "error", err)
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"waitlist": entries,
		"count":    len(entries),
	})
}

// GetWaitlistEntry handles GET /api/admin/waitlist/{id}.
func (h *Handlers) GetWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := h.store.GetWaitlistEntry(r.Context(), id)
	if err != nil {
		logger.Error("fetching waitlist entry", "id", id, "error", err)
		httputil.InternalError(w, err)
		return
	}
	if e == nil {
		httputil.NotFound(w, "waitlist entry not found")
		return
	}
	httputil.OK(w, e)
}

// UpdateWaitlistStatus handles PATCH /api/admin/waitlist/{id}/status.
func (h *Handlers) UpdateWaitlistStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	status := submission.WaitlistStatus(req.Status)
	if !submission.ValidWaitlistStatus(status) {
		httputil.BadRequest(w, "unknown waitlist status: "+req.Status)
		return
	}

	e, err := h.store.UpdateWaitlistStatus(r.Context(), id, status)
	if err != nil {
		logger.Error("updating waitlist status", "id", id, "error", err)
		httputil.InternalError(w, err)
		return
	}
	if e == nil {
		httputil.NotFound(w, "waitlist entry not found")
		return
	}
	httputil.OK(w, e)
}

// Export handles POST /api/admin/export.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "export bucket not configured")
		return
	}

	snap, err := h.exporter.ExportAll(r.Context(), time.Now())
	if err != nil {
		logger.Error("exporting submissions", "error", err)
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, snap)
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
