// Package submission defines the persisted form-submission records and
// the error taxonomy shared by the store, the notifier, and the API.
package submission

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactStatus tracks the handling lifecycle of a contact submission.
type ContactStatus string

const (
	ContactStatusNew     ContactStatus = "new"
	ContactStatusRead    ContactStatus = "read"
	ContactStatusReplied ContactStatus = "replied"
)

// WaitlistStatus tracks the lifecycle of a waitlist signup.
type WaitlistStatus string

const (
	WaitlistStatusActive    WaitlistStatus = "active"
	WaitlistStatusNotified  WaitlistStatus = "notified"
	WaitlistStatusConverted WaitlistStatus = "converted"
)

// Contact is a persisted contact-form submission. ID and SubmittedAt are
// assigned by the store at creation and immutable afterwards.
type Contact struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Message     string        `json:"message"`
	Status      ContactStatus `json:"status"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// WaitlistEntry is a persisted waitlist signup. Position is assigned once
// at creation (count of active entries + 1) and never changes. Positions
// are monotonically increasing in creation order but two concurrent
// signups can observe the same count and share a position; it is an
// informational ordinal, not a uniqueness key.
type WaitlistEntry struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name,omitempty"`
	Position    int            `json:"position"`
	Status      WaitlistStatus `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// NewID returns a fresh opaque record id.
func NewID() string {
	return uuid.NewString()
}

// NormalizeEmail lowercases and trims an address so it can serve as a
// grouping key. Full syntactic validation is the caller's problem.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidContactStatus reports whether s is a known contact status.
func ValidContactStatus(s ContactStatus) bool {
	switch s {
	case ContactStatusNew, ContactStatusRead, ContactStatusReplied:
		return true
	}
	return false
}

// ValidWaitlistStatus reports whether s is a known waitlist status.
func ValidWaitlistStatus(s WaitlistStatus) bool {
	switch s {
	case WaitlistStatusActive, WaitlistStatusNotified, WaitlistStatusConverted:
		return true
	}
	return false
}
