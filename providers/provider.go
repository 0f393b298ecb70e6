// Package providers holds the normalized types and error taxonomy
// shared by the external provider adapters. Each adapter maps its raw
// responses into these types; the sync engine consumes nothing else.
package providers

import (
	"errors"
	"time"
)

// Provider names, stored in Assignment.Source and
// ProviderCredential.Provider.
const (
	Gradescope = "gradescope"
	Moodle     = "moodle"
)

var (
	// ErrAuth means the supplied credentials were rejected outright.
	ErrAuth = errors.New("provider: authentication failed")
	// ErrSessionExpired means a previously valid session was rejected;
	// the stored credential should be marked stale, not deleted.
	ErrSessionExpired = errors.New("provider: session expired")
	// ErrProvider covers non-success responses and error payloads. It
	// aborts the current call only.
	ErrProvider = errors.New("provider: request failed")
)

// ExternalCourse is one course as reported by a provider.
type ExternalCourse struct {
	ID   string // provider's course id
	Code string // short code, e.g. "CS 101"
	Name string // display name
	Term string // e.g. "Fall 2026", empty when the provider has no terms
}

// ExternalAssignment is one assignment as reported by a provider,
// normalized for reconciliation.
type ExternalAssignment struct {
	ExternalID string // dedup key within (user, provider)
	Title      string
	DueDate    *time.Time // nil when the provider reported none or an unparsable date
	CourseID   string     // provider's course id
	CourseCode string
	CourseName string
	Submitted  bool // provider says the student already submitted
}
