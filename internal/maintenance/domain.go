package maintenance

import (
	"time"

	"github.com/harborlane/harborlane/internal/shared"
)

// Statuses a request moves through. New intake always starts as pending.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Request is a maintenance ticket raised by a tenant or site visitor.
type Request struct {
	ID            int64
	Name          string
	Email         string
	Phone         string
	Address       string
	Description   string
	Urgency       string
	PreferredDate *time.Time
	Attachment    string
	Status        string
	UpdatedBy     int64
	CreatedOn     time.Time
	UpdatedOn     time.Time
	Mode          shared.DataMode
}

// Input carries the fields of a maintenance submission.
type Input struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	Description   string
	Urgency       string
	PreferredDate *time.Time
	Attachment    string
}

// Query narrows the admin request list.
type Query struct {
	Search string
	Status string
	Page   int
}

// Normalize drops unsupported status filter values instead of erroring.
func (q Query) Normalize() Query {
	switch q.Status {
	case StatusPending, StatusInProgress, StatusResolved:
	default:
		q.Status = ""
	}
	return q
}

// ValidStatus reports whether s is a status a request may transition to.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Urgency levels accepted from the intake form. Anything else falls back to
// normal.
const (
	UrgencyLow    = "low"
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
)

// NormalizeUrgency maps unknown urgency values to normal.
func NormalizeUrgency(u string) string {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
		return u
	}
	return UrgencyNormal
}
