package leads

import (
	"time"

	"github.com/harborlane/harborlane/internal/shared"
)

// Lead is an enquiry captured from the public site.
type Lead struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Message      string
	PropertyType string
	PropertyID   *int64
	CreatedOn    time.Time
	UpdatedOn    time.Time
	Mode         shared.DataMode
}

// Input carries the fields of an enquiry submission.
type Input struct {
	Name         string
	Email        string
	Phone        string
	Message      string
	PropertyType string
	PropertyID   *int64
}

// Query narrows the admin lead list.
type Query struct {
	Search string
	Page   int
}
