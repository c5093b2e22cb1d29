package roles

import (
	"time"

	"github.com/harborlane/harborlane/internal/shared"
)

// Role is a named bundle of permission grants assigned to principals.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   int64
	UpdatedBy   int64
	CreatedOn   time.Time
	UpdatedOn   time.Time
	Mode        shared.DataMode
}

// Query narrows the role list view.
type Query struct {
	Search string
	Page   int
}
