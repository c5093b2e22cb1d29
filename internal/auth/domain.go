package auth

import "time"

// User represents an authenticated principal. Every user carries exactly one
// role; authorization is resolved from that role's grants.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	RoleID       int64
	IsActive     bool
	CreatedOn    time.Time
	UpdatedOn    time.Time
}
