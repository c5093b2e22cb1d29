package rbac

import "time"

// Grant is one (resource class, action) permission entry on a role.
type Grant struct {
	RoleID    int64
	Resource  string
	Action    string
	Allowed   bool
	CreatedOn time.Time
}

// GrantKey identifies a grant within a role. Grants are unique per
// (role, resource, action) triple.
type GrantKey struct {
	Resource string
	Action   string
}

// Principal describes the authenticated actor.
type Principal interface {
	GetID() int64
}
