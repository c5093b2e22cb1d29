package shared

import "context"

// Resource classes subject to permission checks.
const (
	ResourceRole        = "role"
	ResourceProperty    = "property"
	ResourceMaintenance = "maintenance"
	ResourceLead        = "lead"
)

// Actions checked against role grants.
const (
	ActionList             = "list"
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDelete           = "delete"
	ActionUpdatePermission = "update_permission"
)

// Resources lists every resource class managed from the admin console.
func Resources() []string {
	return []string{ResourceRole, ResourceProperty, ResourceMaintenance, ResourceLead}
}

// Actions lists every grantable action for a resource class.
func Actions(resource string) []string {
	actions := []string{ActionList, ActionCreate, ActionUpdate, ActionDelete}
	if resource == ResourceRole {
		actions = append(actions, ActionUpdatePermission)
	}
	return actions
}

// PermissionResolver answers whether a principal's role grants an action on a
// resource class. A missing grant is false, not an error; only store failures
// surface as errors.
type PermissionResolver interface {
	HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error)
}
