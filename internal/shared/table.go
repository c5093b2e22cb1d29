package shared

import "context"

// Column describes a table column for list views.
type Column struct {
	Key   string
	Label string
}

// RowAction is an affordance attached to a table row. Actions the principal
// is not granted are never included in a TableView.
type RowAction struct {
	Name   string
	Label  string
	URL    string
	Method string
}

// Row is one record projected for display.
type Row struct {
	ID      int64
	Cells   []string
	Actions []RowAction
}

// TableView is a paginated, filtered, sorted projection of records.
type TableView struct {
	Columns    []Column
	Rows       []Row
	Pagination Pagination
}

// AllowedActions resolves which of the candidate actions the principal holds
// on the resource class. The resolver is consulted once per action, not once
// per row. A resolver miss drops the action; a store error aborts the build.
func AllowedActions(ctx context.Context, resolver PermissionResolver, principalID int64, resource string, actions ...string) ([]string, error) {
	allowed := make([]string, 0, len(actions))
	for _, action := range actions {
		ok, err := resolver.HasPermission(ctx, principalID, resource, action)
		if err != nil {
			return nil, err
		}
		if ok {
			allowed = append(allowed, action)
		}
	}
	return allowed, nil
}
