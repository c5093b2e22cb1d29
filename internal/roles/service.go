package roles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harborlane/harborlane/internal/shared"
)

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	resolver shared.PermissionResolver
	audit    *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver shared.PermissionResolver, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit}
}

// BuildTable produces the paginated role listing with the row actions the
// principal is granted. The requested page clamps to the valid range.
func (s *Service) BuildTable(ctx context.Context, principalID int64, q Query) (shared.TableView, error) {
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return shared.TableView{}, err
	}
	pagination := shared.NewPagination(q.Page, shared.PageSize, total)

	list, err := s.repo.List(ctx, q, pagination.PerPage, pagination.Offset())
	if err != nil {
		return shared.TableView{}, err
	}

	allowed, err := shared.AllowedActions(ctx, s.resolver, principalID, shared.ResourceRole,
		shared.ActionUpdate, shared.ActionDelete, shared.ActionUpdatePermission)
	if err != nil {
		return shared.TableView{}, err
	}

	view := shared.TableView{
		Columns: []shared.Column{
			{Key: "name", Label: "Role"},
			{Key: "description", Label: "Description"},
			{Key: "updated_on", Label: "Updated"},
		},
		Pagination: pagination,
	}
	for _, role := range list {
		row := shared.Row{
			ID:    role.ID,
			Cells: []string{role.Name, role.Description, role.UpdatedOn.Format("02 Jan 2006 15:04")},
		}
		for _, action := range allowed {
			row.Actions = append(row.Actions, roleRowAction(role.ID, action))
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	if id <= 0 {
		return Role{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a new role.
func (s *Service) Create(ctx context.Context, actorID int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	role, err := s.repo.Create(ctx, Role{Name: name, Description: strings.TrimSpace(description), CreatedBy: actorID})
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.create", role.ID)
	return role, nil
}

// Update rewrites an existing role. Repeating the same update leaves the
// stored state unchanged.
func (s *Service) Update(ctx context.Context, actorID, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	role, err := s.repo.Update(ctx, id, Role{Name: name, Description: strings.TrimSpace(description), UpdatedBy: actorID})
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.update", role.ID)
	return role, nil
}

// Delete transitions the role to the Deleted state.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetMode(ctx, id, shared.ModeDeleted, actorID); err != nil {
		return err
	}
	s.record(ctx, actorID, "role.delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, roleID int64) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
	})
}

func roleRowAction(id int64, action string) shared.RowAction {
	base := "/admin/roles/" + strconv.FormatInt(id, 10)
	switch action {
	case shared.ActionUpdate:
		return shared.RowAction{Name: action, Label: "Edit", URL: base + "/edit", Method: "GET"}
	case shared.ActionDelete:
		return shared.RowAction{Name: action, Label: "Delete", URL: base + "/delete", Method: "POST"}
	default:
		return shared.RowAction{Name: action, Label: "Permissions", URL: base + "/permissions", Method: "GET"}
	}
}
