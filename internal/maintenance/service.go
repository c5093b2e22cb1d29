package maintenance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harborlane/harborlane/internal/shared"
)

// Service handles maintenance request business logic.
type Service struct {
	repo     RepositoryPort
	resolver shared.PermissionResolver
	audit    *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver shared.PermissionResolver, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit}
}

// BuildTable produces the paginated admin listing with the row actions the
// principal is granted. The requested page clamps to the valid range.
func (s *Service) BuildTable(ctx context.Context, principalID int64, q Query) (shared.TableView, error) {
	q = q.Normalize()
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return shared.TableView{}, err
	}
	pagination := shared.NewPagination(q.Page, shared.PageSize, total)

	list, err := s.repo.List(ctx, q, pagination.PerPage, pagination.Offset())
	if err != nil {
		return shared.TableView{}, err
	}

	allowed, err := shared.AllowedActions(ctx, s.resolver, principalID, shared.ResourceMaintenance,
		shared.ActionUpdate, shared.ActionDelete)
	if err != nil {
		return shared.TableView{}, err
	}

	view := shared.TableView{
		Columns: []shared.Column{
			{Key: "name", Label: "Name"},
			{Key: "address", Label: "Address"},
			{Key: "urgency", Label: "Urgency"},
			{Key: "status", Label: "Status"},
			{Key: "created_on", Label: "Received"},
		},
		Pagination: pagination,
	}
	for _, req := range list {
		row := shared.Row{
			ID: req.ID,
			Cells: []string{
				req.Name, req.Address, req.Urgency, req.Status,
				req.CreatedOn.Format("02 Jan 2006 15:04"),
			},
		}
		for _, action := range allowed {
			row.Actions = append(row.Actions, requestRowAction(req.ID, action))
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// PendingCount counts open requests, for the dashboard.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, Query{Status: StatusPending})
}

// Get fetches a request by ID.
func (s *Service) Get(ctx context.Context, id int64) (Request, error) {
	if id <= 0 {
		return Request{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Submit validates intake fields and files the request as pending. Intake is
// public; there is no actor to attribute.
func (s *Service) Submit(ctx context.Context, in Input) (Request, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Request{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return Request{}, fmt.Errorf("%w: a problem description is required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		return Request{}, fmt.Errorf("%w: an email address or phone number is required", shared.ErrValidation)
	}
	in.Urgency = NormalizeUrgency(in.Urgency)
	return s.repo.Create(ctx, in)
}

// UpdateStatus transitions the request to a new workflow status.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id int64, status string) (Request, error) {
	if !ValidStatus(status) {
		return Request{}, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}
	req, err := s.repo.UpdateStatus(ctx, id, status, actorID)
	if err != nil {
		return Request{}, err
	}
	s.record(ctx, actorID, "maintenance.status", req.ID)
	return req, nil
}

// Delete transitions the request to the Deleted state.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetMode(ctx, id, shared.ModeDeleted, actorID); err != nil {
		return err
	}
	s.record(ctx, actorID, "maintenance.delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, requestID int64) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "maintenance_request",
		EntityID: strconv.FormatInt(requestID, 10),
	})
}

func requestRowAction(id int64, action string) shared.RowAction {
	base := "/admin/maintenance/" + strconv.FormatInt(id, 10)
	if action == shared.ActionDelete {
		return shared.RowAction{Name: action, Label: "Delete", URL: base + "/delete", Method: "POST"}
	}
	return shared.RowAction{Name: action, Label: "View", URL: base, Method: "GET"}
}
