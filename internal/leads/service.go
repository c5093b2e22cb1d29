package leads

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/harborlane/harborlane/internal/shared"
)

// Notifier hands a captured lead to the background notification queue.
// Enqueue failures never fail the capture; the lead row is the source of
// truth and the notification is best effort.
type Notifier interface {
	EnqueueLeadNotify(ctx context.Context, lead Lead) error
}

// Service handles lead business logic.
type Service struct {
	repo     RepositoryPort
	resolver shared.PermissionResolver
	audit    *shared.AuditLogger
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds Service instance. notifier may be nil when no queue is
// configured.
func NewService(repo RepositoryPort, resolver shared.PermissionResolver, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, notifier: notifier, logger: logger}
}

// BuildTable produces the paginated admin listing with the row actions the
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

	allowed, err := shared.AllowedActions(ctx, s.resolver, principalID, shared.ResourceLead,
		shared.ActionUpdate, shared.ActionDelete)
	if err != nil {
		return shared.TableView{}, err
	}

	view := shared.TableView{
		Columns: []shared.Column{
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "phone", Label: "Phone"},
			{Key: "property_type", Label: "Interested In"},
			{Key: "created_on", Label: "Received"},
		},
		Pagination: pagination,
	}
	for _, lead := range list {
		row := shared.Row{
			ID: lead.ID,
			Cells: []string{
				lead.Name, lead.Email, lead.Phone, lead.PropertyType,
				lead.CreatedOn.Format("02 Jan 2006 15:04"),
			},
		}
		for _, action := range allowed {
			row.Actions = append(row.Actions, leadRowAction(lead.ID, action))
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// Total counts all non-deleted leads, for the dashboard.
func (s *Service) Total(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, Query{})
}

// Get fetches a lead by ID.
func (s *Service) Get(ctx context.Context, id int64) (Lead, error) {
	if id <= 0 {
		return Lead{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Capture validates and stores an enquiry, then queues the notification.
// Capture is public; there is no actor to attribute.
func (s *Service) Capture(ctx context.Context, in Input) (Lead, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Lead{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		return Lead{}, fmt.Errorf("%w: an email address or phone number is required", shared.ErrValidation)
	}

	lead, err := s.repo.Create(ctx, in)
	if err != nil {
		return Lead{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.EnqueueLeadNotify(ctx, lead); err != nil && s.logger != nil {
			s.logger.Error("enqueue lead notification", slog.Any("error", err), slog.Int64("lead_id", lead.ID))
		}
	}
	return lead, nil
}

// Delete transitions the lead to the Deleted state.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetMode(ctx, id, shared.ModeDeleted, actorID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "lead.delete",
		Entity:   "lead",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

func leadRowAction(id int64, action string) shared.RowAction {
	base := "/admin/leads/" + strconv.FormatInt(id, 10)
	if action == shared.ActionDelete {
		return shared.RowAction{Name: action, Label: "Delete", URL: base + "/delete", Method: "POST"}
	}
	return shared.RowAction{Name: action, Label: "View", URL: base, Method: "GET"}
}
