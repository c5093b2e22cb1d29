package properties

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harborlane/harborlane/internal/shared"
)

// Service handles property business logic.
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

	allowed, err := shared.AllowedActions(ctx, s.resolver, principalID, shared.ResourceProperty,
		shared.ActionUpdate, shared.ActionDelete)
	if err != nil {
		return shared.TableView{}, err
	}

	view := shared.TableView{
		Columns: []shared.Column{
			{Key: "title", Label: "Title"},
			{Key: "city", Label: "City"},
			{Key: "listing_type", Label: "Listing"},
			{Key: "type", Label: "Type"},
			{Key: "price", Label: "Price"},
			{Key: "updated_on", Label: "Updated"},
		},
		Pagination: pagination,
	}
	for _, prop := range list {
		row := shared.Row{
			ID: prop.ID,
			Cells: []string{
				prop.Title, prop.City, prop.ListingType, prop.TypeName,
				strconv.FormatFloat(prop.Price, 'f', 0, 64),
				prop.UpdatedOn.Format("02 Jan 2006 15:04"),
			},
		}
		for _, action := range allowed {
			row.Actions = append(row.Actions, propertyRowAction(prop.ID, action))
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// Catalog is the public browse result: one page of listings plus the filter
// values the search bar offers.
type Catalog struct {
	Properties []Property
	Pagination shared.Pagination
	Cities     []string
	Types      []string
	Query      Query
}

// Browse serves the public listing page. Unknown filter values are dropped
// rather than rejected.
func (s *Service) Browse(ctx context.Context, q Query) (Catalog, error) {
	q = q.Normalize()
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return Catalog{}, err
	}
	pagination := shared.NewPagination(q.Page, shared.PageSize, total)

	list, err := s.repo.List(ctx, q, pagination.PerPage, pagination.Offset())
	if err != nil {
		return Catalog{}, err
	}
	cities, err := s.repo.Cities(ctx)
	if err != nil {
		return Catalog{}, err
	}
	types, err := s.repo.TypeNames(ctx)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Properties: list, Pagination: pagination, Cities: cities, Types: types, Query: q}, nil
}

// Total counts all non-deleted listings, for the dashboard.
func (s *Service) Total(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, Query{})
}

// Get fetches a property by ID.
func (s *Service) Get(ctx context.Context, id int64) (Property, error) {
	if id <= 0 {
		return Property{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// TypeNames lists property type names for form selects.
func (s *Service) TypeNames(ctx context.Context) ([]string, error) {
	return s.repo.TypeNames(ctx)
}

// Create validates the submission and persists the listing, its type and
// its images atomically.
func (s *Service) Create(ctx context.Context, in Input) (Property, error) {
	if err := validateInput(in); err != nil {
		return Property{}, err
	}
	prop, err := s.repo.CreateWithAssets(ctx, in)
	if err != nil {
		return Property{}, err
	}
	s.record(ctx, in.ActorID, "property.create", prop.ID)
	return prop, nil
}

// Update rewrites an existing listing. Repeating the same update leaves the
// stored state unchanged.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Property, error) {
	if err := validateInput(in); err != nil {
		return Property{}, err
	}
	prop, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Property{}, err
	}
	s.record(ctx, in.ActorID, "property.update", prop.ID)
	return prop, nil
}

// Delete transitions the listing to the Deleted state.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetMode(ctx, id, shared.ModeDeleted, actorID); err != nil {
		return err
	}
	s.record(ctx, actorID, "property.delete", id)
	return nil
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: property title is required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Address) == "" {
		return fmt.Errorf("%w: property address is required", shared.ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", shared.ErrValidation)
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, propertyID int64) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "property",
		EntityID: strconv.FormatInt(propertyID, 10),
	})
}

func propertyRowAction(id int64, action string) shared.RowAction {
	base := "/admin/properties/" + strconv.FormatInt(id, 10)
	if action == shared.ActionDelete {
		return shared.RowAction{Name: action, Label: "Delete", URL: base + "/delete", Method: "POST"}
	}
	return shared.RowAction{Name: action, Label: "Edit", URL: base + "/edit", Method: "GET"}
}
