package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/harborlane/harborlane/internal/shared"
)

// Service is the permission resolver. The deny-by-default policy is explicit:
// any lookup miss resolves to false, and only genuine store failures surface
// as errors to the caller.
type Service struct {
	repo Repository
}

// NewService constructs a Service backed by the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// HasPermission reports whether the principal's role grants the action on the
// resource class.
func (s *Service) HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	if principalID <= 0 {
		return false, nil
	}
	resource = strings.TrimSpace(strings.ToLower(resource))
	action = strings.TrimSpace(strings.ToLower(action))
	if resource == "" || action == "" {
		return false, nil
	}
	allowed, err := s.repo.LookupGrant(ctx, principalID, resource, action)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return allowed, nil
}

// RoleGrants returns the grants attached to a role, keyed for form rendering.
func (s *Service) RoleGrants(ctx context.Context, roleID int64) (map[GrantKey]bool, error) {
	grants, err := s.repo.RoleGrants(ctx, roleID)
	if err != nil {
		return nil, err
	}
	set := make(map[GrantKey]bool, len(grants))
	for _, g := range grants {
		set[GrantKey{Resource: g.Resource, Action: g.Action}] = g.Allowed
	}
	return set, nil
}

// ReplaceRoleGrants replaces the entire grant set of a role. Duplicate
// (resource, action) entries collapse to the last occurrence so the stored
// set honors the uniqueness invariant.
func (s *Service) ReplaceRoleGrants(ctx context.Context, roleID int64, grants []Grant) error {
	seen := make(map[GrantKey]int, len(grants))
	deduped := make([]Grant, 0, len(grants))
	for _, g := range grants {
		g.RoleID = roleID
		g.Resource = strings.TrimSpace(strings.ToLower(g.Resource))
		g.Action = strings.TrimSpace(strings.ToLower(g.Action))
		if g.Resource == "" || g.Action == "" {
			continue
		}
		key := GrantKey{Resource: g.Resource, Action: g.Action}
		if idx, ok := seen[key]; ok {
			deduped[idx] = g
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, g)
	}
	return s.repo.ReplaceRoleGrants(ctx, roleID, deduped)
}

var _ shared.PermissionResolver = (*Service)(nil)
