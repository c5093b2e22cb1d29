package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlane/harborlane/internal/shared"
)

type stubGrantRepo struct {
	grants   map[string]bool
	err      error
	replaced []Grant
}

func (s *stubGrantRepo) LookupGrant(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	allowed, ok := s.grants[resource+"."+action]
	if !ok {
		return false, shared.ErrNotFound
	}
	return allowed, nil
}

func (s *stubGrantRepo) RoleGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	return nil, nil
}

func (s *stubGrantRepo) ReplaceRoleGrants(ctx context.Context, roleID int64, grants []Grant) error {
	s.replaced = grants
	return nil
}

func TestHasPermissionDefaultDeny(t *testing.T) {
	svc := NewService(&stubGrantRepo{grants: map[string]bool{}})

	allowed, err := svc.HasPermission(context.Background(), 7, "property", "delete")
	require.NoError(t, err)
	assert.False(t, allowed, "missing grant must resolve to deny, not error")
}

func TestHasPermissionGrantFlags(t *testing.T) {
	svc := NewService(&stubGrantRepo{grants: map[string]bool{
		"property.list":   true,
		"property.delete": false,
	}})

	allowed, err := svc.HasPermission(context.Background(), 7, "property", "list")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.HasPermission(context.Background(), 7, "Property", "DELETE")
	require.NoError(t, err)
	assert.False(t, allowed, "explicit deny grant resolves to false")
}

func TestHasPermissionAnonymous(t *testing.T) {
	svc := NewService(&stubGrantRepo{grants: map[string]bool{"role.list": true}})

	allowed, err := svc.HasPermission(context.Background(), 0, "role", "list")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermissionStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewService(&stubGrantRepo{err: storeErr})

	allowed, err := svc.HasPermission(context.Background(), 7, "role", "list")
	assert.ErrorIs(t, err, storeErr, "store failures propagate instead of silently denying")
	assert.False(t, allowed)
}

func TestReplaceRoleGrantsDeduplicates(t *testing.T) {
	repo := &stubGrantRepo{}
	svc := NewService(repo)

	err := svc.ReplaceRoleGrants(context.Background(), 3, []Grant{
		{Resource: "property", Action: "list", Allowed: true},
		{Resource: "property", Action: "list", Allowed: false},
		{Resource: "lead", Action: "delete", Allowed: true},
		{Resource: "", Action: "list", Allowed: true},
	})
	require.NoError(t, err)

	require.Len(t, repo.replaced, 2)
	assert.Equal(t, "property", repo.replaced[0].Resource)
	assert.False(t, repo.replaced[0].Allowed, "last occurrence of a duplicate wins")
	assert.Equal(t, int64(3), repo.replaced[0].RoleID)
	assert.Equal(t, "lead", repo.replaced[1].Resource)
}
