package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlane/harborlane/internal/shared"
)

type fakeRoleRepo struct {
	nextID int64
	rows   map[int64]Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{nextID: 1, rows: map[int64]Role{}}
}

func (f *fakeRoleRepo) Count(ctx context.Context, q Query) (int, error) {
	n := 0
	for _, role := range f.rows {
		if role.Mode != shared.ModeDeleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeRoleRepo) List(ctx context.Context, q Query, limit, offset int) ([]Role, error) {
	var list []Role
	for _, role := range f.rows {
		if role.Mode != shared.ModeDeleted {
			list = append(list, role)
		}
	}
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeRoleRepo) Get(ctx context.Context, id int64) (Role, error) {
	role, ok := f.rows[id]
	if !ok || role.Mode == shared.ModeDeleted {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (f *fakeRoleRepo) Create(ctx context.Context, role Role) (Role, error) {
	role.ID = f.nextID
	f.nextID++
	role.CreatedOn = time.Now()
	role.UpdatedOn = role.CreatedOn
	role.Mode = shared.ModeActive
	f.rows[role.ID] = role
	return role, nil
}

func (f *fakeRoleRepo) Update(ctx context.Context, id int64, role Role) (Role, error) {
	existing, ok := f.rows[id]
	if !ok || existing.Mode == shared.ModeDeleted {
		return Role{}, shared.ErrNotFound
	}
	existing.Name = role.Name
	existing.Description = role.Description
	existing.UpdatedBy = role.UpdatedBy
	existing.UpdatedOn = time.Now()
	f.rows[id] = existing
	return existing, nil
}

func (f *fakeRoleRepo) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	existing, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Mode = mode
	existing.UpdatedBy = actorID
	existing.UpdatedOn = time.Now()
	f.rows[id] = existing
	return nil
}

type allowAll struct{}

func (allowAll) HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	return true, nil
}

type denyAll struct{}

func (denyAll) HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	return false, nil
}

func TestCreateGetRoundTrip(t *testing.T) {
	svc := NewService(newFakeRoleRepo(), allowAll{}, nil)

	created, err := svc.Create(context.Background(), 1, "Agent", "Listing agents")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agent", got.Name)
	assert.Equal(t, "Listing agents", got.Description)
	assert.Equal(t, shared.ModeActive, got.Mode)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeRoleRepo(), allowAll{}, nil)

	_, err := svc.Create(context.Background(), 1, "   ", "desc")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateIsIdempotent(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewService(repo, allowAll{}, nil)

	created, err := svc.Create(context.Background(), 1, "Agent", "v1")
	require.NoError(t, err)

	first, err := svc.Update(context.Background(), 1, created.ID, "Agent", "v2")
	require.NoError(t, err)
	second, err := svc.Update(context.Background(), 1, created.ID, "Agent", "v2")
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Description, second.Description)
	assert.Len(t, repo.rows, 1, "update must not create extra rows")
}

func TestDeletedRoleExcludedFromTable(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewService(repo, allowAll{}, nil)

	created, err := svc.Create(context.Background(), 1, "Temp", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))

	table, err := svc.BuildTable(context.Background(), 1, Query{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTableActionsFollowGrants(t *testing.T) {
	repo := newFakeRoleRepo()

	svcAllowed := NewService(repo, allowAll{}, nil)
	_, err := svcAllowed.Create(context.Background(), 1, "Agent", "")
	require.NoError(t, err)

	table, err := svcAllowed.BuildTable(context.Background(), 1, Query{Page: 1})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Len(t, table.Rows[0].Actions, 3)

	svcDenied := NewService(repo, denyAll{}, nil)
	table, err = svcDenied.BuildTable(context.Background(), 1, Query{Page: 1})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Empty(t, table.Rows[0].Actions, "ungranted actions never appear in the view")
}
