package maintenance

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlane/harborlane/internal/shared"
)

type fakeRequestRepo struct {
	nextID int64
	rows   map[int64]Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1, rows: map[int64]Request{}}
}

func (f *fakeRequestRepo) selectAll(q Query) []Request {
	var list []Request
	for _, req := range f.rows {
		if req.Mode == shared.ModeDeleted {
			continue
		}
		if q.Status != "" && req.Status != q.Status {
			continue
		}
		list = append(list, req)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (f *fakeRequestRepo) Count(ctx context.Context, q Query) (int, error) {
	return len(f.selectAll(q)), nil
}

func (f *fakeRequestRepo) List(ctx context.Context, q Query, limit, offset int) ([]Request, error) {
	list := f.selectAll(q)
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeRequestRepo) Get(ctx context.Context, id int64) (Request, error) {
	req, ok := f.rows[id]
	if !ok || req.Mode == shared.ModeDeleted {
		return Request{}, shared.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequestRepo) Create(ctx context.Context, in Input) (Request, error) {
	req := Request{
		ID: f.nextID, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address,
		Description: in.Description, Urgency: in.Urgency, PreferredDate: in.PreferredDate,
		Attachment: in.Attachment, Status: StatusPending,
		CreatedOn: time.Now(), UpdatedOn: time.Now(), Mode: shared.ModeActive,
	}
	f.nextID++
	f.rows[req.ID] = req
	return req, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id int64, status string, actorID int64) (Request, error) {
	req, ok := f.rows[id]
	if !ok || req.Mode == shared.ModeDeleted {
		return Request{}, shared.ErrNotFound
	}
	req.Status = status
	req.UpdatedBy = actorID
	req.UpdatedOn = time.Now()
	f.rows[id] = req
	return req, nil
}

func (f *fakeRequestRepo) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	req, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	req.Mode = mode
	req.UpdatedBy = actorID
	f.rows[id] = req
	return nil
}

type allowAll struct{}

func (allowAll) HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	return true, nil
}

func TestSubmitFilesPendingRequest(t *testing.T) {
	svc := NewService(newFakeRequestRepo(), allowAll{}, nil)

	req, err := svc.Submit(context.Background(), Input{
		Name: "Pat Lee", Email: "pat@example.com", Description: "Leaking tap in the kitchen",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, UrgencyNormal, req.Urgency, "blank urgency defaults to normal")
	assert.Equal(t, shared.ModeActive, req.Mode)
}

func TestSubmitRequiresContactAndDescription(t *testing.T) {
	svc := NewService(newFakeRequestRepo(), allowAll{}, nil)

	_, err := svc.Submit(context.Background(), Input{Name: "Pat", Description: "Broken lock"})
	assert.ErrorIs(t, err, shared.ErrValidation, "no contact detail")

	_, err = svc.Submit(context.Background(), Input{Name: "Pat", Email: "p@example.com"})
	assert.ErrorIs(t, err, shared.ErrValidation, "no description")

	_, err = svc.Submit(context.Background(), Input{Email: "p@example.com", Description: "Broken lock"})
	assert.ErrorIs(t, err, shared.ErrValidation, "no name")
}

func TestSubmitNormalizesUnknownUrgency(t *testing.T) {
	svc := NewService(newFakeRequestRepo(), allowAll{}, nil)

	req, err := svc.Submit(context.Background(), Input{
		Name: "Pat", Email: "p@example.com", Description: "Mould on ceiling", Urgency: "apocalyptic",
	})
	require.NoError(t, err)
	assert.Equal(t, UrgencyNormal, req.Urgency)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewService(repo, allowAll{}, nil)

	created, err := svc.Submit(context.Background(), Input{
		Name: "Pat", Email: "p@example.com", Description: "Blocked drain",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), 1, created.ID, "done-ish")
	assert.ErrorIs(t, err, shared.ErrValidation)

	updated, err := svc.UpdateStatus(context.Background(), 1, created.ID, StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, updated.Status)
}

func TestDeletedRequestExcludedFromTable(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewService(repo, allowAll{}, nil)

	created, err := svc.Submit(context.Background(), Input{
		Name: "Pat", Email: "p@example.com", Description: "Squeaky door",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))

	table, err := svc.BuildTable(context.Background(), 1, Query{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)

	stored, ok := repo.rows[created.ID]
	require.True(t, ok, "deletion keeps the row")
	assert.Equal(t, shared.ModeDeleted, stored.Mode)
}

func TestTableStatusFilterDropsUnknownValues(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewService(repo, allowAll{}, nil)

	first, err := svc.Submit(context.Background(), Input{Name: "A", Email: "a@example.com", Description: "x"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), Input{Name: "B", Email: "b@example.com", Description: "y"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), 1, first.ID, StatusResolved)
	require.NoError(t, err)

	table, err := svc.BuildTable(context.Background(), 1, Query{Status: StatusResolved, Page: 1})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	table, err = svc.BuildTable(context.Background(), 1, Query{Status: "whatever", Page: 1})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2, "unknown status filter is ignored, not an error")
}
