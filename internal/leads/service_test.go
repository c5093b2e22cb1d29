package leads

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlane/harborlane/internal/shared"
)

type fakeLeadRepo struct {
	nextID int64
	rows   map[int64]Lead
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{nextID: 1, rows: map[int64]Lead{}}
}

func (f *fakeLeadRepo) selectAll() []Lead {
	var list []Lead
	for _, lead := range f.rows {
		if lead.Mode != shared.ModeDeleted {
			list = append(list, lead)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (f *fakeLeadRepo) Count(ctx context.Context, q Query) (int, error) {
	return len(f.selectAll()), nil
}

func (f *fakeLeadRepo) List(ctx context.Context, q Query, limit, offset int) ([]Lead, error) {
	list := f.selectAll()
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeLeadRepo) Get(ctx context.Context, id int64) (Lead, error) {
	lead, ok := f.rows[id]
	if !ok || lead.Mode == shared.ModeDeleted {
		return Lead{}, shared.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadRepo) Create(ctx context.Context, in Input) (Lead, error) {
	lead := Lead{
		ID: f.nextID, Name: in.Name, Email: in.Email, Phone: in.Phone,
		Message: in.Message, PropertyType: in.PropertyType, PropertyID: in.PropertyID,
		CreatedOn: time.Now(), UpdatedOn: time.Now(), Mode: shared.ModeActive,
	}
	f.nextID++
	f.rows[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadRepo) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	lead, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	lead.Mode = mode
	f.rows[id] = lead
	return nil
}

type allowAll struct{}

func (allowAll) HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	return true, nil
}

type recordingNotifier struct {
	leads []Lead
	err   error
}

func (n *recordingNotifier) EnqueueLeadNotify(ctx context.Context, lead Lead) error {
	if n.err != nil {
		return n.err
	}
	n.leads = append(n.leads, lead)
	return nil
}

func TestCaptureStoresLeadAndNotifies(t *testing.T) {
	repo := newFakeLeadRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, allowAll{}, nil, notifier, nil)

	lead, err := svc.Capture(context.Background(), Input{
		Name: "Sam Ortiz", Email: "sam@example.com", Message: "Is the villa still available?",
	})
	require.NoError(t, err)
	assert.Equal(t, shared.ModeActive, lead.Mode)

	require.Len(t, notifier.leads, 1)
	assert.Equal(t, lead.ID, notifier.leads[0].ID)
}

func TestCaptureRequiresNameAndContact(t *testing.T) {
	svc := NewService(newFakeLeadRepo(), allowAll{}, nil, nil, nil)

	_, err := svc.Capture(context.Background(), Input{Email: "sam@example.com"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Capture(context.Background(), Input{Name: "Sam"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Capture(context.Background(), Input{Name: "Sam", Phone: "555-0101"})
	assert.NoError(t, err, "phone alone is enough contact detail")
}

func TestCaptureSurvivesNotifierFailure(t *testing.T) {
	repo := newFakeLeadRepo()
	notifier := &recordingNotifier{err: errors.New("queue down")}
	svc := NewService(repo, allowAll{}, nil, notifier, nil)

	lead, err := svc.Capture(context.Background(), Input{Name: "Sam", Email: "sam@example.com"})
	require.NoError(t, err, "capture must not fail when the queue is unavailable")

	stored, err := svc.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", stored.Name)
}

func TestDeletedLeadExcludedFromTable(t *testing.T) {
	repo := newFakeLeadRepo()
	svc := NewService(repo, allowAll{}, nil, nil, nil)

	lead, err := svc.Capture(context.Background(), Input{Name: "Sam", Email: "sam@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1, lead.ID))

	table, err := svc.BuildTable(context.Background(), 1, Query{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)

	stored, ok := repo.rows[lead.ID]
	require.True(t, ok, "deletion keeps the row")
	assert.Equal(t, shared.ModeDeleted, stored.Mode)
}
