package properties

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlane/harborlane/internal/shared"
)

type fakePropertyRepo struct {
	nextID     int64
	nextTypeID int64
	rows       map[int64]Property
	types      map[string]int64
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{nextID: 1, nextTypeID: 1, rows: map[int64]Property{}, types: map[string]int64{}}
}

func (f *fakePropertyRepo) matches(p Property, q Query) bool {
	if p.Mode == shared.ModeDeleted {
		return false
	}
	if q.City != "" && !strings.EqualFold(p.City, q.City) {
		return false
	}
	if q.ListingType != "" && !strings.EqualFold(p.ListingType, q.ListingType) {
		return false
	}
	if q.Type != "" && !strings.EqualFold(p.TypeName, q.Type) {
		return false
	}
	switch q.Budget {
	case BudgetBelow100k:
		if p.Price >= 100000 {
			return false
		}
	case Budget100kTo300k:
		if p.Price < 100000 || p.Price > 300000 {
			return false
		}
	case BudgetAbove300k:
		if p.Price <= 300000 {
			return false
		}
	}
	return true
}

func (f *fakePropertyRepo) selectAll(q Query) []Property {
	var list []Property
	for _, p := range f.rows {
		if f.matches(p, q) {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		switch q.Sort {
		case SortPriceLow:
			return list[i].Price < list[j].Price
		case SortPriceHigh:
			return list[i].Price > list[j].Price
		default:
			return list[i].ID > list[j].ID
		}
	})
	return list
}

func (f *fakePropertyRepo) Count(ctx context.Context, q Query) (int, error) {
	return len(f.selectAll(q)), nil
}

func (f *fakePropertyRepo) List(ctx context.Context, q Query, limit, offset int) ([]Property, error) {
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

func (f *fakePropertyRepo) Get(ctx context.Context, id int64) (Property, error) {
	p, ok := f.rows[id]
	if !ok || p.Mode == shared.ModeDeleted {
		return Property{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakePropertyRepo) CreateWithAssets(ctx context.Context, in Input) (Property, error) {
	p := Property{
		ID: f.nextID, Title: in.Title, Address: in.Address, City: in.City, State: in.State,
		Zipcode: in.Zipcode, Description: in.Description, Price: in.Price, Bedrooms: in.Bedrooms,
		Bathrooms: in.Bathrooms, Sqft: in.Sqft, Garage: in.Garage, ListingType: in.ListingType,
		CreatedBy: in.ActorID, UpdatedBy: in.ActorID,
		CreatedOn: time.Now(), UpdatedOn: time.Now(), Mode: shared.ModeActive,
	}
	f.nextID++
	if name := strings.TrimSpace(in.TypeName); name != "" {
		key := strings.ToLower(name)
		id, ok := f.types[key]
		if !ok {
			id = f.nextTypeID
			f.nextTypeID++
			f.types[key] = id
		}
		p.TypeID = &id
		p.TypeName = name
	}
	for _, path := range in.ImagePaths {
		p.Images = append(p.Images, Image{PropertyID: p.ID, Path: path, Mode: shared.ModeActive})
	}
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakePropertyRepo) Update(ctx context.Context, id int64, in Input) (Property, error) {
	existing, ok := f.rows[id]
	if !ok || existing.Mode == shared.ModeDeleted {
		return Property{}, shared.ErrNotFound
	}
	existing.Title = in.Title
	existing.Address = in.Address
	existing.City = in.City
	existing.Price = in.Price
	existing.Bedrooms = in.Bedrooms
	existing.ListingType = in.ListingType
	existing.UpdatedBy = in.ActorID
	existing.UpdatedOn = time.Now()
	f.rows[id] = existing
	return existing, nil
}

func (f *fakePropertyRepo) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	existing, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Mode = mode
	existing.UpdatedBy = actorID
	f.rows[id] = existing
	return nil
}

func (f *fakePropertyRepo) Cities(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var cities []string
	for _, p := range f.rows {
		if p.Mode != shared.ModeDeleted && p.City != "" && !seen[p.City] {
			seen[p.City] = true
			cities = append(cities, p.City)
		}
	}
	sort.Strings(cities)
	return cities, nil
}

func (f *fakePropertyRepo) TypeNames(ctx context.Context) ([]string, error) {
	var names []string
	for name := range f.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type allowAll struct{}

func (allowAll) HasPermission(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	return true, nil
}

func seedListing(t *testing.T, svc *Service, title, city, listing string, price float64) Property {
	t.Helper()
	prop, err := svc.Create(context.Background(), Input{
		Title: title, Address: "1 Main St", City: city, ListingType: listing, Price: price, ActorID: 1,
	})
	require.NoError(t, err)
	return prop
}

func TestCreateFillsDefaultsAndType(t *testing.T) {
	svc := NewService(newFakePropertyRepo(), allowAll{}, nil)

	prop, err := svc.Create(context.Background(), Input{
		Title: "Lakeview Villa", Address: "1 Shore Dr", City: "Austin",
		Price: 250000, Bedrooms: 3, ActorID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 250000.0, prop.Price)
	assert.Equal(t, 3, prop.Bedrooms)
	assert.Nil(t, prop.TypeID, "blank type name leaves the listing untyped")
	assert.Equal(t, shared.ModeActive, prop.Mode)
}

func TestCreateReusesTypeByName(t *testing.T) {
	repo := newFakePropertyRepo()
	svc := NewService(repo, allowAll{}, nil)

	first, err := svc.Create(context.Background(), Input{
		Title: "A", Address: "1 Elm", TypeName: "Villa", ActorID: 1,
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), Input{
		Title: "B", Address: "2 Elm", TypeName: "villa", ActorID: 1,
	})
	require.NoError(t, err)

	require.NotNil(t, first.TypeID)
	require.NotNil(t, second.TypeID)
	assert.Equal(t, *first.TypeID, *second.TypeID, "type lookup is case-insensitive")
}

func TestCreateRequiresTitleAndAddress(t *testing.T) {
	svc := NewService(newFakePropertyRepo(), allowAll{}, nil)

	_, err := svc.Create(context.Background(), Input{Address: "1 Main St"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), Input{Title: "No address"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeletedPropertyExcludedEverywhere(t *testing.T) {
	repo := newFakePropertyRepo()
	svc := NewService(repo, allowAll{}, nil)

	prop := seedListing(t, svc, "Temp", "Austin", "sale", 120000)
	require.NoError(t, svc.Delete(context.Background(), 1, prop.ID))

	table, err := svc.BuildTable(context.Background(), 1, Query{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)

	catalog, err := svc.Browse(context.Background(), Query{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, catalog.Properties)

	_, err = svc.Get(context.Background(), prop.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored, ok := repo.rows[prop.ID]
	require.True(t, ok, "deletion keeps the row")
	assert.Equal(t, shared.ModeDeleted, stored.Mode)
}

func TestBrowseBudgetBuckets(t *testing.T) {
	svc := NewService(newFakePropertyRepo(), allowAll{}, nil)

	seedListing(t, svc, "Cheap", "Austin", "sale", 80000)
	seedListing(t, svc, "Mid", "Austin", "sale", 200000)
	seedListing(t, svc, "High", "Austin", "sale", 500000)

	for budget, want := range map[string]string{
		BudgetBelow100k:  "Cheap",
		Budget100kTo300k: "Mid",
		BudgetAbove300k:  "High",
	} {
		catalog, err := svc.Browse(context.Background(), Query{Budget: budget, Page: 1})
		require.NoError(t, err)
		require.Len(t, catalog.Properties, 1, budget)
		assert.Equal(t, want, catalog.Properties[0].Title)
	}

	catalog, err := svc.Browse(context.Background(), Query{Budget: "everything please", Page: 1})
	require.NoError(t, err)
	assert.Len(t, catalog.Properties, 3, "unknown budget is ignored, not an error")
}

func TestBrowseSortByPrice(t *testing.T) {
	svc := NewService(newFakePropertyRepo(), allowAll{}, nil)

	seedListing(t, svc, "Mid", "Austin", "sale", 200000)
	seedListing(t, svc, "Cheap", "Austin", "sale", 80000)
	seedListing(t, svc, "High", "Austin", "sale", 500000)

	catalog, err := svc.Browse(context.Background(), Query{Sort: SortPriceLow, Page: 1})
	require.NoError(t, err)
	require.Len(t, catalog.Properties, 3)
	assert.Equal(t, "Cheap", catalog.Properties[0].Title)
	assert.Equal(t, "High", catalog.Properties[2].Title)

	catalog, err = svc.Browse(context.Background(), Query{Sort: SortPriceHigh, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "High", catalog.Properties[0].Title)
}

func TestBrowsePageClampsToRange(t *testing.T) {
	svc := NewService(newFakePropertyRepo(), allowAll{}, nil)

	for i := 0; i < shared.PageSize+3; i++ {
		seedListing(t, svc, "Listing", "Austin", "sale", 100000+float64(i))
	}

	catalog, err := svc.Browse(context.Background(), Query{Page: 999999})
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Pagination.Page, "overlarge page clamps to the last page")
	assert.Len(t, catalog.Properties, 3)

	catalog, err = svc.Browse(context.Background(), Query{Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Pagination.Page, "page below range clamps to the first page")
	assert.Len(t, catalog.Properties, shared.PageSize)
}
