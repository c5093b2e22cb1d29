package properties

import (
	"time"

	"github.com/harborlane/harborlane/internal/shared"
)

// Property is a real-estate listing record.
type Property struct {
	ID          int64
	Title       string
	Address     string
	City        string
	State       string
	Zipcode     string
	Description string
	Price       float64
	Bedrooms    int
	Bathrooms   int
	Sqft        int
	Garage      int
	ListingType string
	TypeID      *int64
	TypeName    string
	CreatedBy   int64
	UpdatedBy   int64
	CreatedOn   time.Time
	UpdatedOn   time.Time
	Mode        shared.DataMode
	Images      []Image
}

// PropertyType is the lookup entity a listing may reference.
type PropertyType struct {
	ID        int64
	Name      string
	CreatedOn time.Time
	UpdatedOn time.Time
	Mode      shared.DataMode
}

// Image is a photo owned by exactly one property.
type Image struct {
	ID         int64
	PropertyID int64
	Path       string
	CreatedOn  time.Time
	Mode       shared.DataMode
}

// Input carries the coerced fields of a property submission.
type Input struct {
	Title       string
	Address     string
	City        string
	State       string
	Zipcode     string
	Description string
	Price       float64
	Bedrooms    int
	Bathrooms   int
	Sqft        int
	Garage      int
	ListingType string
	TypeName    string
	ImagePaths  []string
	ActorID     int64
}

// Budget buckets accepted by the listing filter. Anything else is ignored.
const (
	BudgetBelow100k  = "Below 100k"
	Budget100kTo300k = "100k - 300k"
	BudgetAbove300k  = "Above 300k"
)

// Sort keys accepted by the listing filter. Anything else falls back to newest.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
)

// Query narrows and orders the property list view.
type Query struct {
	Search      string
	City        string
	ListingType string
	Type        string
	Budget      string
	Sort        string
	Page        int
}

// Normalize drops unsupported filter and sort values instead of erroring.
func (q Query) Normalize() Query {
	switch q.Budget {
	case BudgetBelow100k, Budget100kTo300k, BudgetAbove300k:
	default:
		q.Budget = ""
	}
	switch q.Sort {
	case SortPriceLow, SortPriceHigh:
	default:
		q.Sort = SortNewest
	}
	return q
}
