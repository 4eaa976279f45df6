package crm

// filter.go defines the query-side options for the list operations.
//
// Filters combine with AND logic. Sort columns are validated against a
// per-entity whitelist by the store so user input never reaches SQL
// identifiers directly. All of this is declarative plumbing; the store
// translates it into parameterized queries.

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPageLimit is applied when a query does not specify a limit.
const DefaultPageLimit = 50

// MaxPageLimit caps a single page regardless of what the caller asks for.
const MaxPageLimit = 500

// Page selects a window of results.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Sort is a single sort column and direction.
type Sort struct {
	Column string
	Desc   bool
}

// ParseSort parses a comma-separated sort expression such as
// "name,-created_at", where a leading '-' means descending.
func ParseSort(expr string) []Sort {
	var sorts []Sort
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		sorts = append(sorts, Sort{Column: strings.TrimPrefix(part, "-"), Desc: desc})
	}
	return sorts
}

// String renders the sort back to its expression form (used in logs).
func (s Sort) String() string {
	if s.Desc {
		return "-" + s.Column
	}
	return s.Column
}

// CustomerFilter narrows a customer listing. Zero values mean "no filter".
type CustomerFilter struct {
	NameContains  string
	EmailContains string
	PhonePrefix   string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	NameContains string
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	StockMin     *int
	StockMax     *int
}

// OrderFilter narrows an order listing. CustomerName and ProductName match
// by substring against the linked records.
type OrderFilter struct {
	CustomerName  string
	ProductName   string
	ProductID     *int64
	TotalMin      *decimal.Decimal
	TotalMax      *decimal.Decimal
	OrderedAfter  *time.Time
	OrderedBefore *time.Time
}

// CustomerQuery bundles filter, sort and pagination for ListCustomers.
type CustomerQuery struct {
	Filter CustomerFilter
	Sort   []Sort
	Page   Page
}

// ProductQuery bundles filter, sort and pagination for ListProducts.
type ProductQuery struct {
	Filter ProductFilter
	Sort   []Sort
	Page   Page
}

// OrderQuery bundles filter, sort and pagination for ListOrders.
type OrderQuery struct {
	Filter OrderFilter
	Sort   []Sort
	Page   Page
}

// ValidateSort checks every requested column against the allowed set.
// Stores call this before building ORDER BY clauses.
func ValidateSort(sorts []Sort, allowed map[string]bool) error {
	for _, s := range sorts {
		if !allowed[s.Column] {
			return NewError(KindInvalidQuery, fmt.Sprintf("cannot sort by %q", s.Column))
		}
	}
	return nil
}
