package memstore

// list.go mirrors the query side of the PostgreSQL store closely enough for
// handler tests: AND-combined filters, whitelisted sort columns, and
// limit/offset paging.

import (
	"context"
	"sort"
	"strings"

	"github.com/alxcrm/crm-api/internal/crm"
)

var (
	customerSortColumns = map[string]bool{
		"id": true, "name": true, "email": true, "created_at": true,
	}
	productSortColumns = map[string]bool{
		"id": true, "name": true, "price": true, "stock": true, "created_at": true,
	}
	orderSortColumns = map[string]bool{
		"id": true, "customer_id": true, "order_date": true, "total_amount": true,
	}
)

// ListCustomers returns committed customers matching the query.
func (s *Store) ListCustomers(ctx context.Context, q crm.CustomerQuery) ([]crm.Customer, error) {
	if err := crm.ValidateSort(q.Sort, customerSortColumns); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f := q.Filter
	var out []crm.Customer
	for _, c := range s.customers {
		if f.NameContains != "" && !containsFold(c.Name, f.NameContains) {
			continue
		}
		if f.EmailContains != "" && !containsFold(c.Email, f.EmailContains) {
			continue
		}
		if f.PhonePrefix != "" && !strings.HasPrefix(c.Phone, f.PhonePrefix) {
			continue
		}
		if f.CreatedAfter != nil && c.CreatedAt.Before(*f.CreatedAfter) {
			continue
		}
		if f.CreatedBefore != nil && c.CreatedAt.After(*f.CreatedBefore) {
			continue
		}
		out = append(out, c)
	}

	sortSlice(out, q.Sort, func(a, b crm.Customer, col string) int {
		switch col {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "email":
			return strings.Compare(a.Email, b.Email)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return compareInt64(a.ID, b.ID)
		}
	})
	return pageOf(out, q.Page), nil
}

// ListProducts returns committed products matching the query.
func (s *Store) ListProducts(ctx context.Context, q crm.ProductQuery) ([]crm.Product, error) {
	if err := crm.ValidateSort(q.Sort, productSortColumns); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f := q.Filter
	var out []crm.Product
	for _, p := range s.products {
		if f.NameContains != "" && !containsFold(p.Name, f.NameContains) {
			continue
		}
		if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
			continue
		}
		if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
			continue
		}
		if f.StockMin != nil && p.Stock < *f.StockMin {
			continue
		}
		if f.StockMax != nil && p.Stock > *f.StockMax {
			continue
		}
		out = append(out, p)
	}

	sortSlice(out, q.Sort, func(a, b crm.Product, col string) int {
		switch col {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "price":
			return a.Price.Cmp(b.Price)
		case "stock":
			return a.Stock - b.Stock
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return compareInt64(a.ID, b.ID)
		}
	})
	return pageOf(out, q.Page), nil
}

// ListOrders returns committed orders matching the query, with product
// links populated.
func (s *Store) ListOrders(ctx context.Context, q crm.OrderQuery) ([]crm.Order, error) {
	if err := crm.ValidateSort(q.Sort, orderSortColumns); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f := q.Filter
	var out []crm.Order
	for _, o := range s.orders {
		o.Products = s.productsForLocked(o.ID)
		if f.CustomerName != "" && !s.customerNameMatchesLocked(o.CustomerID, f.CustomerName) {
			continue
		}
		if f.ProductName != "" && !anyProductNamed(o.Products, f.ProductName) {
			continue
		}
		if f.ProductID != nil && !hasProductID(o.Products, *f.ProductID) {
			continue
		}
		if f.TotalMin != nil && o.TotalAmount.LessThan(*f.TotalMin) {
			continue
		}
		if f.TotalMax != nil && o.TotalAmount.GreaterThan(*f.TotalMax) {
			continue
		}
		if f.OrderedAfter != nil && o.OrderDate.Before(*f.OrderedAfter) {
			continue
		}
		if f.OrderedBefore != nil && o.OrderDate.After(*f.OrderedBefore) {
			continue
		}
		out = append(out, o)
	}

	sortSlice(out, q.Sort, func(a, b crm.Order, col string) int {
		switch col {
		case "customer_id":
			return compareInt64(a.CustomerID, b.CustomerID)
		case "order_date":
			return a.OrderDate.Compare(b.OrderDate)
		case "total_amount":
			return a.TotalAmount.Cmp(b.TotalAmount)
		default:
			return compareInt64(a.ID, b.ID)
		}
	})
	return pageOf(out, q.Page), nil
}

func (s *Store) productsForLocked(orderID int64) []crm.Product {
	ids := s.orderLinks[orderID]
	var out []crm.Product
	for _, p := range s.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *Store) customerNameMatchesLocked(customerID int64, name string) bool {
	for _, c := range s.customers {
		if c.ID == customerID {
			return containsFold(c.Name, name)
		}
	}
	return false
}

func anyProductNamed(products []crm.Product, name string) bool {
	for _, p := range products {
		if containsFold(p.Name, name) {
			return true
		}
	}
	return false
}

func hasProductID(products []crm.Product, id int64) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// pageOf applies normalized limit/offset paging to the sorted slice.
func pageOf[T any](items []T, page crm.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	items = items[page.Offset:]
	if page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

// sortSlice applies the requested sorts in order, falling back to ID so
// pagination stays stable.
func sortSlice[T any](items []T, sorts []crm.Sort, cmp func(a, b T, col string) int) {
	if len(sorts) == 0 {
		sorts = []crm.Sort{{Column: "id"}}
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, s := range sorts {
			c := cmp(items[i], items[j], s.Column)
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
