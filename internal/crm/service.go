package crm

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/alxcrm/crm-api/internal/logging"
	"github.com/shopspring/decimal"
)

// Service orchestrates validation, derived-field computation and persistence
// for all mutations. Each call runs to completion before returning; there is
// no suspension on other in-flight mutations. Concurrent calls are safe as
// long as the store is.
type Service struct {
	store EntityStore

	// maxBatchSize caps a single bulk call. Zero means unlimited.
	maxBatchSize int

	// now is swappable for tests.
	now func() time.Time
}

// Options configures a Service.
type Options struct {
	// MaxBatchSize caps the number of inputs accepted by a single bulk
	// mutation. Zero means no cap.
	MaxBatchSize int
}

// NewService creates a Service backed by the given store.
func NewService(store EntityStore, opts Options) *Service {
	return &Service{
		store:        store,
		maxBatchSize: opts.MaxBatchSize,
		now:          time.Now,
	}
}

// CreateCustomer validates and persists one customer. The whole call either
// fully succeeds or writes nothing: the first validation failure aborts
// before any state is touched, and the insert itself is a single statement.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, errNameEmailRequired
	}
	if err := ValidatePhone(in.Phone); err != nil {
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, Unexpected(err)
	}
	if exists {
		return nil, errEmailExists
	}

	customer := &Customer{
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(in.Phone),
	}
	// The store maps a unique-index violation to DuplicateEmail, covering
	// the race between the existence check and the insert.
	if err := s.store.InsertCustomer(ctx, customer); err != nil {
		return nil, AsError(err)
	}

	logging.FromContext(ctx).Info("customer created",
		"customer_id", customer.ID,
		"email", customer.Email,
	)
	return customer, nil
}

// CreateProduct validates and persists one product. Stock defaults to 0
// when not supplied.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	name, err := RequireNonEmpty("Product name", in.Name)
	if err != nil {
		return nil, err
	}
	price, stock, err := ValidatePriceAndStock(in.Price, in.Stock)
	if err != nil {
		return nil, err
	}

	product := &Product{
		Name:  name,
		Price: price,
		Stock: stock,
	}
	if err := s.store.InsertProduct(ctx, product); err != nil {
		return nil, AsError(err)
	}

	logging.FromContext(ctx).Info("product created",
		"product_id", product.ID,
		"price", product.Price.String(),
		"stock", product.Stock,
	)
	return product, nil
}

// CreateOrder resolves the customer and products, computes the snapshot
// total, and persists the order row plus its product links atomically.
// If any step fails, nothing is persisted.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	if len(in.ProductIDs) == 0 {
		return nil, errEmptyProductList
	}

	customerID, err := strconv.ParseInt(strings.TrimSpace(in.CustomerID), 10, 64)
	if err != nil {
		return nil, errInvalidCustomerID
	}
	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, Unexpected(err)
	}
	if customer == nil {
		return nil, errCustomerNotFound
	}

	productIDs, err := parseProductIDs(in.ProductIDs)
	if err != nil {
		return nil, err
	}

	products, err := s.store.ProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, Unexpected(err)
	}
	if missing := missingIDs(productIDs, products); len(missing) > 0 {
		return nil, productsNotFound(missing)
	}

	// Exact decimal sum; commutative and associative, so summation order
	// does not matter.
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}

	orderDate := s.now()
	if in.OrderDate != nil {
		orderDate = *in.OrderDate
	}

	order := &Order{
		CustomerID:  customer.ID,
		Products:    products,
		OrderDate:   orderDate,
		TotalAmount: total,
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, Unexpected(err)
	}
	defer tx.Rollback(ctx)

	if err := tx.InsertOrder(ctx, order, productIDs); err != nil {
		return nil, AsError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, Unexpected(err)
	}

	logging.FromContext(ctx).Info("order created",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"products", len(order.Products),
		"total", order.TotalAmount.String(),
	)
	return order, nil
}

// ListCustomers returns customers matching the query.
func (s *Service) ListCustomers(ctx context.Context, q CustomerQuery) ([]Customer, error) {
	q.Page = q.Page.Normalize()
	out, err := s.store.ListCustomers(ctx, q)
	if err != nil {
		return nil, AsError(err)
	}
	return out, nil
}

// ListProducts returns products matching the query.
func (s *Service) ListProducts(ctx context.Context, q ProductQuery) ([]Product, error) {
	q.Page = q.Page.Normalize()
	out, err := s.store.ListProducts(ctx, q)
	if err != nil {
		return nil, AsError(err)
	}
	return out, nil
}

// ListOrders returns orders matching the query, with product links
// populated.
func (s *Service) ListOrders(ctx context.Context, q OrderQuery) ([]Order, error) {
	q.Page = q.Page.Normalize()
	out, err := s.store.ListOrders(ctx, q)
	if err != nil {
		return nil, AsError(err)
	}
	return out, nil
}

// parseProductIDs parses and de-duplicates the requested product IDs,
// preserving first-seen order. Duplicate IDs in the request collapse to one
// link, matching set semantics for order membership.
func parseProductIDs(raw []string) ([]int64, error) {
	seen := make(map[int64]bool, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			return nil, errInvalidProductID
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// missingIDs returns the requested IDs that have no matching product.
func missingIDs(requested []int64, found []Product) []int64 {
	have := make(map[int64]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var missing []int64
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
