// Package memstore is an in-memory implementation of crm.EntityStore with
// the same transactional contract as the PostgreSQL store: one outer
// transaction, nested savepoint scopes, and uncommitted writes visible to
// reads within the transaction. It backs the test suites and doubles as a
// reference model of the staging-buffer approach for engines without native
// savepoints.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alxcrm/crm-api/internal/crm"
)

// Store is an in-memory entity store. Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	customers  []crm.Customer
	products   []crm.Product
	orders     []crm.Order
	orderLinks map[int64][]int64

	nextCustomerID int64
	nextProductID  int64
	nextOrderID    int64

	// Failure hooks for exercising the error paths. Nil/zero means no
	// injected failures.
	InsertCustomerErr func(c *crm.Customer) error
	OrderLinkErr      error
	BeginErr          error
	CommitErr         error
}

// New creates an empty store.
func New() *Store {
	return &Store{orderLinks: make(map[int64][]int64)}
}

// BeginTx opens a transaction with an empty staging buffer.
func (s *Store) BeginTx(ctx context.Context) (crm.StoreTx, error) {
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	return &memTx{
		store: s,
		marks: make(map[string]mark),
	}, nil
}

// EmailExists checks committed customers only.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailExistsLocked(email), nil
}

func (s *Store) emailExistsLocked(email string) bool {
	for _, c := range s.customers {
		if strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

// InsertCustomer persists c immediately, enforcing the unique-email
// constraint the way the database index would.
func (s *Store) InsertCustomer(ctx context.Context, c *crm.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertCustomerLocked(c); err != nil {
		return err
	}
	return nil
}

func (s *Store) insertCustomerLocked(c *crm.Customer) error {
	if s.InsertCustomerErr != nil {
		if err := s.InsertCustomerErr(c); err != nil {
			return err
		}
	}
	if s.emailExistsLocked(c.Email) {
		return crm.DuplicateEmail()
	}
	s.nextCustomerID++
	c.ID = s.nextCustomerID
	c.CreatedAt = time.Now()
	s.customers = append(s.customers, *c)
	return nil
}

// InsertProduct persists p immediately.
func (s *Store) InsertProduct(ctx context.Context, p *crm.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProductID++
	p.ID = s.nextProductID
	p.CreatedAt = time.Now()
	s.products = append(s.products, *p)
	return nil
}

// GetCustomer returns the committed customer with the given ID, or nil.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*crm.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

// ProductsByIDs returns committed products matching ids, ordered by ID.
func (s *Store) ProductsByIDs(ctx context.Context, ids []int64) ([]crm.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []crm.Product
	for _, p := range s.products {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CustomerCount reports how many customers are committed. Test helper.
func (s *Store) CustomerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

// OrderCount reports how many orders are committed. Test helper.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// OrderProductIDs returns the committed product links for an order.
func (s *Store) OrderProductIDs(orderID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.orderLinks[orderID]...)
}

// mark records staging-buffer lengths at savepoint creation.
type mark struct {
	customers int
	orders    int
}

type stagedOrder struct {
	order      crm.Order
	productIDs []int64
}

// memTx stages writes until Commit. RollbackToSavepoint truncates the
// staging buffers back to the recorded mark, discarding only the work done
// since that savepoint.
type memTx struct {
	store     *Store
	customers []crm.Customer
	orders    []stagedOrder
	marks     map[string]mark
	done      bool
}

func (t *memTx) EmailExists(ctx context.Context, email string) (bool, error) {
	// Committed rows plus this transaction's own staged rows: earlier
	// items of the same batch count against later duplicates.
	exists, _ := t.store.EmailExists(ctx, email)
	if exists {
		return true, nil
	}
	for _, c := range t.customers {
		if strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertCustomer(ctx context.Context, c *crm.Customer) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.InsertCustomerErr != nil {
		if err := t.store.InsertCustomerErr(c); err != nil {
			return err
		}
	}
	// IDs are consumed even if the savepoint later rolls back, matching
	// sequence behavior.
	t.store.nextCustomerID++
	c.ID = t.store.nextCustomerID
	c.CreatedAt = time.Now()
	t.customers = append(t.customers, *c)
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *crm.Order, productIDs []int64) error {
	t.store.mu.Lock()
	t.store.nextOrderID++
	o.ID = t.store.nextOrderID
	t.store.mu.Unlock()

	staged := stagedOrder{order: *o, productIDs: append([]int64(nil), productIDs...)}
	t.orders = append(t.orders, staged)

	// Simulated failure of the link step, after the order row was staged.
	if t.store.OrderLinkErr != nil {
		return t.store.OrderLinkErr
	}
	return nil
}

func (t *memTx) Savepoint(ctx context.Context, name string) error {
	t.marks[name] = mark{customers: len(t.customers), orders: len(t.orders)}
	return nil
}

func (t *memTx) ReleaseSavepoint(ctx context.Context, name string) error {
	delete(t.marks, name)
	return nil
}

func (t *memTx) RollbackToSavepoint(ctx context.Context, name string) error {
	m, ok := t.marks[name]
	if !ok {
		return nil
	}
	t.customers = t.customers[:m.customers]
	t.orders = t.orders[:m.orders]
	return nil
}

// Commit publishes all staged writes atomically. A failed commit publishes
// nothing, even for items whose savepoints were released.
func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.store.CommitErr != nil {
		return t.store.CommitErr
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.customers = append(t.store.customers, t.customers...)
	for _, so := range t.orders {
		t.store.orders = append(t.store.orders, so.order)
		t.store.orderLinks[so.order.ID] = so.productIDs
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	t.customers = nil
	t.orders = nil
	return nil
}
