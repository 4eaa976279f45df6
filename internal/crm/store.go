package crm

import "context"

// EntityStore is the persistence boundary for customers, products and
// orders. The production implementation is backed by PostgreSQL; tests use
// an in-memory store with the same savepoint semantics.
//
// Single-statement operations run directly against the store. Anything that
// must be atomic across statements, or that needs per-item savepoints,
// happens inside a StoreTx obtained from BeginTx.
type EntityStore interface {
	BeginTx(ctx context.Context) (StoreTx, error)

	// EmailExists reports whether a committed customer already uses this
	// email, compared case-insensitively.
	EmailExists(ctx context.Context, email string) (bool, error)

	// InsertCustomer persists c and fills in its ID and CreatedAt.
	InsertCustomer(ctx context.Context, c *Customer) error

	// InsertProduct persists p and fills in its ID and CreatedAt.
	InsertProduct(ctx context.Context, p *Product) error

	// GetCustomer returns the customer with the given ID, or nil when no
	// such customer exists.
	GetCustomer(ctx context.Context, id int64) (*Customer, error)

	// ProductsByIDs returns the products matching ids. Missing IDs are not
	// an error; callers diff the result against the request.
	ProductsByIDs(ctx context.Context, ids []int64) ([]Product, error)

	ListCustomers(ctx context.Context, q CustomerQuery) ([]Customer, error)
	ListProducts(ctx context.Context, q ProductQuery) ([]Product, error)
	ListOrders(ctx context.Context, q OrderQuery) ([]Order, error)
}

// StoreTx is one open transaction with savepoint support: the fine-grained
// partial-commit capability the bulk engine is built on. Savepoint scopes
// nest inside the outer transaction; rolling back to a savepoint discards
// only the work done since it was created.
//
// Reads through a StoreTx see the transaction's own uncommitted writes, so
// uniqueness checks within a batch account for earlier items in the same
// batch.
type StoreTx interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	InsertCustomer(ctx context.Context, c *Customer) error

	// InsertOrder persists o and its product links in the current
	// transaction, filling in o.ID. If the link step fails the caller's
	// rollback discards the order row as well.
	InsertOrder(ctx context.Context, o *Order, productIDs []int64) error

	Savepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error

	Commit(ctx context.Context) error
	// Rollback aborts the transaction. Calling it after a successful
	// Commit is a no-op, so it is safe to defer.
	Rollback(ctx context.Context) error
}
