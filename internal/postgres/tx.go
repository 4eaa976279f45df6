package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/jackc/pgx/v5"
)

// savepointNameRE restricts savepoint names to safe identifiers, since
// SAVEPOINT does not take bind parameters.
var savepointNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// storeTx wraps one open pgx transaction.
type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, t.tx, email)
}

func (t *storeTx) InsertCustomer(ctx context.Context, c *crm.Customer) error {
	return insertCustomer(ctx, t.tx, c)
}

// InsertOrder writes the order row and its product links inside the open
// transaction. Both statements share the transaction, so a failure in the
// link step leaves no order row once the caller rolls back.
func (t *storeTx) InsertOrder(ctx context.Context, o *crm.Order, productIDs []int64) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, order_date, total_amount)
		 VALUES ($1, $2, $3::numeric)
		 RETURNING id`,
		o.CustomerID, o.OrderDate, o.TotalAmount.String(),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if _, err := t.tx.Exec(ctx,
		`INSERT INTO order_products (order_id, product_id)
		 SELECT $1, unnest($2::bigint[])`,
		o.ID, productIDs,
	); err != nil {
		return fmt.Errorf("link order products: %w", err)
	}
	return nil
}

func (t *storeTx) Savepoint(ctx context.Context, name string) error {
	if err := validSavepoint(name); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint %s: %w", name, err)
	}
	return nil
}

func (t *storeTx) ReleaseSavepoint(ctx context.Context, name string) error {
	if err := validSavepoint(name); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}

func (t *storeTx) RollbackToSavepoint(ctx context.Context, name string) error {
	if err := validSavepoint(name); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return fmt.Errorf("rollback to savepoint %s: %w", name, err)
	}
	return nil
}

func (t *storeTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. After a successful Commit it is a no-op,
// so callers can defer it unconditionally.
func (t *storeTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return fmt.Errorf("rollback: %w", err)
}

func validSavepoint(name string) error {
	if !savepointNameRE.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	return nil
}
