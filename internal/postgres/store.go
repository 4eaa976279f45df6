// Package postgres implements the crm.EntityStore contract on PostgreSQL
// using pgx. Savepoint scopes map directly onto native SAVEPOINT /
// RELEASE SAVEPOINT / ROLLBACK TO SAVEPOINT statements inside one
// transaction.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store is the pgx-backed entity store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store over an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema applies the embedded DDL. All statements are idempotent, so
// running it on every startup is safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Reset deletes all data from all tables. Used by the seeder; never exposed
// over the API.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx,
		`TRUNCATE order_products, orders, products, customers RESTART IDENTITY CASCADE`,
	); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// BeginTx opens a transaction with savepoint support.
func (s *Store) BeginTx(ctx context.Context) (crm.StoreTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &storeTx{tx: tx}, nil
}

// EmailExists reports whether a customer already uses this email,
// compared case-insensitively.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, s.pool, email)
}

// InsertCustomer persists c and fills in its ID and CreatedAt.
func (s *Store) InsertCustomer(ctx context.Context, c *crm.Customer) error {
	return insertCustomer(ctx, s.pool, c)
}

// InsertProduct persists p and fills in its ID and CreatedAt.
func (s *Store) InsertProduct(ctx context.Context, p *crm.Product) error {
	var priceText string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock)
		 VALUES ($1, $2::numeric, $3)
		 RETURNING id, price::text, created_at`,
		p.Name, p.Price.String(), p.Stock,
	).Scan(&p.ID, &priceText, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	// Round-trip the stored value so callers see the column's scale.
	stored, err := decimal.NewFromString(priceText)
	if err != nil {
		return fmt.Errorf("parse stored price: %w", err)
	}
	p.Price = stored
	return nil
}

// GetCustomer returns the customer with the given ID, or nil when absent.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*crm.Customer, error) {
	var c crm.Customer
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, created_at FROM customers WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// ProductsByIDs returns the products matching ids, ordered by ID.
// Missing IDs are not an error.
func (s *Store) ProductsByIDs(ctx context.Context, ids []int64) ([]crm.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price::text, stock, created_at
		 FROM products WHERE id = ANY($1) ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// emailExists runs against either the pool or an open transaction. Running
// it through a transaction makes uncommitted batch rows visible, which is
// what intra-batch duplicate detection relies on.
func emailExists(ctx context.Context, db DBTX, email string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE lower(email) = lower($1))`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

func insertCustomer(ctx context.Context, db DBTX, c *crm.Customer) error {
	err := db.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.Email, c.Phone,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

// mapConstraintError translates storage-level constraint violations into the
// domain errors the validators would have produced. The unique index on
// lower(email) closes the race between the validation-time existence check
// and the insert under concurrent requests.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "customers_email_lower_idx" {
			return crm.DuplicateEmail()
		}
	}
	return fmt.Errorf("insert customer: %w", err)
}

// scanProducts drains rows into products, parsing the text-encoded price.
func scanProducts(rows pgx.Rows) ([]crm.Product, error) {
	var products []crm.Product
	for rows.Next() {
		var (
			p         crm.Product
			priceText string
		)
		if err := rows.Scan(&p.ID, &p.Name, &priceText, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		p.Price = price
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
