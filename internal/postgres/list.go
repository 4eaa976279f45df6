package postgres

// list.go builds the filtered, sorted, paginated list queries. Filters
// combine with AND; every value travels as a bind parameter and sort columns
// are checked against per-entity whitelists, so user input never reaches SQL
// text directly.

import (
	"context"
	"fmt"
	"strings"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/shopspring/decimal"
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

// condBuilder accumulates WHERE conditions with numbered bind parameters.
// Each expression uses '?' where the parameter belongs.
type condBuilder struct {
	conds []string
	args  []any
}

func (b *condBuilder) add(expr string, val any) {
	b.args = append(b.args, val)
	b.conds = append(b.conds, strings.Replace(expr, "?", fmt.Sprintf("$%d", len(b.args)), 1))
}

// where renders the accumulated conditions, or "" when there are none.
func (b *condBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// orderBy renders an ORDER BY clause from validated sorts, defaulting to
// id ascending so pagination is stable.
func orderBy(sorts []crm.Sort) string {
	if len(sorts) == 0 {
		return " ORDER BY id"
	}
	parts := make([]string, len(sorts))
	for i, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts[i] = s.Column + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// limitOffset appends LIMIT/OFFSET as bind parameters.
func (b *condBuilder) limitOffset(page crm.Page) string {
	b.args = append(b.args, page.Limit)
	limit := len(b.args)
	b.args = append(b.args, page.Offset)
	offset := len(b.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", limit, offset)
}

func buildCustomerList(q crm.CustomerQuery) (string, []any, error) {
	if err := crm.ValidateSort(q.Sort, customerSortColumns); err != nil {
		return "", nil, err
	}

	b := &condBuilder{}
	f := q.Filter
	if f.NameContains != "" {
		b.add("name ILIKE '%' || ? || '%'", f.NameContains)
	}
	if f.EmailContains != "" {
		b.add("email ILIKE '%' || ? || '%'", f.EmailContains)
	}
	if f.PhonePrefix != "" {
		b.add("phone LIKE ? || '%'", f.PhonePrefix)
	}
	if f.CreatedAfter != nil {
		b.add("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		b.add("created_at <= ?", *f.CreatedBefore)
	}

	query := `SELECT id, name, email, phone, created_at FROM customers` +
		b.where() + orderBy(q.Sort) + b.limitOffset(q.Page)
	return query, b.args, nil
}

func buildProductList(q crm.ProductQuery) (string, []any, error) {
	if err := crm.ValidateSort(q.Sort, productSortColumns); err != nil {
		return "", nil, err
	}

	b := &condBuilder{}
	f := q.Filter
	if f.NameContains != "" {
		b.add("name ILIKE '%' || ? || '%'", f.NameContains)
	}
	if f.PriceMin != nil {
		b.add("price >= ?::numeric", f.PriceMin.String())
	}
	if f.PriceMax != nil {
		b.add("price <= ?::numeric", f.PriceMax.String())
	}
	if f.StockMin != nil {
		b.add("stock >= ?", *f.StockMin)
	}
	if f.StockMax != nil {
		b.add("stock <= ?", *f.StockMax)
	}

	query := `SELECT id, name, price::text, stock, created_at FROM products` +
		b.where() + orderBy(q.Sort) + b.limitOffset(q.Page)
	return query, b.args, nil
}

func buildOrderList(q crm.OrderQuery) (string, []any, error) {
	if err := crm.ValidateSort(q.Sort, orderSortColumns); err != nil {
		return "", nil, err
	}

	b := &condBuilder{}
	f := q.Filter
	if f.CustomerName != "" {
		b.add("customer_id IN (SELECT id FROM customers WHERE name ILIKE '%' || ? || '%')", f.CustomerName)
	}
	if f.ProductName != "" {
		b.add(`id IN (SELECT op.order_id FROM order_products op
			JOIN products p ON p.id = op.product_id
			WHERE p.name ILIKE '%' || ? || '%')`, f.ProductName)
	}
	if f.ProductID != nil {
		b.add("id IN (SELECT order_id FROM order_products WHERE product_id = ?)", *f.ProductID)
	}
	if f.TotalMin != nil {
		b.add("total_amount >= ?::numeric", f.TotalMin.String())
	}
	if f.TotalMax != nil {
		b.add("total_amount <= ?::numeric", f.TotalMax.String())
	}
	if f.OrderedAfter != nil {
		b.add("order_date >= ?", *f.OrderedAfter)
	}
	if f.OrderedBefore != nil {
		b.add("order_date <= ?", *f.OrderedBefore)
	}

	query := `SELECT id, customer_id, order_date, total_amount::text FROM orders` +
		b.where() + orderBy(q.Sort) + b.limitOffset(q.Page)
	return query, b.args, nil
}

// ListCustomers returns customers matching the query.
func (s *Store) ListCustomers(ctx context.Context, q crm.CustomerQuery) ([]crm.Customer, error) {
	query, args, err := buildCustomerList(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []crm.Customer
	for rows.Next() {
		var c crm.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// ListProducts returns products matching the query.
func (s *Store) ListProducts(ctx context.Context, q crm.ProductQuery) ([]crm.Product, error) {
	query, args, err := buildProductList(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListOrders returns orders matching the query with product links populated.
func (s *Store) ListOrders(ctx context.Context, q crm.OrderQuery) ([]crm.Order, error) {
	query, args, err := buildOrderList(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []crm.Order
		ids    []int64
	)
	for rows.Next() {
		var (
			o         crm.Order
			totalText string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &totalText); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		total, err := decimal.NewFromString(totalText)
		if err != nil {
			return nil, fmt.Errorf("parse total: %w", err)
		}
		o.TotalAmount = total
		o.Products = []crm.Product{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := s.attachProducts(ctx, orders, ids); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachProducts batch-loads product links for the given orders.
func (s *Store) attachProducts(ctx context.Context, orders []crm.Order, ids []int64) error {
	rows, err := s.pool.Query(ctx,
		`SELECT op.order_id, p.id, p.name, p.price::text, p.stock, p.created_at
		 FROM order_products op
		 JOIN products p ON p.id = op.product_id
		 WHERE op.order_id = ANY($1)
		 ORDER BY op.order_id, p.id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("load order products: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*crm.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}

	for rows.Next() {
		var (
			orderID   int64
			p         crm.Product
			priceText string
		)
		if err := rows.Scan(&orderID, &p.ID, &p.Name, &priceText, &p.Stock, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan order product: %w", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return fmt.Errorf("parse price: %w", err)
		}
		p.Price = price
		if o, ok := byID[orderID]; ok {
			o.Products = append(o.Products, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order products: %w", err)
	}
	return nil
}
