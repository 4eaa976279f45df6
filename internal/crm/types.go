// Package crm provides the business logic for the CRM mutation and query API.
// This package has no transport dependencies and can be driven by any frontend.
package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a person or company we sell to.
// Email is unique across all customers, compared case-insensitively.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a sellable item. Price uses exact decimal arithmetic so that
// order totals never accumulate floating-point drift.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Order links one customer to one or more products.
//
// TotalAmount is a snapshot: the sum of the linked products' prices as they
// existed when the order was created. It is never recomputed if product
// prices change later.
type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customerId"`
	Products    []Product       `json:"products"`
	OrderDate   time.Time       `json:"orderDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CustomerInput is the raw input for creating a customer, single or bulk.
// Name and Email are required; Phone is optional.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ProductInput is the raw input for creating a product.
// Price is a decimal string (e.g. "999.99"). Stock defaults to 0 when nil.
type ProductInput struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock *int   `json:"stock,omitempty"`
}

// OrderInput is the raw input for creating an order.
// IDs arrive as strings from the transport layer and are parsed here so that
// malformed IDs produce typed validation errors rather than decode failures.
// OrderDate defaults to the current time when nil.
type OrderInput struct {
	CustomerID string     `json:"customerId"`
	ProductIDs []string   `json:"productIds"`
	OrderDate  *time.Time `json:"orderDate,omitempty"`
}

// BulkError describes one failed input in a bulk operation.
// Index is the position of the input in the caller's original list, so the
// caller can correlate the error back to its data for correction and retry.
type BulkError struct {
	Index   int    `json:"index"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

// BulkCreateResult is the outcome of a bulk customer creation.
//
// Created holds successfully persisted customers in their input order;
// Errors holds failures in their input order. Every input index appears in
// exactly one of the two lists. Partial success is the expected steady
// state, not an error state.
type BulkCreateResult struct {
	OperationID string      `json:"operationId"`
	Created     []Customer  `json:"created"`
	Errors      []BulkError `json:"errors"`
}
