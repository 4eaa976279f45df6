package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alxcrm/crm-api/internal/crm"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateCustomer creates a single customer.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in crm.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}

	customer, err := s.service.CreateCustomer(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

// handleBulkCreateCustomers creates many customers with per-item outcomes.
// The call as a whole fails only when the outer transaction cannot commit.
func (s *Server) handleBulkCreateCustomers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customers []crm.CustomerInput `json:"customers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Bulk.Timeout)
	defer cancel()

	result, err := s.service.BulkCreateCustomers(ctx, req.Customers)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCreateProduct creates a single product.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	// Price arrives as json.Number so both "19.99" and 19.99 are accepted;
	// the decimal parse downstream decides validity.
	var req struct {
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
		Stock *int        `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}

	product, err := s.service.CreateProduct(r.Context(), crm.ProductInput{
		Name:  req.Name,
		Price: req.Price.String(),
		Stock: req.Stock,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

// handleCreateOrder creates a single order.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in crm.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}

	order, err := s.service.CreateOrder(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

// handleListCustomers lists customers with filter, sort and pagination
// query parameters.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	q, err := parseCustomerQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	customers, err := s.service.ListCustomers(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if customers == nil {
		customers = []crm.Customer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

// handleListProducts lists products.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	products, err := s.service.ListProducts(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if products == nil {
		products = []crm.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// handleListOrders lists orders with product links populated.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q, err := parseOrderQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	orders, err := s.service.ListOrders(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if orders == nil {
		orders = []crm.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}
