package crm_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/alxcrm/crm-api/internal/memstore"
)

func newTestService(t *testing.T) (*crm.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return crm.NewService(store, crm.Options{}), store
}

func intPtr(n int) *int { return &n }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestCreateCustomer(t *testing.T) {
	tests := []struct {
		name     string
		input    crm.CustomerInput
		wantKind crm.ErrorKind
	}{
		{
			name:  "valid with international phone",
			input: crm.CustomerInput{Name: "Alice", Email: "alice@example.com", Phone: "+1234567890"},
		},
		{
			name:  "valid with dashed phone",
			input: crm.CustomerInput{Name: "Bob", Email: "bob@example.com", Phone: "123-456-7890"},
		},
		{
			name:  "valid without phone",
			input: crm.CustomerInput{Name: "Carol", Email: "carol@example.com"},
		},
		{
			name:     "missing name",
			input:    crm.CustomerInput{Email: "dave@example.com"},
			wantKind: crm.KindMissingRequiredField,
		},
		{
			name:     "missing email",
			input:    crm.CustomerInput{Name: "Dave"},
			wantKind: crm.KindMissingRequiredField,
		},
		{
			name:     "whitespace-only name",
			input:    crm.CustomerInput{Name: "   ", Email: "dave@example.com"},
			wantKind: crm.KindMissingRequiredField,
		},
		{
			name:     "bad phone",
			input:    crm.CustomerInput{Name: "Eve", Email: "eve@example.com", Phone: "555"},
			wantKind: crm.KindInvalidPhoneFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestService(t)
			got, err := service.CreateCustomer(context.Background(), tt.input)

			if tt.wantKind != "" {
				if err == nil {
					t.Fatalf("want error kind %s, got nil", tt.wantKind)
				}
				if crm.KindOf(err) != tt.wantKind {
					t.Errorf("kind = %s, want %s", crm.KindOf(err), tt.wantKind)
				}
				if store.CustomerCount() != 0 {
					t.Errorf("failed create persisted %d customers", store.CustomerCount())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID == 0 {
				t.Error("ID not assigned")
			}
			if got.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}
			if got.Name != strings.TrimSpace(tt.input.Name) {
				t.Errorf("name = %q", got.Name)
			}
		})
	}
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Exact duplicate and case-variant duplicate both fail.
	for _, email := range []string{"alice@example.com", "ALICE@Example.COM"} {
		_, err := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Imposter", Email: email})
		if crm.KindOf(err) != crm.KindDuplicateEmail {
			t.Errorf("email %q: kind = %s, want %s", email, crm.KindOf(err), crm.KindDuplicateEmail)
		}
		if err != nil && err.Error() != "Email already exists." {
			t.Errorf("email %q: message = %q", email, err.Error())
		}
	}

	if store.CustomerCount() != 1 {
		t.Errorf("customer count = %d, want 1", store.CustomerCount())
	}
}

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name      string
		input     crm.ProductInput
		wantPrice string
		wantStock int
		wantKind  crm.ErrorKind
	}{
		{
			name:      "valid",
			input:     crm.ProductInput{Name: "Laptop", Price: "999.99", Stock: intPtr(10)},
			wantPrice: "999.99",
			wantStock: 10,
		},
		{
			name:      "nil stock defaults to zero",
			input:     crm.ProductInput{Name: "Cable", Price: "4.50"},
			wantPrice: "4.5",
		},
		{
			name:     "missing name",
			input:    crm.ProductInput{Price: "10.00"},
			wantKind: crm.KindMissingRequiredField,
		},
		{
			name:     "unparsable price",
			input:    crm.ProductInput{Name: "Widget", Price: "free"},
			wantKind: crm.KindInvalidPrice,
		},
		{
			name:     "zero price",
			input:    crm.ProductInput{Name: "Widget", Price: "0"},
			wantKind: crm.KindNonPositivePrice,
		},
		{
			name:     "negative stock",
			input:    crm.ProductInput{Name: "Widget", Price: "1.00", Stock: intPtr(-2)},
			wantKind: crm.KindNegativeStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestService(t)
			got, err := service.CreateProduct(context.Background(), tt.input)

			if tt.wantKind != "" {
				if crm.KindOf(err) != tt.wantKind {
					t.Fatalf("kind = %s, want %s", crm.KindOf(err), tt.wantKind)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Price.String() != tt.wantPrice {
				t.Errorf("price = %s, want %s", got.Price.String(), tt.wantPrice)
			}
			if got.Stock != tt.wantStock {
				t.Errorf("stock = %d, want %d", got.Stock, tt.wantStock)
			}
		})
	}
}

func TestCreateOrder(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	alice, err := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	laptop, err := service.CreateProduct(ctx, crm.ProductInput{Name: "Laptop", Price: "999.99", Stock: intPtr(10)})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	phone, err := service.CreateProduct(ctx, crm.ProductInput{Name: "Phone", Price: "499.99", Stock: intPtr(25)})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	order, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(alice.ID),
		ProductIDs: []string{itoa(laptop.ID), itoa(phone.ID)},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// 999.99 + 499.99 is exactly 1499.98; any float drift would show here.
	if order.TotalAmount.String() != "1499.98" {
		t.Errorf("total = %s, want 1499.98", order.TotalAmount.String())
	}
	if order.CustomerID != alice.ID {
		t.Errorf("customer id = %d, want %d", order.CustomerID, alice.ID)
	}
	if len(order.Products) != 2 {
		t.Errorf("products = %d, want 2", len(order.Products))
	}
	if order.OrderDate.IsZero() {
		t.Error("order date not set")
	}
	if got := store.OrderProductIDs(order.ID); len(got) != 2 {
		t.Errorf("persisted product links = %v, want 2 links", got)
	}
}

func TestCreateOrder_DuplicateProductIDsCollapse(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	alice, _ := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"})
	laptop, _ := service.CreateProduct(ctx, crm.ProductInput{Name: "Laptop", Price: "999.99"})

	order, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(alice.ID),
		ProductIDs: []string{itoa(laptop.ID), itoa(laptop.ID)},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(order.Products) != 1 {
		t.Errorf("products = %d, want 1", len(order.Products))
	}
	if order.TotalAmount.String() != "999.99" {
		t.Errorf("total = %s, want 999.99", order.TotalAmount.String())
	}
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	alice, _ := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"})
	laptop, _ := service.CreateProduct(ctx, crm.ProductInput{Name: "Laptop", Price: "999.99"})

	tests := []struct {
		name     string
		input    crm.OrderInput
		wantKind crm.ErrorKind
		wantMsg  string
	}{
		{
			name:     "empty product list",
			input:    crm.OrderInput{CustomerID: itoa(alice.ID)},
			wantKind: crm.KindEmptyProductList,
			wantMsg:  "At least one product must be selected.",
		},
		{
			name:     "non-numeric customer id",
			input:    crm.OrderInput{CustomerID: "abc", ProductIDs: []string{itoa(laptop.ID)}},
			wantKind: crm.KindInvalidCustomerID,
			wantMsg:  "Invalid customer ID.",
		},
		{
			name:     "unknown customer",
			input:    crm.OrderInput{CustomerID: "9999", ProductIDs: []string{itoa(laptop.ID)}},
			wantKind: crm.KindCustomerNotFound,
			wantMsg:  "Customer not found.",
		},
		{
			name:     "non-numeric product id",
			input:    crm.OrderInput{CustomerID: itoa(alice.ID), ProductIDs: []string{"abc"}},
			wantKind: crm.KindInvalidProductID,
			wantMsg:  "All product IDs must be integers.",
		},
		{
			name:     "unknown product",
			input:    crm.OrderInput{CustomerID: itoa(alice.ID), ProductIDs: []string{itoa(laptop.ID), "999"}},
			wantKind: crm.KindProductsNotFound,
			wantMsg:  "Invalid product ID(s): [999]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateOrder(ctx, tt.input)
			if crm.KindOf(err) != tt.wantKind {
				t.Fatalf("kind = %s, want %s", crm.KindOf(err), tt.wantKind)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}

	if store.OrderCount() != 0 {
		t.Errorf("order count = %d, want 0", store.OrderCount())
	}
}

func TestCreateOrder_AtomicOnLinkFailure(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	alice, _ := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"})
	laptop, _ := service.CreateProduct(ctx, crm.ProductInput{Name: "Laptop", Price: "999.99"})

	store.OrderLinkErr = errors.New("link table write failed")

	_, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(alice.ID),
		ProductIDs: []string{itoa(laptop.ID)},
	})
	if crm.KindOf(err) != crm.KindUnexpected {
		t.Fatalf("kind = %s, want %s", crm.KindOf(err), crm.KindUnexpected)
	}

	// The staged order row must not survive the failed link step.
	if store.OrderCount() != 0 {
		t.Errorf("order count = %d, want 0", store.OrderCount())
	}
}

func TestCreateOrder_ExplicitOrderDate(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	alice, _ := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"})
	laptop, _ := service.CreateProduct(ctx, crm.ProductInput{Name: "Laptop", Price: "999.99"})

	when := mustParseTime(t, "2026-01-15T10:30:00Z")
	order, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(alice.ID),
		ProductIDs: []string{itoa(laptop.ID)},
		OrderDate:  &when,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !order.OrderDate.Equal(when) {
		t.Errorf("order date = %v, want %v", order.OrderDate, when)
	}
}

func TestListCustomers_Filters(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	for _, c := range []crm.CustomerInput{
		{Name: "Alice", Email: "alice@example.com", Phone: "+1234567890"},
		{Name: "Bob", Email: "bob@example.com", Phone: "123-456-7890"},
		{Name: "Alicia", Email: "alicia@other.org"},
	} {
		if _, err := service.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		name   string
		query  crm.CustomerQuery
		want   int
		first  string
	}{
		{
			name:  "name substring case-insensitive",
			query: crm.CustomerQuery{Filter: crm.CustomerFilter{NameContains: "ali"}},
			want:  2,
			first: "Alice",
		},
		{
			name:  "email substring",
			query: crm.CustomerQuery{Filter: crm.CustomerFilter{EmailContains: "example.com"}},
			want:  2,
			first: "Alice",
		},
		{
			name:  "phone prefix",
			query: crm.CustomerQuery{Filter: crm.CustomerFilter{PhonePrefix: "+1"}},
			want:  1,
			first: "Alice",
		},
		{
			name:  "sort by name descending",
			query: crm.CustomerQuery{Sort: []crm.Sort{{Column: "name", Desc: true}}},
			want:  3,
			first: "Bob",
		},
		{
			name:  "paging",
			query: crm.CustomerQuery{Page: crm.Page{Limit: 1, Offset: 1}},
			want:  1,
			first: "Bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ListCustomers(ctx, tt.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			if got[0].Name != tt.first {
				t.Errorf("first = %q, want %q", got[0].Name, tt.first)
			}
		})
	}
}

func TestListProducts_PriceRange(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	for _, p := range []crm.ProductInput{
		{Name: "Laptop", Price: "999.99", Stock: intPtr(10)},
		{Name: "Phone", Price: "499.99", Stock: intPtr(25)},
		{Name: "Tablet", Price: "299.99", Stock: intPtr(15)},
	} {
		if _, err := service.CreateProduct(ctx, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	min := mustDecimal(t, "300")
	max := mustDecimal(t, "1000")
	got, err := service.ListProducts(ctx, crm.ProductQuery{
		Filter: crm.ProductFilter{PriceMin: &min, PriceMax: &max},
		Sort:   []crm.Sort{{Column: "price"}},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Phone" || got[1].Name != "Laptop" {
		t.Errorf("order = %q, %q", got[0].Name, got[1].Name)
	}
}

func TestListOrders_Filters(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	alice, _ := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"})
	bob, _ := service.CreateCustomer(ctx, crm.CustomerInput{Name: "Bob", Email: "bob@example.com"})
	laptop, _ := service.CreateProduct(ctx, crm.ProductInput{Name: "Laptop", Price: "999.99"})
	tablet, _ := service.CreateProduct(ctx, crm.ProductInput{Name: "Tablet", Price: "299.99"})

	if _, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(alice.ID), ProductIDs: []string{itoa(laptop.ID)},
	}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if _, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(bob.ID), ProductIDs: []string{itoa(tablet.ID)},
	}); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	t.Run("by customer name", func(t *testing.T) {
		got, err := service.ListOrders(ctx, crm.OrderQuery{Filter: crm.OrderFilter{CustomerName: "alice"}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].CustomerID != alice.ID {
			t.Errorf("got %d orders", len(got))
		}
	})

	t.Run("by product id", func(t *testing.T) {
		got, err := service.ListOrders(ctx, crm.OrderQuery{Filter: crm.OrderFilter{ProductID: &tablet.ID}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].CustomerID != bob.ID {
			t.Errorf("got %d orders", len(got))
		}
	})

	t.Run("by total range", func(t *testing.T) {
		min := mustDecimal(t, "500")
		got, err := service.ListOrders(ctx, crm.OrderQuery{Filter: crm.OrderFilter{TotalMin: &min}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].TotalAmount.String() != "999.99" {
			t.Errorf("got %d orders", len(got))
		}
	})

	t.Run("rejects unknown sort column", func(t *testing.T) {
		_, err := service.ListOrders(ctx, crm.OrderQuery{Sort: []crm.Sort{{Column: "secret"}}})
		if crm.KindOf(err) != crm.KindInvalidQuery {
			t.Errorf("kind = %s, want %s", crm.KindOf(err), crm.KindInvalidQuery)
		}
	})
}
