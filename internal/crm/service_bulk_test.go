package crm_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/alxcrm/crm-api/internal/memstore"
	"github.com/shopspring/decimal"
)

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestBulkCreateCustomers_PartialSuccess(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateCustomer(ctx, crm.CustomerInput{Name: "A", Email: "a@x.com"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inputs := []crm.CustomerInput{
		{Name: "New", Email: "new@x.com"},
		{Name: "NoEmail", Email: ""},
		{Name: "Dup", Email: "a@x.com"},
	}

	result, err := service.BulkCreateCustomers(ctx, inputs)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}

	if result.OperationID == "" {
		t.Error("operation id not assigned")
	}
	if len(result.Created)+len(result.Errors) != len(inputs) {
		t.Fatalf("created %d + errors %d != %d inputs",
			len(result.Created), len(result.Errors), len(inputs))
	}

	if len(result.Created) != 1 || result.Created[0].Email != "new@x.com" {
		t.Fatalf("created = %+v, want one customer new@x.com", result.Created)
	}

	if len(result.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2", result.Errors)
	}
	if result.Errors[0].Index != 1 || result.Errors[0].Message != "Both name and email are required." {
		t.Errorf("errors[0] = %+v", result.Errors[0])
	}
	if result.Errors[1].Index != 2 || result.Errors[1].Email != "a@x.com" ||
		result.Errors[1].Message != "Email already exists." {
		t.Errorf("errors[1] = %+v", result.Errors[1])
	}

	// One seed row plus one batch success.
	if store.CustomerCount() != 2 {
		t.Errorf("customer count = %d, want 2", store.CustomerCount())
	}
}

func TestBulkCreateCustomers_AllValid(t *testing.T) {
	service, store := newTestService(t)

	inputs := []crm.CustomerInput{
		{Name: "A", Email: "a@x.com", Phone: "+1234567890"},
		{Name: "B", Email: "b@x.com", Phone: "123-456-7890"},
		{Name: "C", Email: "c@x.com"},
	}
	result, err := service.BulkCreateCustomers(context.Background(), inputs)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}

	if len(result.Created) != 3 || len(result.Errors) != 0 {
		t.Fatalf("created = %d, errors = %d", len(result.Created), len(result.Errors))
	}
	// Input order is preserved in the created list.
	for i, in := range inputs {
		if result.Created[i].Email != in.Email {
			t.Errorf("created[%d].Email = %q, want %q", i, result.Created[i].Email, in.Email)
		}
		if result.Created[i].ID == 0 {
			t.Errorf("created[%d] has no ID", i)
		}
	}
	if store.CustomerCount() != 3 {
		t.Errorf("customer count = %d, want 3", store.CustomerCount())
	}
}

func TestBulkCreateCustomers_EmptyBatch(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.BulkCreateCustomers(context.Background(), nil)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	if result.Created == nil || result.Errors == nil {
		t.Error("result slices must be non-nil")
	}
	if len(result.Created) != 0 || len(result.Errors) != 0 {
		t.Errorf("created = %d, errors = %d, want 0 and 0", len(result.Created), len(result.Errors))
	}
}

func TestBulkCreateCustomers_IntraBatchDuplicate(t *testing.T) {
	service, store := newTestService(t)

	// Same email twice in one batch, differing only in case. The first
	// occurrence wins; the second sees the uncommitted row and fails.
	inputs := []crm.CustomerInput{
		{Name: "First", Email: "same@x.com"},
		{Name: "Second", Email: "SAME@X.COM"},
	}
	result, err := service.BulkCreateCustomers(context.Background(), inputs)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}

	if len(result.Created) != 1 || result.Created[0].Name != "First" {
		t.Fatalf("created = %+v", result.Created)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 ||
		result.Errors[0].Message != "Email already exists." {
		t.Fatalf("errors = %+v", result.Errors)
	}
	if store.CustomerCount() != 1 {
		t.Errorf("customer count = %d, want 1", store.CustomerCount())
	}
}

func TestBulkCreateCustomers_ItemFailureIsolated(t *testing.T) {
	store := memstore.New()
	service := crm.NewService(store, crm.Options{})

	// Storage fault on exactly one item. It must land in the errors list as
	// an unexpected error while its neighbors commit normally.
	store.InsertCustomerErr = func(c *crm.Customer) error {
		if c.Email == "boom@x.com" {
			return errors.New("disk full")
		}
		return nil
	}

	inputs := []crm.CustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "Boom", Email: "boom@x.com"},
		{Name: "C", Email: "c@x.com"},
	}
	result, err := service.BulkCreateCustomers(context.Background(), inputs)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}

	if len(result.Created) != 2 {
		t.Fatalf("created = %+v, want 2", result.Created)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %+v, want 1", result.Errors)
	}
	be := result.Errors[0]
	if be.Index != 1 || be.Email != "boom@x.com" {
		t.Errorf("error = %+v", be)
	}
	if !strings.HasPrefix(be.Message, "Unexpected error: ") {
		t.Errorf("message = %q, want unexpected-error prefix", be.Message)
	}
	if store.CustomerCount() != 2 {
		t.Errorf("customer count = %d, want 2", store.CustomerCount())
	}
}

func TestBulkCreateCustomers_CommitFailureDropsEverything(t *testing.T) {
	store := memstore.New()
	service := crm.NewService(store, crm.Options{})
	store.CommitErr = errors.New("connection lost")

	_, err := service.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "b@x.com"},
	})
	if crm.KindOf(err) != crm.KindUnexpected {
		t.Fatalf("kind = %s, want %s", crm.KindOf(err), crm.KindUnexpected)
	}
	// No item counts as persisted, even though both savepoints released.
	if store.CustomerCount() != 0 {
		t.Errorf("customer count = %d, want 0", store.CustomerCount())
	}
}

func TestBulkCreateCustomers_BeginFailure(t *testing.T) {
	store := memstore.New()
	service := crm.NewService(store, crm.Options{})
	store.BeginErr = errors.New("pool exhausted")

	_, err := service.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "A", Email: "a@x.com"},
	})
	if crm.KindOf(err) != crm.KindUnexpected {
		t.Fatalf("kind = %s, want %s", crm.KindOf(err), crm.KindUnexpected)
	}
}

func TestBulkCreateCustomers_BatchSizeCap(t *testing.T) {
	store := memstore.New()
	service := crm.NewService(store, crm.Options{MaxBatchSize: 2})

	inputs := []crm.CustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "b@x.com"},
		{Name: "C", Email: "c@x.com"},
	}
	_, err := service.BulkCreateCustomers(context.Background(), inputs)
	if crm.KindOf(err) != crm.KindInvalidQuery {
		t.Fatalf("kind = %s, want %s", crm.KindOf(err), crm.KindInvalidQuery)
	}
	if store.CustomerCount() != 0 {
		t.Errorf("customer count = %d, want 0", store.CustomerCount())
	}
}

func TestBulkCreateCustomers_InvalidPhoneReported(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "A", Email: "a@x.com", Phone: "not-a-phone"},
	})
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %+v, want 1", result.Errors)
	}
	if result.Errors[0].Message != "Invalid phone format. Use +1234567890 or 123-456-7890." {
		t.Errorf("message = %q", result.Errors[0].Message)
	}
}
