package memstore

import (
	"context"
	"testing"

	"github.com/alxcrm/crm-api/internal/crm"
)

func TestSavepointRollbackDiscardsOnlyScopedWrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := tx.Savepoint(ctx, "sp_0"); err != nil {
		t.Fatalf("savepoint: %v", err)
	}
	if err := tx.InsertCustomer(ctx, &crm.Customer{Name: "A", Email: "a@x.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.ReleaseSavepoint(ctx, "sp_0"); err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := tx.Savepoint(ctx, "sp_1"); err != nil {
		t.Fatalf("savepoint: %v", err)
	}
	if err := tx.InsertCustomer(ctx, &crm.Customer{Name: "B", Email: "b@x.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.RollbackToSavepoint(ctx, "sp_1"); err != nil {
		t.Fatalf("rollback to savepoint: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if store.CustomerCount() != 1 {
		t.Fatalf("customer count = %d, want 1", store.CustomerCount())
	}
	c, err := store.GetCustomer(ctx, 1)
	if err != nil || c == nil || c.Email != "a@x.com" {
		t.Errorf("survivor = %+v, err = %v", c, err)
	}
}

func TestUncommittedRowsVisibleInsideTransaction(t *testing.T) {
	store := New()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.InsertCustomer(ctx, &crm.Customer{Name: "A", Email: "a@x.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Visible inside the transaction, not outside.
	if exists, _ := tx.EmailExists(ctx, "A@X.COM"); !exists {
		t.Error("staged row not visible to transaction")
	}
	if exists, _ := store.EmailExists(ctx, "a@x.com"); exists {
		t.Error("staged row leaked before commit")
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if store.CustomerCount() != 0 {
		t.Errorf("customer count = %d, want 0", store.CustomerCount())
	}
}
