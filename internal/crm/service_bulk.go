package crm

// service_bulk.go implements the bulk mutation engine.
//
// A batch of N customer inputs runs inside one outer transaction. Each item
// gets its own savepoint scope, so a failing item rolls back only its own
// writes while the rest of the batch proceeds. Sub-commits are visible
// within the outer transaction, which is what makes intra-batch duplicate
// detection work: if the same email appears twice in one batch, the first
// occurrence wins and the second fails with DuplicateEmail.
//
// Only an infrastructure failure of the outer transaction itself (begin,
// savepoint bookkeeping, commit) is fatal to the whole call. In that case no
// input is treated as persisted, even items whose savepoints were released.

import (
	"context"
	"fmt"
	"strings"

	"github.com/alxcrm/crm-api/internal/logging"
	"github.com/google/uuid"
)

// BulkCreateCustomers processes an ordered list of candidate customers and
// returns independent per-item outcomes. Created and Errors each preserve
// input order, and every input index lands in exactly one of the two lists.
func (s *Service) BulkCreateCustomers(ctx context.Context, inputs []CustomerInput) (*BulkCreateResult, error) {
	if s.maxBatchSize > 0 && len(inputs) > s.maxBatchSize {
		return nil, NewError(KindInvalidQuery,
			fmt.Sprintf("Batch size %d exceeds the maximum of %d.", len(inputs), s.maxBatchSize))
	}

	result := &BulkCreateResult{
		OperationID: uuid.NewString(),
		Created:     []Customer{},
		Errors:      []BulkError{},
	}
	logger := logging.FromContext(ctx).With(
		"operation_id", result.OperationID,
		"batch_size", len(inputs),
	)

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, Unexpected(err)
	}
	defer tx.Rollback(ctx)

	for i, in := range inputs {
		sp := fmt.Sprintf("sp_%d", i)
		if err := tx.Savepoint(ctx, sp); err != nil {
			return nil, Unexpected(err)
		}

		customer, err := createCustomerInTx(ctx, tx, in)
		if err != nil {
			// Discard this item's writes only; the rest of the batch is
			// unaffected.
			if rbErr := tx.RollbackToSavepoint(ctx, sp); rbErr != nil {
				return nil, Unexpected(rbErr)
			}
			ce := AsError(err)
			result.Errors = append(result.Errors, BulkError{
				Index:   i,
				Email:   in.Email,
				Message: ce.Message,
			})
			logger.Debug("bulk item failed", "index", i, "kind", string(ce.Kind))
			continue
		}

		if err := tx.ReleaseSavepoint(ctx, sp); err != nil {
			return nil, Unexpected(err)
		}
		result.Created = append(result.Created, *customer)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, Unexpected(err)
	}

	logger.Info("bulk create customers finished",
		"created", len(result.Created),
		"failed", len(result.Errors),
	)
	return result, nil
}

// createCustomerInTx validates and inserts one candidate inside the caller's
// transaction. The uniqueness check runs through the transaction so it sees
// rows created by earlier items in the same batch.
func createCustomerInTx(ctx context.Context, tx StoreTx, in CustomerInput) (*Customer, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, errNameEmailRequired
	}

	exists, err := tx.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errEmailExists
	}
	if err := ValidatePhone(in.Phone); err != nil {
		return nil, err
	}

	customer := &Customer{
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(in.Phone),
	}
	if err := tx.InsertCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
