package crm

// errors.go defines the error taxonomy shared by all mutations.
//
// Every validation failure is a typed value: a Kind the caller can branch on
// plus a human-readable Message. No panics and no untyped errors cross the
// package boundary; anything unanticipated is wrapped as KindUnexpected with
// the original error preserved for logging.

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrorKind identifies a category of mutation failure.
type ErrorKind string

const (
	KindMissingRequiredField ErrorKind = "MISSING_REQUIRED_FIELD"
	KindDuplicateEmail       ErrorKind = "DUPLICATE_EMAIL"
	KindInvalidPhoneFormat   ErrorKind = "INVALID_PHONE_FORMAT"
	KindInvalidPrice         ErrorKind = "INVALID_PRICE"
	KindNonPositivePrice     ErrorKind = "NON_POSITIVE_PRICE"
	KindNegativeStock        ErrorKind = "NEGATIVE_STOCK"
	KindEmptyProductList     ErrorKind = "EMPTY_PRODUCT_LIST"
	KindInvalidCustomerID    ErrorKind = "INVALID_CUSTOMER_ID"
	KindCustomerNotFound     ErrorKind = "CUSTOMER_NOT_FOUND"
	KindInvalidProductID     ErrorKind = "INVALID_PRODUCT_ID"
	KindProductsNotFound     ErrorKind = "PRODUCTS_NOT_FOUND"
	KindInvalidQuery         ErrorKind = "INVALID_QUERY"
	KindUnexpected           ErrorKind = "UNEXPECTED_ERROR"
)

// Error is a structured mutation error.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause, if any, for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// NewError builds an Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Unexpected wraps an unanticipated failure (storage faults, connection
// loss) so it still carries a kind and the original message.
func Unexpected(err error) *Error {
	return &Error{
		Kind:    KindUnexpected,
		Message: "Unexpected error: " + err.Error(),
		cause:   err,
	}
}

// KindOf returns the ErrorKind of err, or KindUnexpected when err is not a
// *crm.Error.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnexpected
}

// AsError converts any error into a *crm.Error, wrapping foreign errors as
// KindUnexpected. This is the boundary the bulk engine relies on: nothing
// escapes a batch item without a kind and message.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return Unexpected(err)
}

// Canonical messages, matching the wording callers already depend on.
var (
	errEmailExists = NewError(KindDuplicateEmail, "Email already exists.")

	errInvalidPhone = NewError(KindInvalidPhoneFormat,
		"Invalid phone format. Use +1234567890 or 123-456-7890.")

	errInvalidPrice     = NewError(KindInvalidPrice, "Price must be a valid decimal number.")
	errNonPositivePrice = NewError(KindNonPositivePrice, "Price must be positive.")
	errNegativeStock    = NewError(KindNegativeStock, "Stock cannot be negative.")

	errNameEmailRequired = NewError(KindMissingRequiredField, "Both name and email are required.")

	errEmptyProductList  = NewError(KindEmptyProductList, "At least one product must be selected.")
	errInvalidCustomerID = NewError(KindInvalidCustomerID, "Invalid customer ID.")
	errCustomerNotFound  = NewError(KindCustomerNotFound, "Customer not found.")
	errInvalidProductID  = NewError(KindInvalidProductID, "All product IDs must be integers.")
)

// DuplicateEmail returns the canonical duplicate-email error. Exposed so the
// store can translate a storage-level unique violation into the same error
// the validators produce.
func DuplicateEmail() *Error { return errEmailExists }

// missingRequired builds a MissingRequiredField error naming the field.
func missingRequired(field string) *Error {
	return NewError(KindMissingRequiredField, fmt.Sprintf("%s is required.", field))
}

// productsNotFound builds a ProductsNotFound error naming the missing IDs,
// sorted ascending so the message is deterministic.
func productsNotFound(missing []int64) *Error {
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	parts := make([]string, len(missing))
	for i, id := range missing {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return NewError(KindProductsNotFound,
		fmt.Sprintf("Invalid product ID(s): [%s]", strings.Join(parts, ", ")))
}
