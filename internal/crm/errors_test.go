package crm

import (
	"errors"
	"testing"
)

func TestProductsNotFound(t *testing.T) {
	tests := []struct {
		name    string
		missing []int64
		want    string
	}{
		{"single", []int64{999}, "Invalid product ID(s): [999]"},
		{"sorted ascending", []int64{42, 7, 19}, "Invalid product ID(s): [7, 19, 42]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := productsNotFound(tt.missing)
			if err.Kind != KindProductsNotFound {
				t.Errorf("kind = %s, want %s", err.Kind, KindProductsNotFound)
			}
			if err.Message != tt.want {
				t.Errorf("message = %q, want %q", err.Message, tt.want)
			}
		})
	}
}

func TestUnexpected(t *testing.T) {
	cause := errors.New("connection reset")
	err := Unexpected(cause)

	if err.Kind != KindUnexpected {
		t.Errorf("kind = %s, want %s", err.Kind, KindUnexpected)
	}
	if err.Message != "Unexpected error: connection reset" {
		t.Errorf("message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"typed error", errEmailExists, KindDuplicateEmail},
		{"wrapped unexpected", Unexpected(errors.New("boom")), KindUnexpected},
		{"foreign error", errors.New("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAsError(t *testing.T) {
	t.Run("passes through typed errors", func(t *testing.T) {
		if got := AsError(errInvalidPhone); got != errInvalidPhone {
			t.Errorf("got %v, want identical error value", got)
		}
	})

	t.Run("wraps foreign errors", func(t *testing.T) {
		got := AsError(errors.New("disk full"))
		if got.Kind != KindUnexpected {
			t.Errorf("kind = %s, want %s", got.Kind, KindUnexpected)
		}
		if got.Message != "Unexpected error: disk full" {
			t.Errorf("message = %q", got.Message)
		}
	})
}

func TestCanonicalMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{errEmailExists, "Email already exists."},
		{errInvalidPhone, "Invalid phone format. Use +1234567890 or 123-456-7890."},
		{errInvalidPrice, "Price must be a valid decimal number."},
		{errNonPositivePrice, "Price must be positive."},
		{errNegativeStock, "Stock cannot be negative."},
		{errNameEmailRequired, "Both name and email are required."},
		{errEmptyProductList, "At least one product must be selected."},
		{errInvalidCustomerID, "Invalid customer ID."},
		{errCustomerNotFound, "Customer not found."},
		{errInvalidProductID, "All product IDs must be integers."},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("%s: message = %q, want %q", tt.err.Kind, tt.err.Error(), tt.want)
		}
	}
}
