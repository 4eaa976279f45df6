package crm

// validate.go provides field-level validation for mutation inputs.
//
// Each validator is a pure function: it either fails with a typed *Error or
// returns the normalized value. Re-validating an already-valid input is safe
// and returns the same normalized output every time. The only validation
// with a side channel is email uniqueness, which needs a read-only existence
// check against the store and therefore lives with the mutation handlers.

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// phoneRE accepts international format (+ followed by 10-15 digits) or
// US dashed format (123-456-7890).
var phoneRE = regexp.MustCompile(`^(\+\d{10,15}|\d{3}-\d{3}-\d{4})$`)

// RequireNonEmpty fails with MissingRequiredField when value is blank or
// whitespace-only. Returns the trimmed value.
func RequireNonEmpty(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", missingRequired(field)
	}
	return trimmed, nil
}

// ValidatePhone checks the optional phone field. An empty phone is valid;
// anything else must match one of the two accepted formats.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRE.MatchString(phone) {
		return errInvalidPhone
	}
	return nil
}

// ValidatePriceAndStock parses price into an exact decimal and normalizes
// stock. Price must parse and be strictly positive. Stock, when supplied,
// must be non-negative; a nil stock defaults to 0.
func ValidatePriceAndStock(price string, stock *int) (decimal.Decimal, int, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return decimal.Decimal{}, 0, errInvalidPrice
	}
	if p.Sign() <= 0 {
		return decimal.Decimal{}, 0, errNonPositivePrice
	}
	if stock == nil {
		return p, 0, nil
	}
	if *stock < 0 {
		return decimal.Decimal{}, 0, errNegativeStock
	}
	return p, *stock, nil
}
