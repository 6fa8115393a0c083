package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation wraps invariant-violating input.
	ErrValidation = errors.New("validation failed")
	// ErrStructureNotFound indicates the fee structure does not exist for the tenant.
	ErrStructureNotFound = errors.New("fee structure not found")
	// ErrDiscountNotFound indicates the fee discount does not exist for the tenant.
	ErrDiscountNotFound = errors.New("fee discount not found")
	// ErrInvoiceNotFound indicates the fee invoice does not exist for the tenant.
	ErrInvoiceNotFound = errors.New("fee invoice not found")
	// ErrPaymentNotFound indicates the fee payment does not exist for the tenant.
	ErrPaymentNotFound = errors.New("fee payment not found")
	// ErrInvoiceNotPayable indicates a payment against an invoice that already
	// reached paid status.
	ErrInvoiceNotPayable = errors.New("invoice is not in a payable status")
	// ErrOverpayment indicates a payment that would push the paid total past
	// the tolerance-adjusted net amount.
	ErrOverpayment = errors.New("payment exceeds invoice balance")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func overpaymentErr(remaining decimal.Decimal) error {
	return fmt.Errorf("%w: remaining balance is %s", ErrOverpayment, remaining.StringFixed(2))
}
