package fees

import "github.com/shopspring/decimal"

// paymentTolerance is the multiplicative slack allowed between cumulative
// payments and an invoice net amount. The factor is relative rather than an
// additive epsilon so that rounding drift scales with the invoice size while
// a payment that is too large against a tiny invoice is still rejected.
var (
	paymentTolerance = decimal.RequireFromString("1.001")
	oneHundred       = decimal.NewFromInt(100)
)

// ExceedsNetWithTolerance reports whether total is more than net x 1.001.
// Both operands stay in decimal space; converting to binary floating point
// here would reintroduce the drift the tolerance exists to absorb.
func ExceedsNetWithTolerance(total, net decimal.Decimal) bool {
	return total.GreaterThan(net.Mul(paymentTolerance))
}

// RemainingBalance returns net minus paid rounded to two decimal places,
// clamped at zero for display in error messages.
func RemainingBalance(net, paid decimal.Decimal) decimal.Decimal {
	balance := net.Sub(paid).Round(2)
	if balance.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return balance
}

// DeriveStatus computes the invoice status implied by a paid total. It is a
// pure function so the status write can be retried independently of the
// payment insert.
func DeriveStatus(paidTotal, net decimal.Decimal) InvoiceStatus {
	if paidTotal.GreaterThanOrEqual(net) {
		return InvoicePaid
	}
	return InvoicePartiallyPaid
}
