package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExceedsNetWithTolerance(t *testing.T) {
	net := decimal.NewFromInt(1000)

	cases := []struct {
		name    string
		total   string
		exceeds bool
	}{
		{"under net", "999.99", false},
		{"exact net", "1000.00", false},
		{"within tolerance", "1000.50", false},
		{"at tolerance limit", "1001.00", false},
		{"one cent past", "1001.01", true},
		{"far past", "1500.00", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total := decimal.RequireFromString(tc.total)
			require.Equal(t, tc.exceeds, ExceedsNetWithTolerance(total, net))
		})
	}
}

func TestToleranceScalesWithInvoiceSize(t *testing.T) {
	// The slack is multiplicative, so a small invoice gets almost none.
	small := decimal.RequireFromString("10.00")
	require.False(t, ExceedsNetWithTolerance(decimal.RequireFromString("10.01"), small))
	require.True(t, ExceedsNetWithTolerance(decimal.RequireFromString("10.02"), small))

	large := decimal.NewFromInt(100000)
	require.False(t, ExceedsNetWithTolerance(decimal.NewFromInt(100100), large))
	require.True(t, ExceedsNetWithTolerance(decimal.RequireFromString("100100.01"), large))
}

func TestRemainingBalance(t *testing.T) {
	net := decimal.NewFromInt(1000)

	require.Equal(t, "400.00", RemainingBalance(net, decimal.NewFromInt(600)).StringFixed(2))
	require.Equal(t, "1000.00", RemainingBalance(net, decimal.Zero).StringFixed(2))
	require.Equal(t, "0.00", RemainingBalance(net, decimal.NewFromInt(1000)).StringFixed(2))
	// Paid past net clamps at zero rather than going negative.
	require.Equal(t, "0.00", RemainingBalance(net, decimal.RequireFromString("1000.50")).StringFixed(2))
}

func TestDeriveStatus(t *testing.T) {
	net := decimal.NewFromInt(500)

	require.Equal(t, InvoicePartiallyPaid, DeriveStatus(decimal.NewFromInt(1), net))
	require.Equal(t, InvoicePartiallyPaid, DeriveStatus(decimal.RequireFromString("499.99"), net))
	require.Equal(t, InvoicePaid, DeriveStatus(decimal.NewFromInt(500), net))
	require.Equal(t, InvoicePaid, DeriveStatus(decimal.RequireFromString("500.25"), net))
}

func TestInvoiceStatusPayable(t *testing.T) {
	require.True(t, InvoiceIssued.Payable())
	require.True(t, InvoicePartiallyPaid.Payable())
	require.True(t, InvoiceOverdue.Payable())
	require.False(t, InvoicePaid.Payable())
}

func TestFormatAmountGroupsThousands(t *testing.T) {
	require.Equal(t, "1,200.00", FormatAmount(decimal.NewFromInt(1200)))
	require.Equal(t, "85.50", FormatAmount(decimal.RequireFromString("85.5")))
	require.Equal(t, "1,000,000.00", FormatAmount(decimal.NewFromInt(1000000)))
}
