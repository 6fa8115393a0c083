package fees

import "strings"

var validRecurrences = map[Recurrence]bool{
	RecurrenceMonthly:   true,
	RecurrenceQuarterly: true,
	RecurrenceTerm:      true,
	RecurrenceAnnual:    true,
}

var validMethods = map[PaymentMethod]bool{
	MethodCash:         true,
	MethodBankTransfer: true,
	MethodCard:         true,
	MethodCheque:       true,
	MethodOnline:       true,
}

// validateStructure checks the full shape invariant of a fee structure. It
// runs against the merged state on update, not just the incoming payload, so
// a partial update can never leave a persisted structure inconsistent.
func validateStructure(s FeeStructure) error {
	if strings.TrimSpace(s.Name) == "" {
		return validationErr("name is required")
	}
	if !s.Amount.IsPositive() {
		return validationErr("amount must be positive")
	}
	if s.IsRecurring {
		if s.Recurrence == nil {
			return validationErr("recurrence is required when is_recurring is true")
		}
		if !validRecurrences[*s.Recurrence] {
			return validationErr("recurrence must be one of monthly, quarterly, term, annual")
		}
	} else if s.Recurrence != nil {
		return validationErr("recurrence must be absent when is_recurring is false")
	}
	return nil
}

// validateDiscount checks the full shape invariant of a fee discount,
// including the merged state on update.
func validateDiscount(d FeeDiscount) error {
	switch d.DiscountType {
	case DiscountPercentage:
		if !d.Amount.IsPositive() {
			return validationErr("amount must be positive")
		}
		if d.Amount.GreaterThan(oneHundred) {
			return validationErr("percentage discount must not exceed 100")
		}
	case DiscountFixed:
		if !d.Amount.IsPositive() {
			return validationErr("amount must be positive")
		}
	default:
		return validationErr("discount type must be percentage or fixed")
	}
	return nil
}

func validatePaymentInput(input RecordPaymentInput) error {
	if !input.AmountPaid.IsPositive() {
		return validationErr("amount_paid must be positive")
	}
	if !validMethods[input.Method] {
		return validationErr("payment method must be one of cash, bank_transfer, card, cheque, online")
	}
	return nil
}
