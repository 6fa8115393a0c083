package fees

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
)

// RecordPayment validates an incoming payment against the invoice's payable
// state and current paid total, persists the payment and transitions the
// invoice status. The whole read-sum-check-write sequence runs inside one
// transaction holding a row lock on the invoice, so two concurrent recordings
// against the same invoice serialize and the second one observes the first
// one's total.
func (s *Service) RecordPayment(ctx context.Context, schoolID, receivedBy uuid.UUID, input RecordPaymentInput) (FeePaymentDetail, error) {
	if err := validatePaymentInput(input); err != nil {
		return FeePaymentDetail{}, err
	}
	if receivedBy == uuid.Nil {
		return FeePaymentDetail{}, validationErr("receiving user is required")
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now()
	}

	var created FeePayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, schoolID, input.InvoiceID)
		if err != nil {
			return err
		}
		if !invoice.Status.Payable() {
			return ErrInvoiceNotPayable
		}

		existingPaid, err := tx.SumPaid(ctx, invoice.ID)
		if err != nil {
			return err
		}
		totalAfterPayment := existingPaid.Add(input.AmountPaid)
		if ExceedsNetWithTolerance(totalAfterPayment, invoice.NetAmount) {
			if s.metrics != nil {
				s.metrics.OverpaymentRejected()
			}
			return overpaymentErr(RemainingBalance(invoice.NetAmount, existingPaid))
		}

		created, err = tx.InsertPayment(ctx, FeePayment{
			SchoolID:        schoolID,
			InvoiceID:       invoice.ID,
			AmountPaid:      input.AmountPaid,
			PaymentDate:     input.PaymentDate,
			Method:          input.Method,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
			ReceivedBy:      receivedBy,
		})
		if err != nil {
			return err
		}

		// Status only ever moves forward toward paid through this path.
		return tx.UpdateInvoiceStatus(ctx, schoolID, invoice.ID, DeriveStatus(totalAfterPayment, invoice.NetAmount))
	})
	if err != nil {
		return FeePaymentDetail{}, err
	}

	if s.metrics != nil {
		s.metrics.PaymentRecorded(string(input.Method))
	}
	s.recordAudit(ctx, schoolID, "fees:payment_recorded", "fee_payment", created.ID, map[string]any{
		"invoice_id":     created.InvoiceID.String(),
		"amount_paid":    created.AmountPaid.String(),
		"amount_display": FormatAmount(created.AmountPaid),
		"method":         string(created.Method),
	})

	return s.repo.GetFeePayment(ctx, schoolID, created.ID)
}

// ReconcileInvoiceStatus re-derives the invoice status from the persisted
// payment sum. It repairs the recoverable state left behind when a payment
// insert committed but the status write did not, and is safe to call any
// number of times. Invoices without payments are left untouched.
func (s *Service) ReconcileInvoiceStatus(ctx context.Context, schoolID, invoiceID uuid.UUID) (InvoiceStatus, error) {
	var status InvoiceStatus
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, schoolID, invoiceID)
		if err != nil {
			return err
		}
		paid, err := tx.SumPaid(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if paid.IsZero() {
			status = invoice.Status
			return nil
		}
		status = DeriveStatus(paid, invoice.NetAmount)
		if status == invoice.Status {
			return nil
		}
		return tx.UpdateInvoiceStatus(ctx, schoolID, invoice.ID, status)
	})
	return status, err
}

// GetFeePayment returns one payment with its invoice expanded.
func (s *Service) GetFeePayment(ctx context.Context, schoolID, id uuid.UUID) (FeePaymentDetail, error) {
	return s.repo.GetFeePayment(ctx, schoolID, id)
}

// ListFeePayments returns a filtered, paginated payment listing.
func (s *Service) ListFeePayments(ctx context.Context, schoolID uuid.UUID, req ListFeePaymentsRequest) ([]FeePayment, shared.Pagination, error) {
	items, total, err := s.repo.ListFeePayments(ctx, schoolID, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}
