package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
)

// IssueInvoices materializes one invoice per student for a fee structure.
// The net amount is the structure amount reduced by the student's discounts:
// percentage discounts apply to the gross amount, fixed discounts subtract
// directly, and the result floors at zero. Students that already hold an
// invoice for the structure are skipped.
func (s *Service) IssueInvoices(ctx context.Context, schoolID uuid.UUID, input IssueInvoicesInput) ([]FeeInvoice, error) {
	if len(input.StudentIDs) == 0 {
		return nil, validationErr("at least one student is required")
	}
	structure, err := s.repo.GetFeeStructure(ctx, schoolID, input.FeeStructureID)
	if err != nil {
		return nil, err
	}
	discounts, err := s.repo.ListDiscountsForStructure(ctx, schoolID, structure.ID)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[uuid.UUID][]FeeDiscount, len(discounts))
	for _, d := range discounts {
		byStudent[d.StudentID] = append(byStudent[d.StudentID], d)
	}

	var issued []FeeInvoice
	for _, studentID := range input.StudentIDs {
		exists, err := s.repo.InvoiceExists(ctx, schoolID, studentID, structure.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		invoice, err := s.repo.CreateFeeInvoice(ctx, FeeInvoice{
			SchoolID:       schoolID,
			StudentID:      studentID,
			FeeStructureID: structure.ID,
			NetAmount:      netAmount(structure.Amount, byStudent[studentID]),
			Status:         InvoiceIssued,
			DueDate:        structure.DueDate,
		})
		if err != nil {
			return nil, err
		}
		issued = append(issued, invoice)
	}

	if len(issued) > 0 {
		s.recordAudit(ctx, schoolID, "fees:invoices_issued", "fee_structure", structure.ID, map[string]any{
			"count": len(issued),
		})
	}
	return issued, nil
}

// netAmount applies a student's discounts to the gross structure amount.
func netAmount(gross decimal.Decimal, discounts []FeeDiscount) decimal.Decimal {
	net := gross
	for _, d := range discounts {
		switch d.DiscountType {
		case DiscountPercentage:
			net = net.Sub(gross.Mul(d.Amount).Div(oneHundred))
		case DiscountFixed:
			net = net.Sub(d.Amount)
		}
	}
	net = net.Round(2)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// GetFeeInvoice returns one invoice with its payments and running totals.
func (s *Service) GetFeeInvoice(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoiceDetail, error) {
	return s.repo.GetFeeInvoiceDetail(ctx, schoolID, id)
}

// ListFeeInvoices returns a filtered, paginated invoice listing.
func (s *Service) ListFeeInvoices(ctx context.Context, schoolID uuid.UUID, req ListFeeInvoicesRequest) ([]FeeInvoice, shared.Pagination, error) {
	items, total, err := s.repo.ListFeeInvoices(ctx, schoolID, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// MarkOverdue transitions issued and partially paid invoices with a due date
// before asOf to overdue across all tenants. It is driven by the scheduled
// worker, never by the payment path, and never touches paid invoices.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return s.repo.MarkOverdue(ctx, asOf)
}
