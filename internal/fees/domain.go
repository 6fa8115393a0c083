package fees

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recurrence enumerates fee structure billing cycles.
type Recurrence string

const (
	RecurrenceMonthly   Recurrence = "monthly"
	RecurrenceQuarterly Recurrence = "quarterly"
	RecurrenceTerm      Recurrence = "term"
	RecurrenceAnnual    Recurrence = "annual"
)

// DiscountType enumerates how a discount amount is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// InvoiceStatus enumerates fee invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceIssued        InvoiceStatus = "issued"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
)

// Payable reports whether new payments may be recorded against the status.
func (s InvoiceStatus) Payable() bool {
	switch s {
	case InvoiceIssued, InvoicePartiallyPaid, InvoiceOverdue:
		return true
	}
	return false
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodCheque       PaymentMethod = "cheque"
	MethodOnline       PaymentMethod = "online"
)

// FeeStructure defines how much a grade owes for a fee category within an
// academic year. Recurrence is set iff IsRecurring is true.
type FeeStructure struct {
	ID             uuid.UUID
	SchoolID       uuid.UUID
	AcademicYearID uuid.UUID
	GradeID        uuid.UUID
	FeeCategoryID  uuid.UUID
	Name           string
	Amount         decimal.Decimal
	DueDate        *time.Time
	IsRecurring    bool
	Recurrence     *Recurrence
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FeeStructureDetail includes the structure with its reference data expanded.
type FeeStructureDetail struct {
	FeeStructure
	AcademicYearName string
	GradeName        string
	FeeCategoryName  string
}

// FeeDiscount is a per-student reduction against one fee structure.
type FeeDiscount struct {
	ID             uuid.UUID
	SchoolID       uuid.UUID
	StudentID      uuid.UUID
	FeeStructureID uuid.UUID
	DiscountType   DiscountType
	Amount         decimal.Decimal
	Reason         *string
	ApprovedBy     uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FeeInvoice is the materialized charge for one student against one structure.
// NetAmount is already discount-adjusted at issue time and never recomputed
// by the payment path.
type FeeInvoice struct {
	ID             uuid.UUID
	SchoolID       uuid.UUID
	StudentID      uuid.UUID
	FeeStructureID uuid.UUID
	NetAmount      decimal.Decimal
	Status         InvoiceStatus
	DueDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FeeInvoiceDetail includes the invoice with its payments and running totals.
type FeeInvoiceDetail struct {
	FeeInvoice
	Payments   []FeePayment
	PaidAmount decimal.Decimal
	Balance    decimal.Decimal
}

// FeePayment records money received against an invoice. Payments are
// append-only; they are never updated or deleted.
type FeePayment struct {
	ID              uuid.UUID
	SchoolID        uuid.UUID
	InvoiceID       uuid.UUID
	AmountPaid      decimal.Decimal
	PaymentDate     time.Time
	Method          PaymentMethod
	ReferenceNumber *string
	Notes           *string
	ReceivedBy      uuid.UUID
	CreatedAt       time.Time
}

// FeePaymentDetail includes the payment with its invoice expanded.
type FeePaymentDetail struct {
	FeePayment
	StudentID     uuid.UUID
	InvoiceStatus InvoiceStatus
	NetAmount     decimal.Decimal
}

// CreateFeeStructureInput carries validated fields for structure creation.
type CreateFeeStructureInput struct {
	AcademicYearID uuid.UUID
	GradeID        uuid.UUID
	FeeCategoryID  uuid.UUID
	Name           string
	Amount         decimal.Decimal
	DueDate        *time.Time
	IsRecurring    bool
	Recurrence     *Recurrence
}

// UpdateFeeStructureInput carries optional fields for a partial update.
// Nil fields keep their stored value.
type UpdateFeeStructureInput struct {
	AcademicYearID  *uuid.UUID
	GradeID         *uuid.UUID
	FeeCategoryID   *uuid.UUID
	Name            *string
	Amount          *decimal.Decimal
	DueDate         *time.Time
	IsRecurring     *bool
	Recurrence      *Recurrence
	ClearRecurrence bool
}

// CreateFeeDiscountInput carries validated fields for discount creation.
type CreateFeeDiscountInput struct {
	StudentID      uuid.UUID
	FeeStructureID uuid.UUID
	DiscountType   DiscountType
	Amount         decimal.Decimal
	Reason         *string
}

// UpdateFeeDiscountInput carries optional fields for a partial update.
type UpdateFeeDiscountInput struct {
	DiscountType *DiscountType
	Amount       *decimal.Decimal
	Reason       *string
}

// RecordPaymentInput carries validated fields for payment recording.
type RecordPaymentInput struct {
	InvoiceID       uuid.UUID
	AmountPaid      decimal.Decimal
	PaymentDate     time.Time
	Method          PaymentMethod
	ReferenceNumber *string
	Notes           *string
}

// IssueInvoicesInput materializes invoices for a structure.
type IssueInvoicesInput struct {
	FeeStructureID uuid.UUID
	StudentIDs     []uuid.UUID
}

// ListFeeStructuresRequest filters the structure listing.
type ListFeeStructuresRequest struct {
	AcademicYearID *uuid.UUID
	GradeID        *uuid.UUID
	FeeCategoryID  *uuid.UUID
	IsRecurring    *bool
	SortBy         string
	SortDir        string
	Page           int
	PerPage        int
}

// ListFeeDiscountsRequest filters the discount listing.
type ListFeeDiscountsRequest struct {
	StudentID      *uuid.UUID
	FeeStructureID *uuid.UUID
	Page           int
	PerPage        int
}

// ListFeeInvoicesRequest filters the invoice listing.
type ListFeeInvoicesRequest struct {
	StudentID      *uuid.UUID
	FeeStructureID *uuid.UUID
	Status         InvoiceStatus
	Page           int
	PerPage        int
}

// ListFeePaymentsRequest filters the payment listing.
type ListFeePaymentsRequest struct {
	InvoiceID *uuid.UUID
	Method    PaymentMethod
	Page      int
	PerPage   int
}
