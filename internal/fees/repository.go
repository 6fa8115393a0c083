package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines fee ledger data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	CreateFeeStructure(ctx context.Context, schoolID uuid.UUID, input CreateFeeStructureInput) (FeeStructure, error)
	GetFeeStructure(ctx context.Context, schoolID, id uuid.UUID) (FeeStructure, error)
	GetFeeStructureDetail(ctx context.Context, schoolID, id uuid.UUID) (FeeStructureDetail, error)
	UpdateFeeStructure(ctx context.Context, structure FeeStructure) error
	DeleteFeeStructure(ctx context.Context, schoolID, id uuid.UUID) error
	ListFeeStructures(ctx context.Context, schoolID uuid.UUID, req ListFeeStructuresRequest) ([]FeeStructureDetail, int, error)

	CreateFeeDiscount(ctx context.Context, discount FeeDiscount) (FeeDiscount, error)
	GetFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) (FeeDiscount, error)
	UpdateFeeDiscount(ctx context.Context, discount FeeDiscount) error
	DeleteFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) error
	ListFeeDiscounts(ctx context.Context, schoolID uuid.UUID, req ListFeeDiscountsRequest) ([]FeeDiscount, int, error)
	ListDiscountsForStructure(ctx context.Context, schoolID, structureID uuid.UUID) ([]FeeDiscount, error)

	GetFeeInvoice(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoice, error)
	GetFeeInvoiceDetail(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoiceDetail, error)
	ListFeeInvoices(ctx context.Context, schoolID uuid.UUID, req ListFeeInvoicesRequest) ([]FeeInvoice, int, error)
	InvoiceExists(ctx context.Context, schoolID, studentID, structureID uuid.UUID) (bool, error)
	CreateFeeInvoice(ctx context.Context, invoice FeeInvoice) (FeeInvoice, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
	UpdateInvoiceStatus(ctx context.Context, schoolID, id uuid.UUID, status InvoiceStatus) error

	GetFeePayment(ctx context.Context, schoolID, id uuid.UUID) (FeePaymentDetail, error)
	ListFeePayments(ctx context.Context, schoolID uuid.UUID, req ListFeePaymentsRequest) ([]FeePayment, int, error)
}

// TxRepository defines the operations that must run inside the payment
// recording transaction. GetInvoiceForUpdate holds a row lock on the invoice
// until commit so concurrent recordings serialize.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, schoolID, invoiceID uuid.UUID) (FeeInvoice, error)
	SumPaid(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	InsertPayment(ctx context.Context, payment FeePayment) (FeePayment, error)
	UpdateInvoiceStatus(ctx context.Context, schoolID, invoiceID uuid.UUID, status InvoiceStatus) error
}
