package fees

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryFeesRepo struct {
	mu         sync.Mutex
	structures map[uuid.UUID]FeeStructure
	discounts  map[uuid.UUID]FeeDiscount
	invoices   map[uuid.UUID]FeeInvoice
	payments   map[uuid.UUID]FeePayment
}

type memoryFeesTx struct {
	repo *memoryFeesRepo
}

func newMemoryFeesRepo() *memoryFeesRepo {
	return &memoryFeesRepo{
		structures: make(map[uuid.UUID]FeeStructure),
		discounts:  make(map[uuid.UUID]FeeDiscount),
		invoices:   make(map[uuid.UUID]FeeInvoice),
		payments:   make(map[uuid.UUID]FeePayment),
	}
}

// WithTx holds the repo mutex for the whole callback, mirroring the row lock
// the SQL implementation takes on the invoice.
func (r *memoryFeesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryFeesTx{repo: r})
}

func (r *memoryFeesRepo) CreateFeeStructure(ctx context.Context, schoolID uuid.UUID, input CreateFeeStructureInput) (FeeStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	structure := FeeStructure{
		ID:             uuid.New(),
		SchoolID:       schoolID,
		AcademicYearID: input.AcademicYearID,
		GradeID:        input.GradeID,
		FeeCategoryID:  input.FeeCategoryID,
		Name:           input.Name,
		Amount:         input.Amount,
		DueDate:        input.DueDate,
		IsRecurring:    input.IsRecurring,
		Recurrence:     input.Recurrence,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	r.structures[structure.ID] = structure
	return structure, nil
}

func (r *memoryFeesRepo) GetFeeStructure(ctx context.Context, schoolID, id uuid.UUID) (FeeStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.structures[id]
	if !ok || s.SchoolID != schoolID {
		return FeeStructure{}, ErrStructureNotFound
	}
	return s, nil
}

func (r *memoryFeesRepo) GetFeeStructureDetail(ctx context.Context, schoolID, id uuid.UUID) (FeeStructureDetail, error) {
	s, err := r.GetFeeStructure(ctx, schoolID, id)
	if err != nil {
		return FeeStructureDetail{}, err
	}
	return FeeStructureDetail{FeeStructure: s}, nil
}

func (r *memoryFeesRepo) UpdateFeeStructure(ctx context.Context, structure FeeStructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.structures[structure.ID]; !ok {
		return ErrStructureNotFound
	}
	r.structures[structure.ID] = structure
	return nil
}

func (r *memoryFeesRepo) DeleteFeeStructure(ctx context.Context, schoolID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.structures[id]; !ok {
		return ErrStructureNotFound
	}
	delete(r.structures, id)
	return nil
}

func (r *memoryFeesRepo) ListFeeStructures(ctx context.Context, schoolID uuid.UUID, req ListFeeStructuresRequest) ([]FeeStructureDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FeeStructureDetail
	for _, s := range r.structures {
		if s.SchoolID != schoolID {
			continue
		}
		if req.IsRecurring != nil && s.IsRecurring != *req.IsRecurring {
			continue
		}
		out = append(out, FeeStructureDetail{FeeStructure: s})
	}
	return out, len(out), nil
}

func (r *memoryFeesRepo) CreateFeeDiscount(ctx context.Context, discount FeeDiscount) (FeeDiscount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	discount.ID = uuid.New()
	discount.CreatedAt = time.Now()
	discount.UpdatedAt = time.Now()
	r.discounts[discount.ID] = discount
	return discount, nil
}

func (r *memoryFeesRepo) GetFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) (FeeDiscount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok || d.SchoolID != schoolID {
		return FeeDiscount{}, ErrDiscountNotFound
	}
	return d, nil
}

func (r *memoryFeesRepo) UpdateFeeDiscount(ctx context.Context, discount FeeDiscount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.discounts[discount.ID]; !ok {
		return ErrDiscountNotFound
	}
	r.discounts[discount.ID] = discount
	return nil
}

func (r *memoryFeesRepo) DeleteFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.discounts[id]; !ok {
		return ErrDiscountNotFound
	}
	delete(r.discounts, id)
	return nil
}

func (r *memoryFeesRepo) ListFeeDiscounts(ctx context.Context, schoolID uuid.UUID, req ListFeeDiscountsRequest) ([]FeeDiscount, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FeeDiscount
	for _, d := range r.discounts {
		if d.SchoolID != schoolID {
			continue
		}
		if req.StudentID != nil && d.StudentID != *req.StudentID {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memoryFeesRepo) ListDiscountsForStructure(ctx context.Context, schoolID, structureID uuid.UUID) ([]FeeDiscount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FeeDiscount
	for _, d := range r.discounts {
		if d.SchoolID == schoolID && d.FeeStructureID == structureID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memoryFeesRepo) GetFeeInvoice(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.SchoolID != schoolID {
		return FeeInvoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *memoryFeesRepo) GetFeeInvoiceDetail(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoiceDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.SchoolID != schoolID {
		return FeeInvoiceDetail{}, ErrInvoiceNotFound
	}
	detail := FeeInvoiceDetail{FeeInvoice: inv, PaidAmount: decimal.Zero}
	for _, p := range r.payments {
		if p.InvoiceID == id {
			detail.Payments = append(detail.Payments, p)
			detail.PaidAmount = detail.PaidAmount.Add(p.AmountPaid)
		}
	}
	detail.Balance = RemainingBalance(inv.NetAmount, detail.PaidAmount)
	return detail, nil
}

func (r *memoryFeesRepo) ListFeeInvoices(ctx context.Context, schoolID uuid.UUID, req ListFeeInvoicesRequest) ([]FeeInvoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FeeInvoice
	for _, inv := range r.invoices {
		if inv.SchoolID != schoolID {
			continue
		}
		if req.Status != "" && inv.Status != req.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (r *memoryFeesRepo) InvoiceExists(ctx context.Context, schoolID, studentID, structureID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.SchoolID == schoolID && inv.StudentID == studentID && inv.FeeStructureID == structureID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryFeesRepo) CreateFeeInvoice(ctx context.Context, invoice FeeInvoice) (FeeInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice.ID = uuid.New()
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = time.Now()
	r.invoices[invoice.ID] = invoice
	return invoice, nil
}

func (r *memoryFeesRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	marked := 0
	for id, inv := range r.invoices {
		if inv.DueDate == nil || !inv.DueDate.Before(asOf) {
			continue
		}
		if inv.Status != InvoiceIssued && inv.Status != InvoicePartiallyPaid {
			continue
		}
		inv.Status = InvoiceOverdue
		r.invoices[id] = inv
		marked++
	}
	return marked, nil
}

func (r *memoryFeesRepo) UpdateInvoiceStatus(ctx context.Context, schoolID, id uuid.UUID, status InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.SchoolID != schoolID {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	r.invoices[id] = inv
	return nil
}

func (r *memoryFeesRepo) GetFeePayment(ctx context.Context, schoolID, id uuid.UUID) (FeePaymentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.SchoolID != schoolID {
		return FeePaymentDetail{}, ErrPaymentNotFound
	}
	inv := r.invoices[p.InvoiceID]
	return FeePaymentDetail{
		FeePayment:    p,
		StudentID:     inv.StudentID,
		InvoiceStatus: inv.Status,
		NetAmount:     inv.NetAmount,
	}, nil
}

func (r *memoryFeesRepo) ListFeePayments(ctx context.Context, schoolID uuid.UUID, req ListFeePaymentsRequest) ([]FeePayment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FeePayment
	for _, p := range r.payments {
		if p.SchoolID != schoolID {
			continue
		}
		if req.InvoiceID != nil && p.InvoiceID != *req.InvoiceID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

// Tx methods run with the repo mutex already held by WithTx.

func (t *memoryFeesTx) GetInvoiceForUpdate(ctx context.Context, schoolID, invoiceID uuid.UUID) (FeeInvoice, error) {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok || inv.SchoolID != schoolID {
		return FeeInvoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (t *memoryFeesTx) SumPaid(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range t.repo.payments {
		if p.InvoiceID == invoiceID {
			sum = sum.Add(p.AmountPaid)
		}
	}
	return sum, nil
}

func (t *memoryFeesTx) InsertPayment(ctx context.Context, payment FeePayment) (FeePayment, error) {
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	t.repo.payments[payment.ID] = payment
	return payment, nil
}

func (t *memoryFeesTx) UpdateInvoiceStatus(ctx context.Context, schoolID, invoiceID uuid.UUID, status InvoiceStatus) error {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok || inv.SchoolID != schoolID {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	t.repo.invoices[invoiceID] = inv
	return nil
}

type recordingMetrics struct {
	mu           sync.Mutex
	payments     int
	overpayments int
}

func (m *recordingMetrics) PaymentRecorded(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments++
}

func (m *recordingMetrics) OverpaymentRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overpayments++
}

func recurrencePtr(r Recurrence) *Recurrence { return &r }

func seedInvoice(repo *memoryFeesRepo, schoolID uuid.UUID, net decimal.Decimal, status InvoiceStatus) FeeInvoice {
	inv := FeeInvoice{
		ID:             uuid.New(),
		SchoolID:       schoolID,
		StudentID:      uuid.New(),
		FeeStructureID: uuid.New(),
		NetAmount:      net,
		Status:         status,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	repo.invoices[inv.ID] = inv
	return inv
}

func TestCreateFeeStructureRecurrencePairing(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	base := CreateFeeStructureInput{
		AcademicYearID: uuid.New(),
		GradeID:        uuid.New(),
		FeeCategoryID:  uuid.New(),
		Name:           "Tuition",
		Amount:         decimal.NewFromInt(1200),
	}

	recurringWithoutCycle := base
	recurringWithoutCycle.IsRecurring = true
	_, err := service.CreateFeeStructure(ctx, schoolID, recurringWithoutCycle)
	require.ErrorIs(t, err, ErrValidation)

	cycleWithoutFlag := base
	cycleWithoutFlag.Recurrence = recurrencePtr(RecurrenceMonthly)
	_, err = service.CreateFeeStructure(ctx, schoolID, cycleWithoutFlag)
	require.ErrorIs(t, err, ErrValidation)

	valid := base
	valid.IsRecurring = true
	valid.Recurrence = recurrencePtr(RecurrenceMonthly)
	created, err := service.CreateFeeStructure(ctx, schoolID, valid)
	require.NoError(t, err)
	require.True(t, created.IsRecurring)
	require.NotNil(t, created.Recurrence)
}

func TestUpdateFeeStructureRevalidatesMergedState(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	created, err := service.CreateFeeStructure(ctx, schoolID, CreateFeeStructureInput{
		AcademicYearID: uuid.New(),
		GradeID:        uuid.New(),
		FeeCategoryID:  uuid.New(),
		Name:           "Tuition",
		Amount:         decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	// Flipping the flag alone leaves the merged state without a cycle.
	recurring := true
	_, err = service.UpdateFeeStructure(ctx, schoolID, created.ID, UpdateFeeStructureInput{
		IsRecurring: &recurring,
	})
	require.ErrorIs(t, err, ErrValidation)

	// Flag and cycle together pass.
	updated, err := service.UpdateFeeStructure(ctx, schoolID, created.ID, UpdateFeeStructureInput{
		IsRecurring: &recurring,
		Recurrence:  recurrencePtr(RecurrenceTerm),
	})
	require.NoError(t, err)
	require.True(t, updated.IsRecurring)

	// Clearing the cycle while the flag stays set is rejected on the merged state.
	_, err = service.UpdateFeeStructure(ctx, schoolID, created.ID, UpdateFeeStructureInput{
		ClearRecurrence: true,
	})
	require.ErrorIs(t, err, ErrValidation)

	notRecurring := false
	cleared, err := service.UpdateFeeStructure(ctx, schoolID, created.ID, UpdateFeeStructureInput{
		IsRecurring:     &notRecurring,
		ClearRecurrence: true,
	})
	require.NoError(t, err)
	require.False(t, cleared.IsRecurring)
	require.Nil(t, cleared.Recurrence)
}

func TestCreateFeeDiscountPercentageBounds(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	approver := uuid.New()
	ctx := context.Background()

	base := CreateFeeDiscountInput{
		StudentID:      uuid.New(),
		FeeStructureID: uuid.New(),
		DiscountType:   DiscountPercentage,
	}

	over := base
	over.Amount = decimal.NewFromInt(150)
	_, err := service.CreateFeeDiscount(ctx, schoolID, approver, over)
	require.ErrorIs(t, err, ErrValidation)

	zero := base
	zero.Amount = decimal.Zero
	_, err = service.CreateFeeDiscount(ctx, schoolID, approver, zero)
	require.ErrorIs(t, err, ErrValidation)

	full := base
	full.Amount = decimal.NewFromInt(100)
	created, err := service.CreateFeeDiscount(ctx, schoolID, approver, full)
	require.NoError(t, err)
	require.Equal(t, approver, created.ApprovedBy)
}

func TestUpdateFeeDiscountRevalidatesMergedState(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	created, err := service.CreateFeeDiscount(ctx, schoolID, uuid.New(), CreateFeeDiscountInput{
		StudentID:      uuid.New(),
		FeeStructureID: uuid.New(),
		DiscountType:   DiscountFixed,
		Amount:         decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	// Flipping a fixed 150 to percentage exceeds the percentage ceiling.
	pct := DiscountPercentage
	_, err = service.UpdateFeeDiscount(ctx, schoolID, created.ID, UpdateFeeDiscountInput{
		DiscountType: &pct,
	})
	require.ErrorIs(t, err, ErrValidation)

	lower := decimal.NewFromInt(25)
	updated, err := service.UpdateFeeDiscount(ctx, schoolID, created.ID, UpdateFeeDiscountInput{
		DiscountType: &pct,
		Amount:       &lower,
	})
	require.NoError(t, err)
	require.Equal(t, DiscountPercentage, updated.DiscountType)
}

func TestIssueInvoicesAppliesDiscounts(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	structure, err := service.CreateFeeStructure(ctx, schoolID, CreateFeeStructureInput{
		AcademicYearID: uuid.New(),
		GradeID:        uuid.New(),
		FeeCategoryID:  uuid.New(),
		Name:           "Tuition",
		Amount:         decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	discounted := uuid.New()
	plain := uuid.New()

	_, err = service.CreateFeeDiscount(ctx, schoolID, uuid.New(), CreateFeeDiscountInput{
		StudentID:      discounted,
		FeeStructureID: structure.ID,
		DiscountType:   DiscountPercentage,
		Amount:         decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = service.CreateFeeDiscount(ctx, schoolID, uuid.New(), CreateFeeDiscountInput{
		StudentID:      discounted,
		FeeStructureID: structure.ID,
		DiscountType:   DiscountFixed,
		Amount:         decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	issued, err := service.IssueInvoices(ctx, schoolID, IssueInvoicesInput{
		FeeStructureID: structure.ID,
		StudentIDs:     []uuid.UUID{discounted, plain},
	})
	require.NoError(t, err)
	require.Len(t, issued, 2)

	byStudent := map[uuid.UUID]FeeInvoice{}
	for _, inv := range issued {
		byStudent[inv.StudentID] = inv
		require.Equal(t, InvoiceIssued, inv.Status)
	}
	require.True(t, byStudent[discounted].NetAmount.Equal(decimal.NewFromInt(850)),
		"expected 850, got %s", byStudent[discounted].NetAmount)
	require.True(t, byStudent[plain].NetAmount.Equal(decimal.NewFromInt(1000)))

	// Re-issuing skips students that already hold an invoice.
	again, err := service.IssueInvoices(ctx, schoolID, IssueInvoicesInput{
		FeeStructureID: structure.ID,
		StudentIDs:     []uuid.UUID{discounted, plain},
	})
	require.NoError(t, err)
	require.Empty(t, again)
}

func TestRecordPaymentLifecycle(t *testing.T) {
	repo := newMemoryFeesRepo()
	metrics := &recordingMetrics{}
	service := NewService(repo, nil, metrics)
	schoolID := uuid.New()
	receivedBy := uuid.New()
	ctx := context.Background()

	inv := seedInvoice(repo, schoolID, decimal.NewFromInt(1000), InvoiceIssued)

	partial, err := service.RecordPayment(ctx, schoolID, receivedBy, RecordPaymentInput{
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(400),
		Method:     MethodCash,
	})
	require.NoError(t, err)
	require.Equal(t, InvoicePartiallyPaid, partial.InvoiceStatus)

	final, err := service.RecordPayment(ctx, schoolID, receivedBy, RecordPaymentInput{
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(600),
		Method:     MethodBankTransfer,
	})
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, final.InvoiceStatus)
	require.Equal(t, 2, metrics.payments)

	// A settled invoice accepts no further payments.
	_, err = service.RecordPayment(ctx, schoolID, receivedBy, RecordPaymentInput{
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(1),
		Method:     MethodCash,
	})
	require.ErrorIs(t, err, ErrInvoiceNotPayable)
}

func TestRecordPaymentOverpaymentCarriesBalance(t *testing.T) {
	repo := newMemoryFeesRepo()
	metrics := &recordingMetrics{}
	service := NewService(repo, nil, metrics)
	schoolID := uuid.New()
	ctx := context.Background()

	inv := seedInvoice(repo, schoolID, decimal.NewFromInt(1000), InvoiceIssued)

	_, err := service.RecordPayment(ctx, schoolID, uuid.New(), RecordPaymentInput{
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(600),
		Method:     MethodCash,
	})
	require.NoError(t, err)

	_, err = service.RecordPayment(ctx, schoolID, uuid.New(), RecordPaymentInput{
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(500),
		Method:     MethodCash,
	})
	require.ErrorIs(t, err, ErrOverpayment)
	require.Contains(t, err.Error(), "400.00")
	require.Equal(t, 1, metrics.overpayments)

	// The rejected payment left no trace.
	detail, err := service.GetFeeInvoice(ctx, schoolID, inv.ID)
	require.NoError(t, err)
	require.Len(t, detail.Payments, 1)
	require.True(t, detail.PaidAmount.Equal(decimal.NewFromInt(600)))
}

func TestRecordPaymentToleranceBoundary(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	// Exactly net times 1.001 is accepted.
	atLimit := seedInvoice(repo, schoolID, decimal.NewFromInt(1000), InvoiceIssued)
	paid, err := service.RecordPayment(ctx, schoolID, uuid.New(), RecordPaymentInput{
		InvoiceID:  atLimit.ID,
		AmountPaid: decimal.RequireFromString("1001.00"),
		Method:     MethodOnline,
	})
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, paid.InvoiceStatus)

	// One cent past the tolerance is not.
	pastLimit := seedInvoice(repo, schoolID, decimal.NewFromInt(1000), InvoiceIssued)
	_, err = service.RecordPayment(ctx, schoolID, uuid.New(), RecordPaymentInput{
		InvoiceID:  pastLimit.ID,
		AmountPaid: decimal.RequireFromString("1001.01"),
		Method:     MethodOnline,
	})
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestRecordPaymentOnOverdueInvoice(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	inv := seedInvoice(repo, schoolID, decimal.NewFromInt(500), InvoiceOverdue)

	detail, err := service.RecordPayment(ctx, schoolID, uuid.New(), RecordPaymentInput{
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(500),
		Method:     MethodCheque,
	})
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, detail.InvoiceStatus)
}

func TestConcurrentPaymentsNeverExceedTolerance(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	net := decimal.NewFromInt(1000)
	inv := seedInvoice(repo, schoolID, net, InvoiceIssued)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = service.RecordPayment(ctx, schoolID, uuid.New(), RecordPaymentInput{
				InvoiceID:  inv.ID,
				AmountPaid: decimal.NewFromInt(150),
				Method:     MethodCard,
			})
		}()
	}
	wg.Wait()

	detail, err := service.GetFeeInvoice(ctx, schoolID, inv.ID)
	require.NoError(t, err)
	require.False(t, ExceedsNetWithTolerance(detail.PaidAmount, net),
		"paid total %s exceeds tolerated maximum", detail.PaidAmount)
}

func TestReconcileInvoiceStatus(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	inv := seedInvoice(repo, schoolID, decimal.NewFromInt(300), InvoiceIssued)

	// Invoices without payments are left untouched.
	status, err := service.ReconcileInvoiceStatus(ctx, schoolID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceIssued, status)

	// Simulate a payment that committed without its status write.
	repo.payments[uuid.New()] = FeePayment{
		ID:         uuid.New(),
		SchoolID:   schoolID,
		InvoiceID:  inv.ID,
		AmountPaid: decimal.NewFromInt(300),
		Method:     MethodCash,
	}

	status, err = service.ReconcileInvoiceStatus(ctx, schoolID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, status)

	// Running it again changes nothing.
	status, err = service.ReconcileInvoiceStatus(ctx, schoolID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, status)
}

func TestMarkOverdueSkipsPaidInvoices(t *testing.T) {
	repo := newMemoryFeesRepo()
	service := NewService(repo, nil, nil)
	schoolID := uuid.New()
	ctx := context.Background()

	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	due := seedInvoice(repo, schoolID, decimal.NewFromInt(100), InvoiceIssued)
	due.DueDate = &yesterday
	repo.invoices[due.ID] = due

	settled := seedInvoice(repo, schoolID, decimal.NewFromInt(100), InvoicePaid)
	settled.DueDate = &yesterday
	repo.invoices[settled.ID] = settled

	future := seedInvoice(repo, schoolID, decimal.NewFromInt(100), InvoiceIssued)
	future.DueDate = &tomorrow
	repo.invoices[future.ID] = future

	marked, err := service.MarkOverdue(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, marked)

	refreshed, err := service.GetFeeInvoice(ctx, schoolID, due.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceOverdue, refreshed.Status)

	stillPaid, err := service.GetFeeInvoice(ctx, schoolID, settled.ID)
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, stillPaid.Status)
}
