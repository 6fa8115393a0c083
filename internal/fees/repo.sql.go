package fees

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrDuplicateInvoice indicates an invoice already exists for the
// (student, structure) pair.
var ErrDuplicateInvoice = errors.New("invoice already exists for student and structure")

// PgRepository provides PostgreSQL backed persistence for the fee ledger.
type PgRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PgRepository)(nil)

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// WithTx wraps fn in a transaction. Row locks taken inside fn are held until
// commit, which serializes concurrent payment recordings per invoice.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("fees: begin tx: %w", err)
	}
	if err := fn(ctx, &pgTxRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CreateFeeStructure inserts a new structure row.
func (r *PgRepository) CreateFeeStructure(ctx context.Context, schoolID uuid.UUID, input CreateFeeStructureInput) (FeeStructure, error) {
	now := time.Now()
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
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO fee_structures
(id, school_id, academic_year_id, grade_id, fee_category_id, name, amount, due_date, is_recurring, recurrence, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		structure.ID, structure.SchoolID, structure.AcademicYearID, structure.GradeID, structure.FeeCategoryID,
		structure.Name, structure.Amount.String(), structure.DueDate, structure.IsRecurring, recurrenceArg(structure.Recurrence),
		structure.CreatedAt, structure.UpdatedAt)
	if err != nil {
		return FeeStructure{}, err
	}
	return structure, nil
}

func recurrenceArg(r *Recurrence) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

const structureColumns = `id, school_id, academic_year_id, grade_id, fee_category_id, name, amount::text, due_date, is_recurring, recurrence, created_at, updated_at`

func scanStructure(row pgx.Row) (FeeStructure, error) {
	var s FeeStructure
	var amount string
	var recurrence *string
	if err := row.Scan(&s.ID, &s.SchoolID, &s.AcademicYearID, &s.GradeID, &s.FeeCategoryID, &s.Name, &amount, &s.DueDate, &s.IsRecurring, &recurrence, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return FeeStructure{}, err
	}
	s.Amount = parseAmount(amount)
	if recurrence != nil {
		rec := Recurrence(*recurrence)
		s.Recurrence = &rec
	}
	return s, nil
}

// GetFeeStructure loads one structure scoped by tenant.
func (r *PgRepository) GetFeeStructure(ctx context.Context, schoolID, id uuid.UUID) (FeeStructure, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+structureColumns+` FROM fee_structures WHERE id = $1 AND school_id = $2`, id, schoolID)
	s, err := scanStructure(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeStructure{}, ErrStructureNotFound
	}
	return s, err
}

// GetFeeStructureDetail loads one structure with reference names expanded.
func (r *PgRepository) GetFeeStructureDetail(ctx context.Context, schoolID, id uuid.UUID) (FeeStructureDetail, error) {
	var d FeeStructureDetail
	var amount string
	var recurrence *string
	err := r.pool.QueryRow(ctx, `SELECT fs.id, fs.school_id, fs.academic_year_id, fs.grade_id, fs.fee_category_id,
fs.name, fs.amount::text, fs.due_date, fs.is_recurring, fs.recurrence, fs.created_at, fs.updated_at,
ay.name, g.name, fc.name
FROM fee_structures fs
JOIN academic_years ay ON ay.id = fs.academic_year_id
JOIN grades g ON g.id = fs.grade_id
JOIN fee_categories fc ON fc.id = fs.fee_category_id
WHERE fs.id = $1 AND fs.school_id = $2`, id, schoolID).Scan(
		&d.ID, &d.SchoolID, &d.AcademicYearID, &d.GradeID, &d.FeeCategoryID,
		&d.Name, &amount, &d.DueDate, &d.IsRecurring, &recurrence, &d.CreatedAt, &d.UpdatedAt,
		&d.AcademicYearName, &d.GradeName, &d.FeeCategoryName)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeStructureDetail{}, ErrStructureNotFound
	}
	if err != nil {
		return FeeStructureDetail{}, err
	}
	d.Amount = parseAmount(amount)
	if recurrence != nil {
		rec := Recurrence(*recurrence)
		d.Recurrence = &rec
	}
	return d, nil
}

// UpdateFeeStructure persists the merged structure state.
func (r *PgRepository) UpdateFeeStructure(ctx context.Context, s FeeStructure) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fee_structures SET
academic_year_id=$1, grade_id=$2, fee_category_id=$3, name=$4, amount=$5, due_date=$6, is_recurring=$7, recurrence=$8, updated_at=$9
WHERE id = $10 AND school_id = $11`,
		s.AcademicYearID, s.GradeID, s.FeeCategoryID, s.Name, s.Amount.String(), s.DueDate, s.IsRecurring, recurrenceArg(s.Recurrence), s.UpdatedAt,
		s.ID, s.SchoolID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStructureNotFound
	}
	return nil
}

// DeleteFeeStructure removes a structure unconditionally.
func (r *PgRepository) DeleteFeeStructure(ctx context.Context, schoolID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fee_structures WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStructureNotFound
	}
	return nil
}

// ListFeeStructures returns a filtered page of structures with reference
// names expanded, plus the unpaged total.
func (r *PgRepository) ListFeeStructures(ctx context.Context, schoolID uuid.UUID, req ListFeeStructuresRequest) ([]FeeStructureDetail, int, error) {
	where := ` WHERE fs.school_id = $1`
	args := []any{schoolID}
	if req.AcademicYearID != nil {
		args = append(args, *req.AcademicYearID)
		where += ` AND fs.academic_year_id = $` + strconv.Itoa(len(args))
	}
	if req.GradeID != nil {
		args = append(args, *req.GradeID)
		where += ` AND fs.grade_id = $` + strconv.Itoa(len(args))
	}
	if req.FeeCategoryID != nil {
		args = append(args, *req.FeeCategoryID)
		where += ` AND fs.fee_category_id = $` + strconv.Itoa(len(args))
	}
	if req.IsRecurring != nil {
		args = append(args, *req.IsRecurring)
		where += ` AND fs.is_recurring = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fee_structures fs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT fs.id, fs.school_id, fs.academic_year_id, fs.grade_id, fs.fee_category_id,
fs.name, fs.amount::text, fs.due_date, fs.is_recurring, fs.recurrence, fs.created_at, fs.updated_at,
ay.name, g.name, fc.name
FROM fee_structures fs
JOIN academic_years ay ON ay.id = fs.academic_year_id
JOIN grades g ON g.id = fs.grade_id
JOIN fee_categories fc ON fc.id = fs.fee_category_id` + where + ` ORDER BY ` + structureSortOrder(req.SortBy, req.SortDir)

	page, perPage := normalizePage(req.Page, req.PerPage)
	args = append(args, perPage)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (page-1)*perPage)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FeeStructureDetail
	for rows.Next() {
		var d FeeStructureDetail
		var amount string
		var recurrence *string
		if err := rows.Scan(&d.ID, &d.SchoolID, &d.AcademicYearID, &d.GradeID, &d.FeeCategoryID,
			&d.Name, &amount, &d.DueDate, &d.IsRecurring, &recurrence, &d.CreatedAt, &d.UpdatedAt,
			&d.AcademicYearName, &d.GradeName, &d.FeeCategoryName); err != nil {
			return nil, 0, err
		}
		d.Amount = parseAmount(amount)
		if recurrence != nil {
			rec := Recurrence(*recurrence)
			d.Recurrence = &rec
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func structureSortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "fs.name " + dir
	case "amount":
		return "fs.amount " + dir
	default:
		return "fs.created_at " + dir
	}
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return page, perPage
}

// CreateFeeDiscount inserts a new discount row.
func (r *PgRepository) CreateFeeDiscount(ctx context.Context, d FeeDiscount) (FeeDiscount, error) {
	now := time.Now()
	d.ID = uuid.New()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `INSERT INTO fee_discounts
(id, school_id, student_id, fee_structure_id, discount_type, amount, reason, approved_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.SchoolID, d.StudentID, d.FeeStructureID, string(d.DiscountType), d.Amount.String(), d.Reason, d.ApprovedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return FeeDiscount{}, err
	}
	return d, nil
}

const discountColumns = `id, school_id, student_id, fee_structure_id, discount_type, amount::text, reason, approved_by, created_at, updated_at`

func scanDiscount(row pgx.Row) (FeeDiscount, error) {
	var d FeeDiscount
	var amount string
	var discountType string
	if err := row.Scan(&d.ID, &d.SchoolID, &d.StudentID, &d.FeeStructureID, &discountType, &amount, &d.Reason, &d.ApprovedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return FeeDiscount{}, err
	}
	d.DiscountType = DiscountType(discountType)
	d.Amount = parseAmount(amount)
	return d, nil
}

// GetFeeDiscount loads one discount scoped by tenant.
func (r *PgRepository) GetFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) (FeeDiscount, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+discountColumns+` FROM fee_discounts WHERE id = $1 AND school_id = $2`, id, schoolID)
	d, err := scanDiscount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeDiscount{}, ErrDiscountNotFound
	}
	return d, err
}

// UpdateFeeDiscount persists the merged discount state.
func (r *PgRepository) UpdateFeeDiscount(ctx context.Context, d FeeDiscount) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fee_discounts SET discount_type=$1, amount=$2, reason=$3, updated_at=$4
WHERE id = $5 AND school_id = $6`,
		string(d.DiscountType), d.Amount.String(), d.Reason, d.UpdatedAt, d.ID, d.SchoolID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// DeleteFeeDiscount removes a discount unconditionally.
func (r *PgRepository) DeleteFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fee_discounts WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// ListFeeDiscounts returns a filtered page of discounts plus the total.
func (r *PgRepository) ListFeeDiscounts(ctx context.Context, schoolID uuid.UUID, req ListFeeDiscountsRequest) ([]FeeDiscount, int, error) {
	where := ` WHERE school_id = $1`
	args := []any{schoolID}
	if req.StudentID != nil {
		args = append(args, *req.StudentID)
		where += ` AND student_id = $` + strconv.Itoa(len(args))
	}
	if req.FeeStructureID != nil {
		args = append(args, *req.FeeStructureID)
		where += ` AND fee_structure_id = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fee_discounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := normalizePage(req.Page, req.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	query := `SELECT ` + discountColumns + ` FROM fee_discounts` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FeeDiscount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// ListDiscountsForStructure returns every discount recorded against a structure.
func (r *PgRepository) ListDiscountsForStructure(ctx context.Context, schoolID, structureID uuid.UUID) ([]FeeDiscount, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+discountColumns+` FROM fee_discounts WHERE school_id = $1 AND fee_structure_id = $2 ORDER BY created_at`, schoolID, structureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeeDiscount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const invoiceColumns = `id, school_id, student_id, fee_structure_id, net_amount::text, status, due_date, created_at, updated_at`

func scanInvoice(row pgx.Row) (FeeInvoice, error) {
	var inv FeeInvoice
	var net, status string
	if err := row.Scan(&inv.ID, &inv.SchoolID, &inv.StudentID, &inv.FeeStructureID, &net, &status, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return FeeInvoice{}, err
	}
	inv.NetAmount = parseAmount(net)
	inv.Status = InvoiceStatus(status)
	return inv, nil
}

// GetFeeInvoice loads one invoice scoped by tenant.
func (r *PgRepository) GetFeeInvoice(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM fee_invoices WHERE id = $1 AND school_id = $2`, id, schoolID)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeInvoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

// GetFeeInvoiceDetail loads one invoice with its payments and running totals.
func (r *PgRepository) GetFeeInvoiceDetail(ctx context.Context, schoolID, id uuid.UUID) (FeeInvoiceDetail, error) {
	inv, err := r.GetFeeInvoice(ctx, schoolID, id)
	if err != nil {
		return FeeInvoiceDetail{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM fee_payments WHERE invoice_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return FeeInvoiceDetail{}, err
	}
	defer rows.Close()

	detail := FeeInvoiceDetail{FeeInvoice: inv, PaidAmount: decimal.Zero}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return FeeInvoiceDetail{}, err
		}
		detail.Payments = append(detail.Payments, p)
		detail.PaidAmount = detail.PaidAmount.Add(p.AmountPaid)
	}
	if err := rows.Err(); err != nil {
		return FeeInvoiceDetail{}, err
	}
	detail.Balance = RemainingBalance(inv.NetAmount, detail.PaidAmount)
	return detail, nil
}

// ListFeeInvoices returns a filtered page of invoices plus the total.
func (r *PgRepository) ListFeeInvoices(ctx context.Context, schoolID uuid.UUID, req ListFeeInvoicesRequest) ([]FeeInvoice, int, error) {
	where := ` WHERE school_id = $1`
	args := []any{schoolID}
	if req.StudentID != nil {
		args = append(args, *req.StudentID)
		where += ` AND student_id = $` + strconv.Itoa(len(args))
	}
	if req.FeeStructureID != nil {
		args = append(args, *req.FeeStructureID)
		where += ` AND fee_structure_id = $` + strconv.Itoa(len(args))
	}
	if req.Status != "" {
		args = append(args, string(req.Status))
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fee_invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := normalizePage(req.Page, req.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	query := `SELECT ` + invoiceColumns + ` FROM fee_invoices` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FeeInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// InvoiceExists reports whether an invoice already covers the student and
// structure pair.
func (r *PgRepository) InvoiceExists(ctx context.Context, schoolID, studentID, structureID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fee_invoices WHERE school_id = $1 AND student_id = $2 AND fee_structure_id = $3)`,
		schoolID, studentID, structureID).Scan(&exists)
	return exists, err
}

// CreateFeeInvoice inserts a materialized invoice row.
func (r *PgRepository) CreateFeeInvoice(ctx context.Context, inv FeeInvoice) (FeeInvoice, error) {
	now := time.Now()
	inv.ID = uuid.New()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `INSERT INTO fee_invoices
(id, school_id, student_id, fee_structure_id, net_amount, status, due_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.SchoolID, inv.StudentID, inv.FeeStructureID, inv.NetAmount.String(), string(inv.Status), inv.DueDate, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return FeeInvoice{}, ErrDuplicateInvoice
		}
		return FeeInvoice{}, err
	}
	return inv, nil
}

// MarkOverdue bulk-transitions past-due payable invoices to overdue.
func (r *PgRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE fee_invoices SET status = $1, updated_at = $2
WHERE status IN ($3, $4) AND due_date IS NOT NULL AND due_date < $5`,
		string(InvoiceOverdue), time.Now(), string(InvoiceIssued), string(InvoicePartiallyPaid), asOf)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// UpdateInvoiceStatus writes the invoice status outside a recording
// transaction (repair path).
func (r *PgRepository) UpdateInvoiceStatus(ctx context.Context, schoolID, id uuid.UUID, status InvoiceStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fee_invoices SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`,
		string(status), time.Now(), id, schoolID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

const paymentColumns = `id, school_id, invoice_id, amount_paid::text, payment_date, method, reference_number, notes, received_by, created_at`

func scanPayment(row pgx.Row) (FeePayment, error) {
	var p FeePayment
	var amount, method string
	if err := row.Scan(&p.ID, &p.SchoolID, &p.InvoiceID, &amount, &p.PaymentDate, &method, &p.ReferenceNumber, &p.Notes, &p.ReceivedBy, &p.CreatedAt); err != nil {
		return FeePayment{}, err
	}
	p.AmountPaid = parseAmount(amount)
	p.Method = PaymentMethod(method)
	return p, nil
}

// GetFeePayment loads one payment with its invoice expanded.
func (r *PgRepository) GetFeePayment(ctx context.Context, schoolID, id uuid.UUID) (FeePaymentDetail, error) {
	var d FeePaymentDetail
	var amount, method, net, status string
	err := r.pool.QueryRow(ctx, `SELECT p.id, p.school_id, p.invoice_id, p.amount_paid::text, p.payment_date, p.method,
p.reference_number, p.notes, p.received_by, p.created_at, i.student_id, i.status, i.net_amount::text
FROM fee_payments p
JOIN fee_invoices i ON i.id = p.invoice_id
WHERE p.id = $1 AND p.school_id = $2`, id, schoolID).Scan(
		&d.ID, &d.SchoolID, &d.InvoiceID, &amount, &d.PaymentDate, &method,
		&d.ReferenceNumber, &d.Notes, &d.ReceivedBy, &d.CreatedAt, &d.StudentID, &status, &net)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeePaymentDetail{}, ErrPaymentNotFound
	}
	if err != nil {
		return FeePaymentDetail{}, err
	}
	d.AmountPaid = parseAmount(amount)
	d.Method = PaymentMethod(method)
	d.InvoiceStatus = InvoiceStatus(status)
	d.NetAmount = parseAmount(net)
	return d, nil
}

// ListFeePayments returns a filtered page of payments plus the total.
func (r *PgRepository) ListFeePayments(ctx context.Context, schoolID uuid.UUID, req ListFeePaymentsRequest) ([]FeePayment, int, error) {
	where := ` WHERE school_id = $1`
	args := []any{schoolID}
	if req.InvoiceID != nil {
		args = append(args, *req.InvoiceID)
		where += ` AND invoice_id = $` + strconv.Itoa(len(args))
	}
	if req.Method != "" {
		args = append(args, string(req.Method))
		where += ` AND method = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fee_payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := normalizePage(req.Page, req.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	query := `SELECT ` + paymentColumns + ` FROM fee_payments` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FeePayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

type pgTxRepo struct {
	tx pgx.Tx
}

var _ TxRepository = (*pgTxRepo)(nil)

// GetInvoiceForUpdate loads the invoice under FOR UPDATE so concurrent
// recordings against the same invoice block until this transaction commits.
func (t *pgTxRepo) GetInvoiceForUpdate(ctx context.Context, schoolID, invoiceID uuid.UUID) (FeeInvoice, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM fee_invoices WHERE id = $1 AND school_id = $2 FOR UPDATE`, invoiceID, schoolID)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeInvoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

// SumPaid sums every payment recorded against the invoice, read fresh under
// the invoice lock.
func (t *pgTxRepo) SumPaid(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum string
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount_paid), 0)::text FROM fee_payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return parseAmount(sum), nil
}

// InsertPayment appends a payment row.
func (t *pgTxRepo) InsertPayment(ctx context.Context, p FeePayment) (FeePayment, error) {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	_, err := t.tx.Exec(ctx, `INSERT INTO fee_payments
(id, school_id, invoice_id, amount_paid, payment_date, method, reference_number, notes, received_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.SchoolID, p.InvoiceID, p.AmountPaid.String(), p.PaymentDate, string(p.Method), p.ReferenceNumber, p.Notes, p.ReceivedBy, p.CreatedAt)
	if err != nil {
		return FeePayment{}, err
	}
	return p, nil
}

// UpdateInvoiceStatus writes the recomputed status inside the recording
// transaction.
func (t *pgTxRepo) UpdateInvoiceStatus(ctx context.Context, schoolID, invoiceID uuid.UUID, status InvoiceStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE fee_invoices SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`,
		string(status), time.Now(), invoiceID, schoolID)
	return err
}
