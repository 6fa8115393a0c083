package fees

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
)

// Handler manages the fee ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	idem     *shared.IdempotencyStore
	validate *validator.Validate
}

// NewHandler builds a Handler instance. The idempotency store is optional;
// when present, POST /fee-payments honours the Idempotency-Key header.
func NewHandler(logger *slog.Logger, service *Service, idem *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idem: idem, validate: validator.New()}
}

// MountRoutes registers the fee ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/fee-structures", func(r chi.Router) {
		r.Get("/", h.listStructures)
		r.Post("/", h.createStructure)
		r.Get("/{id}", h.getStructure)
		r.Patch("/{id}", h.updateStructure)
		r.Delete("/{id}", h.deleteStructure)
	})
	r.Route("/fee-discounts", func(r chi.Router) {
		r.Get("/", h.listDiscounts)
		r.Post("/", h.createDiscount)
		r.Get("/{id}", h.getDiscount)
		r.Patch("/{id}", h.updateDiscount)
		r.Delete("/{id}", h.deleteDiscount)
	})
	r.Route("/fee-invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/issue", h.issueInvoices)
		r.Get("/{id}", h.getInvoice)
	})
	r.Route("/fee-payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.Post("/", h.recordPayment)
		r.Get("/{id}", h.getPayment)
	})
}

// respondErr maps fee ledger errors onto RFC7807 problem responses.
func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrStructureNotFound),
		errors.Is(err, ErrDiscountNotFound),
		errors.Is(err, ErrInvoiceNotFound),
		errors.Is(err, ErrPaymentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvoiceNotPayable):
		httpx.Problem(w, http.StatusBadRequest, "Invoice Not Payable", err.Error())
	case errors.Is(err, ErrOverpayment):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Overpayment", err.Error())
	case errors.Is(err, ErrDuplicateInvoice):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error("fees request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) validationProblem(w http.ResponseWriter, err error) {
	httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
}

type createStructureRequest struct {
	AcademicYearID string           `json:"academic_year_id" validate:"required,uuid4"`
	GradeID        string           `json:"grade_id" validate:"required,uuid4"`
	FeeCategoryID  string           `json:"fee_category_id" validate:"required,uuid4"`
	Name           string           `json:"name" validate:"required"`
	Amount         decimal.Decimal  `json:"amount" validate:"required"`
	DueDate        *string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	IsRecurring    bool             `json:"is_recurring"`
	Recurrence     *string          `json:"recurrence" validate:"omitempty,oneof=monthly quarterly term annual"`
}

type updateStructureRequest struct {
	AcademicYearID  *string          `json:"academic_year_id" validate:"omitempty,uuid4"`
	GradeID         *string          `json:"grade_id" validate:"omitempty,uuid4"`
	FeeCategoryID   *string          `json:"fee_category_id" validate:"omitempty,uuid4"`
	Name            *string          `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	DueDate         *string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	IsRecurring     *bool            `json:"is_recurring"`
	Recurrence      *string          `json:"recurrence" validate:"omitempty,oneof=monthly quarterly term annual"`
	ClearRecurrence bool             `json:"clear_recurrence"`
}

type structureResponse struct {
	ID             uuid.UUID  `json:"id"`
	AcademicYearID uuid.UUID  `json:"academic_year_id"`
	AcademicYear   string     `json:"academic_year,omitempty"`
	GradeID        uuid.UUID  `json:"grade_id"`
	Grade          string     `json:"grade,omitempty"`
	FeeCategoryID  uuid.UUID  `json:"fee_category_id"`
	FeeCategory    string     `json:"fee_category,omitempty"`
	Name           string     `json:"name"`
	Amount         string     `json:"amount"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	IsRecurring    bool       `json:"is_recurring"`
	Recurrence     *string    `json:"recurrence,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toStructureResponse(d FeeStructureDetail) structureResponse {
	return structureResponse{
		ID:             d.ID,
		AcademicYearID: d.AcademicYearID,
		AcademicYear:   d.AcademicYearName,
		GradeID:        d.GradeID,
		Grade:          d.GradeName,
		FeeCategoryID:  d.FeeCategoryID,
		FeeCategory:    d.FeeCategoryName,
		Name:           d.Name,
		Amount:         d.Amount.StringFixed(2),
		DueDate:        d.DueDate,
		IsRecurring:    d.IsRecurring,
		Recurrence:     recurrenceArg(d.Recurrence),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type listEnvelope struct {
	Items      any               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) createStructure(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())

	var req createStructureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationProblem(w, err)
		return
	}

	input := CreateFeeStructureInput{
		AcademicYearID: uuid.MustParse(req.AcademicYearID),
		GradeID:        uuid.MustParse(req.GradeID),
		FeeCategoryID:  uuid.MustParse(req.FeeCategoryID),
		Name:           req.Name,
		Amount:         req.Amount,
		IsRecurring:    req.IsRecurring,
	}
	if req.DueDate != nil {
		due, _ := time.Parse("2006-01-02", *req.DueDate)
		input.DueDate = &due
	}
	if req.Recurrence != nil {
		rec := Recurrence(*req.Recurrence)
		input.Recurrence = &rec
	}

	created, err := h.service.CreateFeeStructure(r.Context(), schoolID, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toStructureResponse(created))
}

func (h *Handler) getStructure(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}
	detail, err := h.service.GetFeeStructure(r.Context(), schoolID, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStructureResponse(detail))
}

func (h *Handler) updateStructure(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}

	var req updateStructureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationProblem(w, err)
		return
	}

	var input UpdateFeeStructureInput
	if req.AcademicYearID != nil {
		v := uuid.MustParse(*req.AcademicYearID)
		input.AcademicYearID = &v
	}
	if req.GradeID != nil {
		v := uuid.MustParse(*req.GradeID)
		input.GradeID = &v
	}
	if req.FeeCategoryID != nil {
		v := uuid.MustParse(*req.FeeCategoryID)
		input.FeeCategoryID = &v
	}
	input.Name = req.Name
	input.Amount = req.Amount
	if req.DueDate != nil {
		due, _ := time.Parse("2006-01-02", *req.DueDate)
		input.DueDate = &due
	}
	input.IsRecurring = req.IsRecurring
	if req.Recurrence != nil {
		rec := Recurrence(*req.Recurrence)
		input.Recurrence = &rec
	}
	input.ClearRecurrence = req.ClearRecurrence

	updated, err := h.service.UpdateFeeStructure(r.Context(), schoolID, id, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStructureResponse(updated))
}

func (h *Handler) deleteStructure(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.service.DeleteFeeStructure(r.Context(), schoolID, id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listStructures(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	q := r.URL.Query()

	req := ListFeeStructuresRequest{
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
		Page:    shared.QueryInt(q, "page", 1),
		PerPage: shared.QueryInt(q, "per_page", 20),
	}
	if v, err := uuid.Parse(q.Get("academic_year_id")); err == nil {
		req.AcademicYearID = &v
	}
	if v, err := uuid.Parse(q.Get("grade_id")); err == nil {
		req.GradeID = &v
	}
	if v, err := uuid.Parse(q.Get("fee_category_id")); err == nil {
		req.FeeCategoryID = &v
	}
	if s := q.Get("is_recurring"); s != "" {
		recurring := s == "true"
		req.IsRecurring = &recurring
	}

	items, pagination, err := h.service.ListFeeStructures(r.Context(), schoolID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]structureResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toStructureResponse(d))
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: out, Pagination: pagination})
}

type createDiscountRequest struct {
	StudentID      string          `json:"student_id" validate:"required,uuid4"`
	FeeStructureID string          `json:"fee_structure_id" validate:"required,uuid4"`
	DiscountType   string          `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Reason         *string         `json:"reason"`
}

type updateDiscountRequest struct {
	DiscountType *string          `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	Amount       *decimal.Decimal `json:"amount"`
	Reason       *string          `json:"reason"`
}

type discountResponse struct {
	ID             uuid.UUID `json:"id"`
	StudentID      uuid.UUID `json:"student_id"`
	FeeStructureID uuid.UUID `json:"fee_structure_id"`
	DiscountType   string    `json:"discount_type"`
	Amount         string    `json:"amount"`
	Reason         *string   `json:"reason,omitempty"`
	ApprovedBy     uuid.UUID `json:"approved_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toDiscountResponse(d FeeDiscount) discountResponse {
	return discountResponse{
		ID:             d.ID,
		StudentID:      d.StudentID,
		FeeStructureID: d.FeeStructureID,
		DiscountType:   string(d.DiscountType),
		Amount:         d.Amount.StringFixed(2),
		Reason:         d.Reason,
		ApprovedBy:     d.ApprovedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	approvedBy := shared.ActorFromContext(r.Context())

	var req createDiscountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationProblem(w, err)
		return
	}

	created, err := h.service.CreateFeeDiscount(r.Context(), schoolID, approvedBy, CreateFeeDiscountInput{
		StudentID:      uuid.MustParse(req.StudentID),
		FeeStructureID: uuid.MustParse(req.FeeStructureID),
		DiscountType:   DiscountType(req.DiscountType),
		Amount:         req.Amount,
		Reason:         req.Reason,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDiscountResponse(created))
}

func (h *Handler) getDiscount(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}
	discount, err := h.service.GetFeeDiscount(r.Context(), schoolID, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDiscountResponse(discount))
}

func (h *Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}

	var req updateDiscountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationProblem(w, err)
		return
	}

	var input UpdateFeeDiscountInput
	if req.DiscountType != nil {
		dt := DiscountType(*req.DiscountType)
		input.DiscountType = &dt
	}
	input.Amount = req.Amount
	input.Reason = req.Reason

	updated, err := h.service.UpdateFeeDiscount(r.Context(), schoolID, id, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDiscountResponse(updated))
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.service.DeleteFeeDiscount(r.Context(), schoolID, id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	q := r.URL.Query()

	req := ListFeeDiscountsRequest{
		Page:    shared.QueryInt(q, "page", 1),
		PerPage: shared.QueryInt(q, "per_page", 20),
	}
	if v, err := uuid.Parse(q.Get("student_id")); err == nil {
		req.StudentID = &v
	}
	if v, err := uuid.Parse(q.Get("fee_structure_id")); err == nil {
		req.FeeStructureID = &v
	}

	items, pagination, err := h.service.ListFeeDiscounts(r.Context(), schoolID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]discountResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toDiscountResponse(d))
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: out, Pagination: pagination})
}

type issueInvoicesRequest struct {
	FeeStructureID string   `json:"fee_structure_id" validate:"required,uuid4"`
	StudentIDs     []string `json:"student_ids" validate:"required,min=1,dive,uuid4"`
}

type invoiceResponse struct {
	ID             uuid.UUID  `json:"id"`
	StudentID      uuid.UUID  `json:"student_id"`
	FeeStructureID uuid.UUID  `json:"fee_structure_id"`
	NetAmount      string     `json:"net_amount"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toInvoiceResponse(inv FeeInvoice) invoiceResponse {
	return invoiceResponse{
		ID:             inv.ID,
		StudentID:      inv.StudentID,
		FeeStructureID: inv.FeeStructureID,
		NetAmount:      inv.NetAmount.StringFixed(2),
		Status:         string(inv.Status),
		DueDate:        inv.DueDate,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

type invoiceDetailResponse struct {
	invoiceResponse
	PaidAmount string            `json:"paid_amount"`
	Balance    string            `json:"balance"`
	Payments   []paymentResponse `json:"payments"`
}

func (h *Handler) issueInvoices(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())

	var req issueInvoicesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationProblem(w, err)
		return
	}

	input := IssueInvoicesInput{FeeStructureID: uuid.MustParse(req.FeeStructureID)}
	for _, s := range req.StudentIDs {
		input.StudentIDs = append(input.StudentIDs, uuid.MustParse(s))
	}

	issued, err := h.service.IssueInvoices(r.Context(), schoolID, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(issued))
	for _, inv := range issued {
		out = append(out, toInvoiceResponse(inv))
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"issued": out})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}
	detail, err := h.service.GetFeeInvoice(r.Context(), schoolID, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	resp := invoiceDetailResponse{
		invoiceResponse: toInvoiceResponse(detail.FeeInvoice),
		PaidAmount:      detail.PaidAmount.StringFixed(2),
		Balance:         detail.Balance.StringFixed(2),
		Payments:        make([]paymentResponse, 0, len(detail.Payments)),
	}
	for _, p := range detail.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	q := r.URL.Query()

	req := ListFeeInvoicesRequest{
		Status:  InvoiceStatus(q.Get("status")),
		Page:    shared.QueryInt(q, "page", 1),
		PerPage: shared.QueryInt(q, "per_page", 20),
	}
	if v, err := uuid.Parse(q.Get("student_id")); err == nil {
		req.StudentID = &v
	}
	if v, err := uuid.Parse(q.Get("fee_structure_id")); err == nil {
		req.FeeStructureID = &v
	}

	items, pagination, err := h.service.ListFeeInvoices(r.Context(), schoolID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(items))
	for _, inv := range items {
		out = append(out, toInvoiceResponse(inv))
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: out, Pagination: pagination})
}

type recordPaymentRequest struct {
	InvoiceID       string          `json:"invoice_id" validate:"required,uuid4"`
	AmountPaid      decimal.Decimal `json:"amount_paid" validate:"required"`
	PaymentDate     *string         `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Method          string          `json:"payment_method" validate:"required,oneof=cash bank_transfer card cheque online"`
	ReferenceNumber *string         `json:"reference_number"`
	Notes           *string         `json:"notes"`
}

type paymentResponse struct {
	ID              uuid.UUID `json:"id"`
	InvoiceID       uuid.UUID `json:"invoice_id"`
	AmountPaid      string    `json:"amount_paid"`
	PaymentDate     time.Time `json:"payment_date"`
	Method          string    `json:"payment_method"`
	ReferenceNumber *string   `json:"reference_number,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	ReceivedBy      uuid.UUID `json:"received_by"`
	CreatedAt       time.Time `json:"created_at"`
}

func toPaymentResponse(p FeePayment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		AmountPaid:      p.AmountPaid.StringFixed(2),
		PaymentDate:     p.PaymentDate,
		Method:          string(p.Method),
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		ReceivedBy:      p.ReceivedBy,
		CreatedAt:       p.CreatedAt,
	}
}

type paymentDetailResponse struct {
	paymentResponse
	StudentID     uuid.UUID `json:"student_id"`
	InvoiceStatus string    `json:"invoice_status"`
	NetAmount     string    `json:"net_amount"`
	AmountDisplay string    `json:"amount_display"`
}

func toPaymentDetailResponse(d FeePaymentDetail) paymentDetailResponse {
	return paymentDetailResponse{
		paymentResponse: toPaymentResponse(d.FeePayment),
		StudentID:       d.StudentID,
		InvoiceStatus:   string(d.InvoiceStatus),
		NetAmount:       d.NetAmount.StringFixed(2),
		AmountDisplay:   FormatAmount(d.AmountPaid),
	}
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	receivedBy := shared.ActorFromContext(r.Context())

	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.validationProblem(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationProblem(w, err)
		return
	}

	input := RecordPaymentInput{
		InvoiceID:       uuid.MustParse(req.InvoiceID),
		AmountPaid:      req.AmountPaid,
		Method:          PaymentMethod(req.Method),
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	if req.PaymentDate != nil {
		date, _ := time.Parse("2006-01-02", *req.PaymentDate)
		input.PaymentDate = date
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if h.idem != nil && idemKey != "" {
		if err := h.idem.CheckAndInsert(r.Context(), schoolID, idemKey, "fee_payments"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
				return
			}
			h.respondErr(w, err)
			return
		}
	}

	detail, err := h.service.RecordPayment(r.Context(), schoolID, receivedBy, input)
	if err != nil {
		if h.idem != nil && idemKey != "" {
			_ = h.idem.Delete(r.Context(), schoolID, idemKey)
		}
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPaymentDetailResponse(detail))
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.validationProblem(w, err)
		return
	}
	detail, err := h.service.GetFeePayment(r.Context(), schoolID, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPaymentDetailResponse(detail))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	schoolID := shared.SchoolFromContext(r.Context())
	q := r.URL.Query()

	req := ListFeePaymentsRequest{
		Method:  PaymentMethod(q.Get("payment_method")),
		Page:    shared.QueryInt(q, "page", 1),
		PerPage: shared.QueryInt(q, "per_page", 20),
	}
	if v, err := uuid.Parse(q.Get("invoice_id")); err == nil {
		req.InvoiceID = &v
	}

	items, pagination, err := h.service.ListFeePayments(r.Context(), schoolID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: out, Pagination: pagination})
}
