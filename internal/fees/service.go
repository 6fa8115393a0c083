package fees

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort abstracts the fee ledger counters.
type MetricsPort interface {
	PaymentRecorded(method string)
	OverpaymentRejected()
}

// Service handles fee ledger business logic.
type Service struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
}

// NewService builds a Service instance. Audit and metrics are optional.
func NewService(repo Repository, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics}
}

// CreateFeeStructure validates and persists a new fee structure, returning it
// with its academic year, grade and fee category expanded.
func (s *Service) CreateFeeStructure(ctx context.Context, schoolID uuid.UUID, input CreateFeeStructureInput) (FeeStructureDetail, error) {
	candidate := FeeStructure{
		SchoolID:       schoolID,
		AcademicYearID: input.AcademicYearID,
		GradeID:        input.GradeID,
		FeeCategoryID:  input.FeeCategoryID,
		Name:           input.Name,
		Amount:         input.Amount,
		DueDate:        input.DueDate,
		IsRecurring:    input.IsRecurring,
		Recurrence:     input.Recurrence,
	}
	if err := validateStructure(candidate); err != nil {
		return FeeStructureDetail{}, err
	}

	created, err := s.repo.CreateFeeStructure(ctx, schoolID, input)
	if err != nil {
		return FeeStructureDetail{}, err
	}
	s.recordAudit(ctx, schoolID, "fees:structure_created", "fee_structure", created.ID, map[string]any{
		"name":   created.Name,
		"amount": created.Amount.String(),
	})
	return s.repo.GetFeeStructureDetail(ctx, schoolID, created.ID)
}

// UpdateFeeStructure merges the partial input over the stored structure and
// re-validates the merged result before persisting.
func (s *Service) UpdateFeeStructure(ctx context.Context, schoolID, id uuid.UUID, input UpdateFeeStructureInput) (FeeStructureDetail, error) {
	existing, err := s.repo.GetFeeStructure(ctx, schoolID, id)
	if err != nil {
		return FeeStructureDetail{}, err
	}

	if input.AcademicYearID != nil {
		existing.AcademicYearID = *input.AcademicYearID
	}
	if input.GradeID != nil {
		existing.GradeID = *input.GradeID
	}
	if input.FeeCategoryID != nil {
		existing.FeeCategoryID = *input.FeeCategoryID
	}
	if input.Name != nil {
		existing.Name = *input.Name
	}
	if input.Amount != nil {
		existing.Amount = *input.Amount
	}
	if input.DueDate != nil {
		existing.DueDate = input.DueDate
	}
	if input.IsRecurring != nil {
		existing.IsRecurring = *input.IsRecurring
	}
	if input.Recurrence != nil {
		existing.Recurrence = input.Recurrence
	}
	if input.ClearRecurrence {
		existing.Recurrence = nil
	}

	if err := validateStructure(existing); err != nil {
		return FeeStructureDetail{}, err
	}
	existing.UpdatedAt = time.Now()
	if err := s.repo.UpdateFeeStructure(ctx, existing); err != nil {
		return FeeStructureDetail{}, err
	}
	s.recordAudit(ctx, schoolID, "fees:structure_updated", "fee_structure", id, nil)
	return s.repo.GetFeeStructureDetail(ctx, schoolID, id)
}

// GetFeeStructure returns one structure with reference data expanded.
func (s *Service) GetFeeStructure(ctx context.Context, schoolID, id uuid.UUID) (FeeStructureDetail, error) {
	return s.repo.GetFeeStructureDetail(ctx, schoolID, id)
}

// DeleteFeeStructure removes a structure unconditionally. Dangling invoice
// references are the storage layer's integrity concern.
func (s *Service) DeleteFeeStructure(ctx context.Context, schoolID, id uuid.UUID) error {
	if err := s.repo.DeleteFeeStructure(ctx, schoolID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, schoolID, "fees:structure_deleted", "fee_structure", id, nil)
	return nil
}

// ListFeeStructures returns a filtered, paginated structure listing.
func (s *Service) ListFeeStructures(ctx context.Context, schoolID uuid.UUID, req ListFeeStructuresRequest) ([]FeeStructureDetail, shared.Pagination, error) {
	items, total, err := s.repo.ListFeeStructures(ctx, schoolID, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// CreateFeeDiscount validates and persists a new discount with its approving
// user link.
func (s *Service) CreateFeeDiscount(ctx context.Context, schoolID, approvedBy uuid.UUID, input CreateFeeDiscountInput) (FeeDiscount, error) {
	candidate := FeeDiscount{
		SchoolID:       schoolID,
		StudentID:      input.StudentID,
		FeeStructureID: input.FeeStructureID,
		DiscountType:   input.DiscountType,
		Amount:         input.Amount,
		Reason:         input.Reason,
		ApprovedBy:     approvedBy,
	}
	if err := validateDiscount(candidate); err != nil {
		return FeeDiscount{}, err
	}
	if approvedBy == uuid.Nil {
		return FeeDiscount{}, validationErr("approving user is required")
	}

	created, err := s.repo.CreateFeeDiscount(ctx, candidate)
	if err != nil {
		return FeeDiscount{}, err
	}
	s.recordAudit(ctx, schoolID, "fees:discount_created", "fee_discount", created.ID, map[string]any{
		"student_id":    created.StudentID.String(),
		"discount_type": string(created.DiscountType),
		"amount":        created.Amount.String(),
	})
	return created, nil
}

// UpdateFeeDiscount merges the partial input and re-validates the merged
// state, so flipping the type to percentage with a stored amount above 100 is
// rejected.
func (s *Service) UpdateFeeDiscount(ctx context.Context, schoolID, id uuid.UUID, input UpdateFeeDiscountInput) (FeeDiscount, error) {
	existing, err := s.repo.GetFeeDiscount(ctx, schoolID, id)
	if err != nil {
		return FeeDiscount{}, err
	}

	if input.DiscountType != nil {
		existing.DiscountType = *input.DiscountType
	}
	if input.Amount != nil {
		existing.Amount = *input.Amount
	}
	if input.Reason != nil {
		existing.Reason = input.Reason
	}

	if err := validateDiscount(existing); err != nil {
		return FeeDiscount{}, err
	}
	existing.UpdatedAt = time.Now()
	if err := s.repo.UpdateFeeDiscount(ctx, existing); err != nil {
		return FeeDiscount{}, err
	}
	s.recordAudit(ctx, schoolID, "fees:discount_updated", "fee_discount", id, nil)
	return existing, nil
}

// GetFeeDiscount returns one discount.
func (s *Service) GetFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) (FeeDiscount, error) {
	return s.repo.GetFeeDiscount(ctx, schoolID, id)
}

// DeleteFeeDiscount removes a discount unconditionally.
func (s *Service) DeleteFeeDiscount(ctx context.Context, schoolID, id uuid.UUID) error {
	if err := s.repo.DeleteFeeDiscount(ctx, schoolID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, schoolID, "fees:discount_deleted", "fee_discount", id, nil)
	return nil
}

// ListFeeDiscounts returns a filtered, paginated discount listing.
func (s *Service) ListFeeDiscounts(ctx context.Context, schoolID uuid.UUID, req ListFeeDiscountsRequest) ([]FeeDiscount, shared.Pagination, error) {
	items, total, err := s.repo.ListFeeDiscounts(ctx, schoolID, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, schoolID uuid.UUID, action, entity string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["school_id"] = schoolID.String()
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
