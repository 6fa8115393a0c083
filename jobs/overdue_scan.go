package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/fees"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/observability"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
)

// OverdueScanner flips unpaid invoices past their due date to overdue.
// The recorder never sets overdue itself; this scan is the only writer
// of that status.
type OverdueScanner struct {
	service *fees.Service
	lock    *shared.ScanLock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewOverdueScanner wires the scan task handler.
func NewOverdueScanner(service *fees.Service, lock *shared.ScanLock, metrics *observability.Metrics, logger *slog.Logger) *OverdueScanner {
	return &OverdueScanner{service: service, lock: lock, metrics: metrics, logger: logger}
}

// Handle processes TaskTypeOverdueScan tasks. The redis lock keeps
// concurrent workers from running the scan at the same time; a held lock
// is not an error, the next cron tick retries.
func (s *OverdueScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	acquired, err := s.lock.Acquire(ctx, shared.OverdueScanLockKey)
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.Info("overdue scan skipped, lock held elsewhere")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx, shared.OverdueScanLockKey); err != nil {
			s.logger.Warn("release overdue scan lock", slog.Any("error", err))
		}
	}()

	asOf := payload.ScheduledFor
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	marked, err := s.service.MarkOverdue(ctx, asOf)
	if err != nil {
		return err
	}
	s.metrics.InvoicesMarkedOverdue(marked)
	s.logger.Info("overdue scan finished",
		slog.Int("marked", marked),
		slog.Time("as_of", asOf),
	)
	return nil
}
