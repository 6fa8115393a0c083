// Package jobs contains the asynq background tasks for the school backend.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeOverdueScan is the task type for the overdue invoice scan.
	TaskTypeOverdueScan = "fees:overdue_scan"
)

// OverdueScanPayload carries scheduling metadata for the overdue scan.
type OverdueScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverdueScanTask constructs an asynq task that marks unpaid invoices
// overdue once their due date has passed.
func NewOverdueScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOverdueScan, body, asynq.Queue(QueueDefault)), nil
}
