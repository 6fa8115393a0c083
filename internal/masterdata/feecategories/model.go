package feecategories

import (
	"time"

	"github.com/google/uuid"
)

// FeeCategory classifies what a fee structure charges for, such as tuition
// or transport.
type FeeCategory struct {
	ID          uuid.UUID `json:"id"`
	SchoolID    uuid.UUID `json:"school_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
