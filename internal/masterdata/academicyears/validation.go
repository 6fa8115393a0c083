package academicyears

import (
	"fmt"
	"strings"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

func (s *Service) validate(y AcademicYear) error {
	if strings.TrimSpace(y.Name) == "" {
		return fmt.Errorf("%w: academic year name is required", httpx.ErrValidation)
	}
	if y.StartDate.IsZero() || y.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", httpx.ErrValidation)
	}
	if !y.EndDate.After(y.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", httpx.ErrValidation)
	}
	return nil
}
