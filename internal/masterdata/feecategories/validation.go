package feecategories

import (
	"fmt"
	"strings"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

func (s *Service) validate(c FeeCategory) error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: category code is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", httpx.ErrValidation)
	}
	return nil
}
