package grades

import (
	"fmt"
	"strings"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

func (s *Service) validate(g Grade) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: grade name is required", httpx.ErrValidation)
	}
	if g.Level < 0 {
		return fmt.Errorf("%w: grade level must not be negative", httpx.ErrValidation)
	}
	return nil
}
