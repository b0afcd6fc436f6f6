package mocks

import (
	"fmt"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

// errJobNotFound is returned when a job id doesn't exist.
var errJobNotFound = fmt.Errorf("job %w", apperrors.ErrNotFound)
