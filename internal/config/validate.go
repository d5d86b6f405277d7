// validate.go checks merged sweep settings before any trainer process
// starts. Validation collects every problem instead of stopping at the
// first, so a broken sweep file or flag combination is reported in one
// pass.
package config

import (
	"fmt"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// ValidationError represents a specific validation failure in the merged
// sweep settings.
type ValidationError struct {
	// Field is the settings field that failed validation (e.g. "runs",
	// "params.learning_rate", "grid.n").
	Field string

	// Message describes what is wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("sweep validation error: %s: %s", e.Field, e.Message)
}

// ValidateSettings checks the merged settings. It returns a list of
// validation errors; an empty list means the settings are runnable.
//
// Checks performed:
//   - script and python must be set
//   - runs must be at least 1
//   - runner must be a known kind, with an image for the docker runner
//   - hyperparameters must pass model.HParams validation
//   - grid axes must name sweepable parameters and carry values
func ValidateSettings(s *Settings) []ValidationError {
	var errs []ValidationError

	if s.Script == "" {
		errs = append(errs, ValidationError{
			Field:   "script",
			Message: "trainer script must not be empty",
		})
	}

	if s.Runner == model.RunnerLocal && s.Python == "" {
		errs = append(errs, ValidationError{
			Field:   "python",
			Message: "local runner requires a python interpreter",
		})
	}

	if s.Runs < 1 {
		errs = append(errs, ValidationError{
			Field:   "runs",
			Message: fmt.Sprintf("runs must be >= 1, got %d", s.Runs),
		})
	}

	if !s.Runner.IsValid() {
		errs = append(errs, ValidationError{
			Field:   "runner",
			Message: fmt.Sprintf("unknown runner %q (valid: local, docker)", string(s.Runner)),
		})
	} else if s.Runner.IsDocker() && s.Image == "" {
		errs = append(errs, ValidationError{
			Field:   "image",
			Message: "docker runner requires an image",
		})
	}

	if err := s.Params.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "params",
			Message: err.Error(),
		})
	}

	for name, values := range s.Grid {
		if !IsGridParam(name) {
			errs = append(errs, ValidationError{
				Field:   "grid." + name,
				Message: "not a sweepable hyperparameter",
			})
		}
		if len(values) == 0 {
			errs = append(errs, ValidationError{
				Field:   "grid." + name,
				Message: "axis has no values",
			})
		}
	}

	return errs
}
