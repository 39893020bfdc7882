package application

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// identifierPattern matches unit and stage IDs. IDs double as state key
// names, so they are kept to a conservative character set.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-]{0,99}$`)

// RegisterPlanValidators registers the plan-specific validation tags with
// v: "semver" for the schema version and "identifier" for unit and stage
// IDs.
// RegisterPlanValidators returns an error if any registration fails.
func RegisterPlanValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("identifier", validateIdentifier); err != nil {
		return fmt.Errorf("failed to register identifier validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	if err != nil || n != 3 || major < 0 || minor < 0 || patch < 0 {
		return false
	}
	// Sscanf stops at the third number; reject trailing garbage.
	return fmt.Sprintf("%d.%d.%d", major, minor, patch) == value
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}
