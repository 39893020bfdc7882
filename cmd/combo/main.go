// Command combo combines the outlier scores of several detectors into one
// score per sample.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ahrav/go-combo/internal/domain"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Scores combined
	ExitInvalidInput = 1 // The scores or the requested combination were rejected
	ExitError        = 2 // Configuration, I/O or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(ExitSuccess)
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrShapeMismatch),
		errors.Is(err, domain.ErrParameterRange),
		errors.Is(err, domain.ErrUnevenBucket),
		errors.Is(err, domain.ErrUnsupportedStrategy):
		return ExitInvalidInput
	default:
		return ExitError
	}
}
