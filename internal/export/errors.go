package export

import "errors"

var (
	// ErrNothingToRender means there was no content to snapshot. Callers treat it
	// as a silent abort: no artifact and no user-facing error.
	ErrNothingToRender = errors.New("nothing to render")

	// ErrExportFailed wraps any rasterization or assembly failure
	ErrExportFailed = errors.New("export failed")
)

// FailureMessage is the text shown to the user when an export fails
const FailureMessage = "Failed to generate PDF. Please try again."
