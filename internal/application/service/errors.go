package service

import "errors"

var (
	// ErrExportInProgress is returned when a session already has an export in flight
	ErrExportInProgress = errors.New("an export is already in progress for this session")

	// ErrUnsupportedFormat is returned for export formats other than pdf and xlsx
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
