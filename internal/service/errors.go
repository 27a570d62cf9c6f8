package service

import "errors"

var (
	ErrIDRequired          = errors.New("id is required")
	ErrNotFound            = errors.New("document not found")
	ErrUnsupportedFormat   = errors.New("unsupported document type")
	ErrUnsupportedTemplate = errors.New("unsupported template type")
	ErrPersistenceFailure  = errors.New("document record could not be saved")
	ErrNotArchived         = errors.New("document content is not archived")
)
