package services

import "errors"

// Sentinel errors returned by the service layer
var (
	// ErrNoDataset indicates no spreadsheet has been uploaded yet
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrUnknownFilterValue indicates a selection value outside the dataset's options
	ErrUnknownFilterValue = errors.New("unknown filter value")
)
