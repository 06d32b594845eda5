package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrContactNotFound = errors.New("contact submission not found")
	ErrInvalidPeriod   = errors.New("report period end must be after start")
)
