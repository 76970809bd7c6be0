package models

import "errors"

// Custom errors
var (
	ErrUnknownField = errors.New("unknown field path")
)
