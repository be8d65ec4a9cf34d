package util

import "github.com/google/uuid"

// NewID returns a fresh UUID string used for run, event and function call
// correlation.
func NewID() string { return uuid.NewString() }
