package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
// These represent factual states about rows, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a unique key already exists
// - ErrInvalidState: entity in wrong state for a conditional update
// - ErrReferenced: entity still referenced by other rows, delete refused
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrReferenced   = errors.New("referenced")
)
