package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about documents, not validation failures:
// - ErrNotFound: document does not exist in the collection
// - ErrAlreadyUsed: a unique value or id is already held by another document
// - ErrConflict: a concurrent writer changed the document between read and write
// - ErrInvalidState: a caller passed arguments the store cannot act on
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
)
