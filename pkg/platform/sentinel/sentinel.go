package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ledger return these
// (optionally wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write lost to a concurrent or earlier registration
// - ErrInsufficientFunds: account balance cannot cover a transfer
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, failed preconditions), use
// pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
)
