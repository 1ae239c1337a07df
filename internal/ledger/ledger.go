// Package ledger is the value-transfer collaborator of the registry engine.
//
// All transfers a registration performs run inside one ledger transaction:
// either every payout lands or none do. The engine never retries; a failed
// transfer aborts the whole registration.
package ledger

import (
	"context"

	"namegate/pkg/domain"
)

//go:generate mockgen -source=ledger.go -destination=mocks/ledger_mocks.go -package=mocks

// Tx executes transfers inside a ledger transaction.
type Tx interface {
	// Transfer moves amount from one account to another. It fails with
	// sentinel.ErrInsufficientFunds when the source balance cannot cover the
	// amount. A zero amount is a no-op.
	Transfer(ctx context.Context, from, to domain.AccountID, amount uint64) error
}

// Ledger owns account balances.
type Ledger interface {
	// RunInTx runs fn inside a transaction. Balance changes made through the
	// Tx become visible only when fn returns nil; any error rolls back every
	// transfer fn performed.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Deposit credits an account outside any registration flow (funding).
	Deposit(ctx context.Context, to domain.AccountID, amount uint64) error

	// Balance returns the committed balance of an account. Unknown accounts
	// have a zero balance.
	Balance(ctx context.Context, account domain.AccountID) (uint64, error)
}
