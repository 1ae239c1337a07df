package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namegate/pkg/domain"
	"namegate/pkg/platform/sentinel"
)

// Postgres keeps balances in an accounts table. Transfers run inside a real
// database transaction, so a failed registration rolls back every payout.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id      UUID PRIMARY KEY,
	balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
);
`

func (l *Postgres) Migrate(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, accountsSchema); err != nil {
		return fmt.Errorf("apply accounts schema: %w", err)
	}
	return nil
}

func (l *Postgres) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgxTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (l *Postgres) Deposit(ctx context.Context, to domain.AccountID, amount uint64) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO accounts (id, balance) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance`,
		to.String(), int64(amount))
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

func (l *Postgres) Balance(ctx context.Context, account domain.AccountID) (uint64, error) {
	var balance int64
	err := l.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, account.String()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return uint64(balance), nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Transfer(ctx context.Context, from, to domain.AccountID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	// Debit guarded by the balance predicate: zero rows affected means the
	// account is missing or underfunded.
	tag, err := t.tx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $2 WHERE id = $1 AND balance >= $2`,
		from.String(), int64(amount))
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInsufficientFunds
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO accounts (id, balance) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance`,
		to.String(), int64(amount))
	if err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}
