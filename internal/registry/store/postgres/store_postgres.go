// Package postgres persists the registry in PostgreSQL. ApplyRegistration
// runs in a single SQL transaction so the record, controller-index row,
// reward credits, and counter commit or roll back together.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"namegate/internal/registry/models"
	"namegate/pkg/domain"
	"namegate/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is applied by Migrate. controller_domains carries an explicit
// position so pagination preserves registration order without relying on
// insertion order of the table.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_state (
	id            BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
	fee           BIGINT NOT NULL CHECK (fee > 0),
	total_domains BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS domains (
	name          TEXT PRIMARY KEY,
	controller    UUID NOT NULL,
	registered_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS controller_domains (
	controller UUID   NOT NULL,
	position   BIGINT NOT NULL,
	name       TEXT   NOT NULL REFERENCES domains(name),
	PRIMARY KEY (controller, position)
);

CREATE TABLE IF NOT EXISTS reward_ledger (
	name  TEXT PRIMARY KEY,
	total BIGINT NOT NULL DEFAULT 0
);
`

// Migrate creates the schema and seeds the fee scalar when absent.
func (s *Store) Migrate(ctx context.Context, initialFee uint64) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply registry schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_state (id, fee) VALUES (TRUE, $1) ON CONFLICT (id) DO NOTHING`,
		int64(initialFee))
	if err != nil {
		return fmt.Errorf("seed registry state: %w", err)
	}
	return nil
}

func (s *Store) Domain(ctx context.Context, name string) (models.DomainRecord, error) {
	var rec models.DomainRecord
	var controller string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, controller, registered_at FROM domains WHERE name = $1`,
		name).Scan(&rec.Name, &controller, &rec.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DomainRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.DomainRecord{}, fmt.Errorf("load domain: %w", err)
	}
	rec.Controller, err = domain.ParseAccountID(controller)
	if err != nil {
		return models.DomainRecord{}, fmt.Errorf("decode controller: %w", err)
	}
	rec.Registered = true
	return rec, nil
}

func (s *Store) Fee(ctx context.Context) (uint64, error) {
	var fee int64
	if err := s.db.QueryRowContext(ctx, `SELECT fee FROM registry_state`).Scan(&fee); err != nil {
		return 0, fmt.Errorf("load fee: %w", err)
	}
	return uint64(fee), nil
}

func (s *Store) SetFee(ctx context.Context, fee uint64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE registry_state SET fee = $1`, int64(fee)); err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	return nil
}

func (s *Store) TotalDomains(ctx context.Context) (uint64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT total_domains FROM registry_state`).Scan(&total); err != nil {
		return 0, fmt.Errorf("load total domains: %w", err)
	}
	return uint64(total), nil
}

func (s *Store) RewardBalance(ctx context.Context, name string) (uint64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT total FROM reward_ledger WHERE name = $1`, name).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load reward balance: %w", err)
	}
	return uint64(total), nil
}

func (s *Store) ControllerDomainCount(ctx context.Context, controller domain.AccountID) (uint64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM controller_domains WHERE controller = $1`,
		controller.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count controller domains: %w", err)
	}
	return uint64(count), nil
}

func (s *Store) ControllerDomains(ctx context.Context, controller domain.AccountID, offset, limit uint64) ([]string, error) {
	if limit == 0 {
		return []string{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM controller_domains WHERE controller = $1 ORDER BY position LIMIT $2 OFFSET $3`,
		controller.String(), int64(limit), int64(offset))
	if err != nil {
		return nil, fmt.Errorf("list controller domains: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan controller domain: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate controller domains: %w", err)
	}
	return names, nil
}

func (s *Store) ApplyRegistration(ctx context.Context, reg models.Registration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO domains (name, controller, registered_at) VALUES ($1, $2, $3)`,
		reg.Record.Name, reg.Record.Controller.String(), reg.Record.RegisteredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert domain: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO controller_domains (controller, position, name)
		 SELECT $1, COALESCE(MAX(position), -1) + 1, $2 FROM controller_domains WHERE controller = $1`,
		reg.Record.Controller.String(), reg.Record.Name)
	if err != nil {
		return fmt.Errorf("append controller index: %w", err)
	}

	for _, credit := range reg.Credits {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reward_ledger (name, total) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET total = reward_ledger.total + EXCLUDED.total`,
			credit.Name, int64(credit.Amount))
		if err != nil {
			return fmt.Errorf("credit reward ledger: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE registry_state SET total_domains = total_domains + 1`); err != nil {
		return fmt.Errorf("increment total domains: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}
