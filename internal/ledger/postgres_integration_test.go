//go:build integration

package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"namegate/internal/ledger"
	"namegate/pkg/domain"
	"namegate/pkg/platform/sentinel"
	"namegate/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	container *containers.PostgresContainer
	ledger    *ledger.Postgres
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.container = mgr.GetPostgres(s.T())
	s.ledger = ledger.NewPostgres(s.container.Pool)
	s.Require().NoError(s.ledger.Migrate(context.Background()))
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.container.TruncateTables(context.Background(), "accounts"))
}

func (s *PostgresLedgerSuite) TestDepositAndBalance() {
	ctx := context.Background()
	account := domain.AccountID(uuid.New())

	balance, err := s.ledger.Balance(ctx, account)
	s.Require().NoError(err)
	s.Zero(balance, "unknown accounts read as zero")

	s.Require().NoError(s.ledger.Deposit(ctx, account, 500))
	s.Require().NoError(s.ledger.Deposit(ctx, account, 250))

	balance, err = s.ledger.Balance(ctx, account)
	s.Require().NoError(err)
	s.Equal(uint64(750), balance)
}

func (s *PostgresLedgerSuite) TestTransferWithinTx() {
	ctx := context.Background()
	a := domain.AccountID(uuid.New())
	b := domain.AccountID(uuid.New())
	s.Require().NoError(s.ledger.Deposit(ctx, a, 100))

	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, a, b, 40)
	})
	s.Require().NoError(err)

	balanceA, err := s.ledger.Balance(ctx, a)
	s.Require().NoError(err)
	s.Equal(uint64(60), balanceA)

	balanceB, err := s.ledger.Balance(ctx, b)
	s.Require().NoError(err)
	s.Equal(uint64(40), balanceB)
}

func (s *PostgresLedgerSuite) TestFailedTransferRollsBackWholeTx() {
	ctx := context.Background()
	a := domain.AccountID(uuid.New())
	b := domain.AccountID(uuid.New())
	c := domain.AccountID(uuid.New())
	s.Require().NoError(s.ledger.Deposit(ctx, a, 100))

	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.Transfer(ctx, a, b, 40); err != nil {
			return err
		}
		// b only has the staged 40; this must fail and undo the first transfer.
		return tx.Transfer(ctx, b, c, 1_000)
	})
	s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)

	balanceA, err := s.ledger.Balance(ctx, a)
	s.Require().NoError(err)
	s.Equal(uint64(100), balanceA)

	balanceB, err := s.ledger.Balance(ctx, b)
	s.Require().NoError(err)
	s.Zero(balanceB)
}

func (s *PostgresLedgerSuite) TestStagedBalanceVisibleWithinTx() {
	ctx := context.Background()
	a := domain.AccountID(uuid.New())
	b := domain.AccountID(uuid.New())
	c := domain.AccountID(uuid.New())
	s.Require().NoError(s.ledger.Deposit(ctx, a, 100))

	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.Transfer(ctx, a, b, 100); err != nil {
			return err
		}
		return tx.Transfer(ctx, b, c, 100)
	})
	s.Require().NoError(err)

	balanceC, err := s.ledger.Balance(ctx, c)
	s.Require().NoError(err)
	s.Equal(uint64(100), balanceC)
}
