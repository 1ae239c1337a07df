package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"namegate/internal/auth"
	"namegate/internal/events"
	"namegate/internal/ledger"
	ledgermocks "namegate/internal/ledger/mocks"
	"namegate/internal/registry/store/memory"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
	"namegate/pkg/platform/sentinel"
)

const testFee = 100

type EngineSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	ledger *ledger.InMemory
	events *events.Publisher
	svc    *Service

	owner  domain.AccountID
	escrow domain.AccountID
	alice  domain.AccountID
	bob    domain.AccountID
	carol  domain.AccountID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.owner = domain.AccountID(uuid.New())
	s.escrow = domain.AccountID(uuid.New())
	s.alice = domain.AccountID(uuid.New())
	s.bob = domain.AccountID(uuid.New())
	s.carol = domain.AccountID(uuid.New())

	s.svc = s.newEngine(Config{Reward: FlatReward(10)})

	for _, account := range []domain.AccountID{s.alice, s.bob, s.carol} {
		s.Require().NoError(s.ledger.Deposit(s.ctx, account, 10_000))
	}
}

// newEngine rebuilds the engine with fresh state and the given policies.
// Owner and escrow accounts are filled in.
func (s *EngineSuite) newEngine(cfg Config) *Service {
	cfg.Owner = s.owner
	cfg.Escrow = s.escrow
	s.store = memory.New(testFee)
	s.ledger = ledger.NewInMemory()
	s.events = events.NewPublisher(events.NewInMemoryStore(), slog.New(slog.DiscardHandler))
	return New(s.store, s.ledger, auth.NewStaticAuthorizer(s.owner), s.events, cfg,
		WithLogger(slog.New(slog.DiscardHandler)))
}

func (s *EngineSuite) register(name string, controller domain.AccountID) {
	_, err := s.svc.Register(s.ctx, name, controller, controller, testFee)
	s.Require().NoError(err)
}

func (s *EngineSuite) balance(account domain.AccountID) uint64 {
	balance, err := s.ledger.Balance(s.ctx, account)
	s.Require().NoError(err)
	return balance
}

func (s *EngineSuite) TestRegisterSuccess() {
	result, err := s.svc.Register(s.ctx, "example.com", s.alice, s.alice, testFee)
	s.Require().NoError(err)

	s.Equal("example.com", result.Record.Name)
	s.Equal(s.alice, result.Record.Controller)
	s.True(result.Record.Registered)
	s.Equal(uint64(testFee), result.Fee)
	s.Zero(result.TotalDistributed, "no registered ancestors, nothing to distribute")
	s.Equal(uint64(testFee), result.OwnerShare)
	s.Zero(result.Refund)

	info, err := s.svc.Info(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), info.TotalDomains)

	s.Equal(uint64(testFee), s.balance(s.owner))
	s.Equal(uint64(10_000-testFee), s.balance(s.alice))

	registered, err := s.svc.Events(s.ctx, events.Filter{Type: events.TypeDomainRegistered})
	s.Require().NoError(err)
	s.Require().Len(registered, 1)
	s.Equal("example.com", registered[0].Name)
	s.Equal(s.alice, registered[0].Controller)
}

func (s *EngineSuite) TestRegisterUniqueness() {
	s.register("example.com", s.alice)

	s.Run("same controller", func() {
		_, err := s.svc.Register(s.ctx, "example.com", s.alice, s.alice, testFee)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered), "got %v", err)
	})

	s.Run("different controller and payer", func() {
		_, err := s.svc.Register(s.ctx, "example.com", s.bob, s.bob, testFee)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered), "got %v", err)
	})

	s.Run("duplicate check precedes payment check", func() {
		_, err := s.svc.Register(s.ctx, "example.com", s.bob, s.bob, 0)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered), "got %v", err)
	})

	info, err := s.svc.Info(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), info.TotalDomains)
}

func (s *EngineSuite) TestPaymentPolicies() {
	s.Run("underpayment is rejected with the required fee in the message", func() {
		_, err := s.svc.Register(s.ctx, "cheap.com", s.alice, s.alice, testFee-1)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientPayment), "got %v", err)
		s.Contains(err.Error(), "100")
	})

	s.Run("overpayment is accepted and the excess refunded", func() {
		result, err := s.svc.Register(s.ctx, "generous.com", s.alice, s.alice, testFee+40)
		s.Require().NoError(err)
		s.Equal(uint64(40), result.Refund)
		s.Equal(uint64(10_000-testFee), s.balance(s.alice))
	})

	s.Run("strict mode requires the exact fee", func() {
		s.svc = s.newEngine(Config{Reward: FlatReward(10), StrictPayment: true})
		s.Require().NoError(s.ledger.Deposit(s.ctx, s.alice, 1_000))

		_, err := s.svc.Register(s.ctx, "exact.com", s.alice, s.alice, testFee+1)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientPayment), "got %v", err)

		_, err = s.svc.Register(s.ctx, "exact.com", s.alice, s.alice, testFee-1)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientPayment), "got %v", err)

		result, err := s.svc.Register(s.ctx, "exact.com", s.alice, s.alice, testFee)
		s.Require().NoError(err)
		s.Zero(result.Refund)
	})
}

func (s *EngineSuite) TestRegisterRejectsNullController() {
	_, err := s.svc.Register(s.ctx, "example.com", domain.NilAccountID, s.alice, testFee)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidController), "got %v", err)
}

func (s *EngineSuite) TestTopLevelOnlyMode() {
	s.svc = s.newEngine(Config{Reward: FlatReward(10), TopLevelOnly: true})
	s.Require().NoError(s.ledger.Deposit(s.ctx, s.alice, 1_000))

	_, err := s.svc.Register(s.ctx, "a.b.c", s.alice, s.alice, testFee)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotTopLevel), "got %v", err)

	_, err = s.svc.Register(s.ctx, "bare", s.alice, s.alice, testFee)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotTopLevel), "got %v", err)

	_, err = s.svc.Register(s.ctx, "a.b", s.alice, s.alice, testFee)
	s.Require().NoError(err)
}

func (s *EngineSuite) TestRewardFanOut() {
	s.register("org", s.alice)
	s.register("test.org", s.bob)

	result, err := s.svc.Register(s.ctx, "new.test.org", s.carol, s.carol, testFee)
	s.Require().NoError(err)

	s.Require().Len(result.Credits, 2)
	s.Equal("org", result.Credits[0].Name, "credits are ordered root-first")
	s.Equal("test.org", result.Credits[1].Name)
	s.Equal(uint64(10), result.Credits[0].Amount, "no decay across levels")
	s.Equal(uint64(10), result.Credits[1].Amount)
	s.Equal(uint64(20), result.TotalDistributed)
	s.Equal(uint64(testFee-20), result.OwnerShare)

	s.Run("ledger accumulates across registrations", func() {
		// org already earned 10 from test.org's registration.
		info, err := s.svc.Domain(s.ctx, "org")
		s.Require().NoError(err)
		s.Equal(uint64(20), info.RewardTotal)

		s.register("another.test.org", s.carol)

		info, err = s.svc.Domain(s.ctx, "org")
		s.Require().NoError(err)
		s.Equal(uint64(30), info.RewardTotal)
	})

	s.Run("controllers receive value immediately", func() {
		// alice: paid one fee for org, earned 10 per descendant of org (3 of them).
		s.Equal(uint64(10_000-testFee+30), s.balance(s.alice))
	})
}

func (s *EngineSuite) TestSparseHierarchySkipsUnregisteredAncestors() {
	s.register("c", s.alice)

	result, err := s.svc.Register(s.ctx, "a.b.c", s.bob, s.bob, testFee)
	s.Require().NoError(err)

	s.Require().Len(result.Credits, 1)
	s.Equal("c", result.Credits[0].Name, `"b.c" is skipped silently`)

	rewards, err := s.svc.Events(s.ctx, events.Filter{Type: events.TypeRewardDistributed})
	s.Require().NoError(err)
	s.Require().Len(rewards, 1)
	s.Equal("c", rewards[0].Name)
}

func (s *EngineSuite) TestFeeConservation() {
	s.register("org", s.alice)
	s.register("test.org", s.bob)

	ownerBefore := s.balance(s.owner)
	aliceBefore := s.balance(s.alice)
	bobBefore := s.balance(s.bob)

	result, err := s.svc.Register(s.ctx, "new.test.org", s.carol, s.carol, testFee)
	s.Require().NoError(err)

	s.Equal(uint64(testFee), result.TotalDistributed+result.OwnerShare,
		"every unit of the fee is either distributed or paid to the owner")
	s.Equal(ownerBefore+result.OwnerShare, s.balance(s.owner))
	s.Equal(aliceBefore+10, s.balance(s.alice))
	s.Equal(bobBefore+10, s.balance(s.bob))
	s.Zero(s.balance(s.escrow), "escrow never retains value")
}

func (s *EngineSuite) TestRewardPolicies() {
	s.Run("zero flat reward distributes nothing", func() {
		s.svc = s.newEngine(Config{Reward: FlatReward(0)})
		s.Require().NoError(s.ledger.Deposit(s.ctx, s.alice, 1_000))
		s.register("org", s.alice)

		result, err := s.svc.Register(s.ctx, "sub.org", s.alice, s.alice, testFee)
		s.Require().NoError(err)
		s.Empty(result.Credits)
		s.Equal(uint64(testFee), result.OwnerShare)
	})

	s.Run("percentage of fee", func() {
		s.svc = s.newEngine(Config{Reward: PercentReward(5)})
		s.Require().NoError(s.ledger.Deposit(s.ctx, s.alice, 1_000))
		s.register("org", s.alice)

		result, err := s.svc.Register(s.ctx, "sub.org", s.alice, s.alice, testFee)
		s.Require().NoError(err)
		s.Require().Len(result.Credits, 1)
		s.Equal(uint64(5), result.Credits[0].Amount)
	})

	s.Run("payouts exceeding the fee abort the registration", func() {
		s.svc = s.newEngine(Config{Reward: FlatReward(60)})
		s.Require().NoError(s.ledger.Deposit(s.ctx, s.alice, 1_000))
		s.register("b", s.alice)
		s.register("a.b", s.alice)

		_, err := s.svc.Register(s.ctx, "x.a.b", s.alice, s.alice, testFee)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvariantViolation), "got %v", err)
	})
}

func (s *EngineSuite) TestEventOrderMatchesDecomposerOrder() {
	s.register("org", s.alice)
	s.register("test.org", s.bob)
	s.register("new.test.org", s.carol)

	all, err := s.svc.Events(s.ctx, events.Filter{})
	s.Require().NoError(err)

	// Last three events: the registration, then rewards root-first.
	s.Require().GreaterOrEqual(len(all), 3)
	tail := all[len(all)-3:]
	s.Equal(events.TypeDomainRegistered, tail[0].Type)
	s.Equal("new.test.org", tail[0].Name)
	s.Equal(events.TypeRewardDistributed, tail[1].Type)
	s.Equal("org", tail[1].Name)
	s.Equal(events.TypeRewardDistributed, tail[2].Type)
	s.Equal("test.org", tail[2].Name)
}

func (s *EngineSuite) TestInsufficientFundsAbortsRegistration() {
	broke := domain.AccountID(uuid.New())

	_, err := s.svc.Register(s.ctx, "example.com", broke, broke, testFee)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds), "got %v", err)

	_, err = s.svc.Domain(s.ctx, "example.com")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
}

func (s *EngineSuite) TestChangeFee() {
	s.Run("rejects non-owner callers", func() {
		err := s.svc.ChangeFee(s.ctx, s.alice, 200)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)
	})

	s.Run("rejects zero", func() {
		err := s.svc.ChangeFee(s.ctx, s.owner, 0)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeFeeNotPositive), "got %v", err)
	})

	s.Run("rejects the current value", func() {
		err := s.svc.ChangeFee(s.ctx, s.owner, testFee)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeFeeUnchanged), "got %v", err)
	})

	s.Run("updates the fee and emits an event", func() {
		s.Require().NoError(s.svc.ChangeFee(s.ctx, s.owner, 250))

		info, err := s.svc.Info(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(250), info.Fee)

		changed, err := s.svc.Events(s.ctx, events.Filter{Type: events.TypeFeeChanged})
		s.Require().NoError(err)
		s.Require().Len(changed, 1)
		s.Equal(uint64(250), changed[0].Amount)

		// New registrations are priced at the new fee.
		_, err = s.svc.Register(s.ctx, "example.com", s.alice, s.alice, testFee)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientPayment), "got %v", err)
	})
}

func (s *EngineSuite) TestControllerDomainsPagination() {
	s.register("org", s.alice)
	s.register("a.org", s.alice)
	s.register("b.org", s.alice)

	names, err := s.svc.ControllerDomains(s.ctx, s.alice, 0, 10)
	s.Require().NoError(err)
	s.Equal([]string{"org", "a.org", "b.org"}, names)

	names, err = s.svc.ControllerDomains(s.ctx, s.alice, 1, 1)
	s.Require().NoError(err)
	s.Equal([]string{"a.org"}, names)

	names, err = s.svc.ControllerDomains(s.ctx, s.alice, 3, 10)
	s.Require().NoError(err)
	s.Empty(names)

	_, err = s.svc.ControllerDomains(s.ctx, domain.NilAccountID, 0, 10)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidController), "got %v", err)
}

func (s *EngineSuite) TestRejectsEmptyName() {
	_, err := s.svc.Register(s.ctx, "", s.alice, s.alice, testFee)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
}

// TestTransferFailureRollsBackEverything drives the atomicity property with a
// mocked ledger whose transaction fails mid-distribution.
func TestTransferFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	owner := domain.AccountID(uuid.New())
	escrow := domain.AccountID(uuid.New())
	alice := domain.AccountID(uuid.New())
	bob := domain.AccountID(uuid.New())

	store := memory.New(testFee)
	realLedger := ledger.NewInMemory()
	require.NoError(t, realLedger.Deposit(ctx, alice, 1_000))
	require.NoError(t, realLedger.Deposit(ctx, bob, 1_000))
	log := events.NewPublisher(events.NewInMemoryStore(), slog.New(slog.DiscardHandler))
	cfg := Config{Owner: owner, Escrow: escrow, Reward: FlatReward(10)}

	svc := New(store, realLedger, auth.NewStaticAuthorizer(owner), log, cfg,
		WithLogger(slog.New(slog.DiscardHandler)))
	_, err := svc.Register(ctx, "org", alice, alice, testFee)
	require.NoError(t, err)

	eventsBefore, err := svc.Events(ctx, events.Filter{})
	require.NoError(t, err)

	// Same store and event log, but a ledger that accepts the escrow payment
	// and then fails the first reward payout.
	ctrl := gomock.NewController(t)
	mockLedger := ledgermocks.NewMockLedger(ctrl)
	mockTx := ledgermocks.NewMockTx(ctrl)
	gomock.InOrder(
		mockTx.EXPECT().Transfer(gomock.Any(), bob, escrow, uint64(testFee)).Return(nil),
		mockTx.EXPECT().Transfer(gomock.Any(), escrow, alice, uint64(10)).Return(sentinel.ErrUnavailable),
	)
	mockLedger.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(ledger.Tx) error) error {
			return fn(mockTx)
		})

	failing := New(store, mockLedger, auth.NewStaticAuthorizer(owner), log, cfg,
		WithLogger(slog.New(slog.DiscardHandler)))

	_, err = failing.Register(ctx, "sub.org", bob, bob, testFee)
	require.Error(t, err)
	require.True(t, errors.Is(err, sentinel.ErrUnavailable))

	// No record, no index entry, no reward credit, no counter bump, no events.
	_, err = svc.Domain(ctx, "sub.org")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	names, err := svc.ControllerDomains(ctx, bob, 0, 10)
	require.NoError(t, err)
	require.Empty(t, names)

	info, err := svc.Domain(ctx, "org")
	require.NoError(t, err)
	require.Zero(t, info.RewardTotal)

	registryInfo, err := svc.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), registryInfo.TotalDomains)

	eventsAfter, err := svc.Events(ctx, events.Filter{})
	require.NoError(t, err)
	require.Len(t, eventsAfter, len(eventsBefore))
}
