// Package service implements the registry engine: registration, fee changes,
// and queries over the domain table, controller index, and reward ledger.
//
// Mutating operations are serialized by a single mutex and execute as one
// indivisible unit including all value transfers, mirroring the serialized
// execution model the registry's invariants assume. Reads go straight to the
// store and only ever observe committed registrations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"namegate/internal/auth"
	"namegate/internal/events"
	"namegate/internal/ledger"
	"namegate/internal/platform/metrics"
	"namegate/internal/registry/hierarchy"
	"namegate/internal/registry/models"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
	"namegate/pkg/platform/sentinel"
	"namegate/pkg/requestcontext"
)

// Store is the engine's view of persistence. Implementations must make
// ApplyRegistration atomic with respect to every read method.
type Store interface {
	Domain(ctx context.Context, name string) (models.DomainRecord, error)
	Fee(ctx context.Context) (uint64, error)
	SetFee(ctx context.Context, fee uint64) error
	TotalDomains(ctx context.Context) (uint64, error)
	RewardBalance(ctx context.Context, name string) (uint64, error)
	ControllerDomains(ctx context.Context, controller domain.AccountID, offset, limit uint64) ([]string, error)
	ControllerDomainCount(ctx context.Context, controller domain.AccountID) (uint64, error)
	ApplyRegistration(ctx context.Context, reg models.Registration) error
}

// EventLog receives the engine's events after state commits and serves
// filtered reads in emission order.
type EventLog interface {
	Emit(ctx context.Context, event events.Event) error
	List(ctx context.Context, filter events.Filter) ([]events.Event, error)
}

// RewardCache receives best-effort reward credits for auxiliary read paths
// (the redis leaderboard). Failures are logged, never surfaced.
type RewardCache interface {
	CreditReward(ctx context.Context, name string, amount uint64) error
}

// RewardPolicy maps the registration fee to the flat per-ancestor reward.
type RewardPolicy func(fee uint64) uint64

// FlatReward pays a constant amount per qualifying ancestor.
func FlatReward(amount uint64) RewardPolicy {
	return func(uint64) uint64 { return amount }
}

// PercentReward pays a percentage of the fee per qualifying ancestor.
func PercentReward(percent uint64) RewardPolicy {
	return func(fee uint64) uint64 { return fee * percent / 100 }
}

// Config fixes the engine's policies at construction time.
type Config struct {
	// Owner receives the undistributed remainder of every fee and is the only
	// account allowed to change the fee.
	Owner domain.AccountID
	// Escrow is the registry's own ledger account; payments pass through it.
	Escrow domain.AccountID
	// Reward computes the per-ancestor reward from the current fee.
	Reward RewardPolicy
	// StrictPayment requires paid == fee; otherwise paid >= fee with the
	// excess refunded.
	StrictPayment bool
	// TopLevelOnly restricts registration to names with exactly one dot.
	TopLevelOnly bool
}

type Service struct {
	mu         sync.Mutex
	store      Store
	ledger     ledger.Ledger
	authorizer auth.Authorizer
	events     EventLog
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cache      RewardCache
	tracer     trace.Tracer
	cfg        Config
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRewardCache(c RewardCache) Option {
	return func(s *Service) { s.cache = c }
}

func New(store Store, l ledger.Ledger, authorizer auth.Authorizer, eventLog EventLog, cfg Config, opts ...Option) *Service {
	if cfg.Reward == nil {
		cfg.Reward = FlatReward(0)
	}
	s := &Service{
		store:      store,
		ledger:     l,
		authorizer: authorizer,
		events:     eventLog,
		logger:     slog.Default(),
		tracer:     otel.Tracer("namegate/registry"),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register claims an unclaimed name for controller, paid for by payer.
// Preconditions are checked in a fixed order: already registered,
// insufficient payment, null controller, top-level restriction. On success
// the payment, ancestor rewards, owner share, and any refund move in one
// ledger transaction, then the registration commits, then events fire. A
// failed transfer aborts the whole call with no retained state.
func (s *Service) Register(ctx context.Context, name string, controller, payer domain.AccountID, paid uint64) (*models.RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Register",
		trace.WithAttributes(attribute.String("registry.name", name)))
	defer span.End()

	if name == "" {
		return nil, s.failRegistration(dErrors.New(dErrors.CodeValidation, "name is required"))
	}
	if payer.IsNil() {
		return nil, s.failRegistration(dErrors.New(dErrors.CodeUnauthorized, "payer account is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Domain(ctx, name); err == nil {
		return nil, s.failRegistration(dErrors.Newf(dErrors.CodeAlreadyRegistered, "domain %q is already registered", name))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check domain")
	}

	fee, err := s.store.Fee(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fee")
	}
	if s.cfg.StrictPayment {
		if paid != fee {
			return nil, s.failRegistration(dErrors.Newf(dErrors.CodeInsufficientPayment, "registration fee is exactly %d, paid %d", fee, paid))
		}
	} else if paid < fee {
		return nil, s.failRegistration(dErrors.Newf(dErrors.CodeInsufficientPayment, "registration fee is %d, paid %d", fee, paid))
	}
	if controller.IsNil() {
		return nil, s.failRegistration(dErrors.New(dErrors.CodeInvalidController, "controller must not be the null identity"))
	}
	if s.cfg.TopLevelOnly && hierarchy.Depth(name) != 1 {
		return nil, s.failRegistration(dErrors.Newf(dErrors.CodeNotTopLevel, "domain %q must have exactly one dot", name))
	}

	reward := s.cfg.Reward(fee)
	credits, err := s.planRewards(ctx, name, reward)
	if err != nil {
		return nil, err
	}
	totalDistributed := reward * uint64(len(credits))
	if totalDistributed > fee {
		return nil, s.failRegistration(dErrors.New(dErrors.CodeInvariantViolation, "reward payouts would exceed the registration fee"))
	}
	ownerShare := fee - totalDistributed
	refund := paid - fee

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.Transfer(ctx, payer, s.cfg.Escrow, paid); err != nil {
			return err
		}
		for _, credit := range credits {
			if err := tx.Transfer(ctx, s.cfg.Escrow, credit.Controller, credit.Amount); err != nil {
				return err
			}
		}
		if err := tx.Transfer(ctx, s.cfg.Escrow, s.cfg.Owner, ownerShare); err != nil {
			return err
		}
		return tx.Transfer(ctx, s.cfg.Escrow, payer, refund)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			return nil, s.failRegistration(dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "payer balance cannot cover the payment"))
		}
		return nil, s.failRegistration(dErrors.Wrap(err, dErrors.CodeInternal, "value transfer failed"))
	}

	record := models.DomainRecord{
		Name:         name,
		Controller:   controller,
		Registered:   true,
		RegisteredAt: requestcontext.Now(ctx),
	}
	reg := models.Registration{Record: record, Credits: credits}
	if err := s.store.ApplyRegistration(ctx, reg); err != nil {
		// Should be unreachable: the engine lock serializes registrations and
		// the duplicate check already passed.
		s.logger.ErrorContext(ctx, "registration commit failed after transfers",
			"name", name, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit registration")
	}

	s.publishRegistration(ctx, record, credits)
	span.SetAttributes(
		attribute.Int("registry.ancestors_credited", len(credits)),
		attribute.Int64("registry.total_distributed", int64(totalDistributed)),
	)
	if s.metrics != nil {
		s.metrics.RegistrationCommitted(len(credits), totalDistributed)
	}
	s.logger.InfoContext(ctx, "domain registered",
		"name", name,
		"controller", controller.String(),
		"fee", fee,
		"ancestors_credited", len(credits),
		"total_distributed", totalDistributed,
	)

	return &models.RegistrationResult{
		Record:           record,
		Credits:          credits,
		Fee:              fee,
		TotalDistributed: totalDistributed,
		OwnerShare:       ownerShare,
		Refund:           refund,
	}, nil
}

// ChangeFee updates the registration fee. Only the registry owner may call
// it; the fee must be positive and must differ from the current value.
func (s *Service) ChangeFee(ctx context.Context, caller domain.AccountID, newFee uint64) error {
	ctx, span := s.tracer.Start(ctx, "registry.ChangeFee")
	defer span.End()

	if !s.authorizer.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the registry owner can change the fee")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if newFee == 0 {
		return dErrors.New(dErrors.CodeFeeNotPositive, "fee must be greater than zero")
	}
	current, err := s.store.Fee(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fee")
	}
	if newFee == current {
		return dErrors.Newf(dErrors.CodeFeeUnchanged, "fee is already %d", current)
	}
	if err := s.store.SetFee(ctx, newFee); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update fee")
	}

	s.emit(ctx, events.Event{Type: events.TypeFeeChanged, Amount: newFee})
	if s.metrics != nil {
		s.metrics.FeeChanged()
	}
	s.logger.InfoContext(ctx, "registration fee changed", "old_fee", current, "new_fee", newFee)
	return nil
}

// ControllerDomains pages over the names a controller registered, in
// registration order. Out-of-range pagination degrades to an empty page.
func (s *Service) ControllerDomains(ctx context.Context, controller domain.AccountID, offset, limit uint64) ([]string, error) {
	if controller.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidController, "controller must not be the null identity")
	}
	names, err := s.store.ControllerDomains(ctx, controller, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list controller domains")
	}
	return names, nil
}

// Domain returns a registered record with its cumulative reward total.
func (s *Service) Domain(ctx context.Context, name string) (*models.DomainInfo, error) {
	record, err := s.store.Domain(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "domain %q is not registered", name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load domain")
	}
	total, err := s.store.RewardBalance(ctx, name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reward balance")
	}
	return &models.DomainInfo{Record: record, RewardTotal: total}, nil
}

// Info returns the registry's scalar state.
func (s *Service) Info(ctx context.Context) (*models.RegistryInfo, error) {
	fee, err := s.store.Fee(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fee")
	}
	total, err := s.store.TotalDomains(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load total domains")
	}
	return &models.RegistryInfo{Fee: fee, TotalDomains: total}, nil
}

// Events reads back the event log in emission order.
func (s *Service) Events(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	out, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return out, nil
}

func (s *Service) publishRegistration(ctx context.Context, record models.DomainRecord, credits []models.RewardCredit) {
	s.emit(ctx, events.Event{
		Type:       events.TypeDomainRegistered,
		Name:       record.Name,
		Controller: record.Controller,
	})
	for _, credit := range credits {
		s.emit(ctx, events.Event{
			Type:       events.TypeRewardDistributed,
			Name:       credit.Name,
			Controller: credit.Controller,
			Amount:     credit.Amount,
		})
		if s.cache != nil {
			if err := s.cache.CreditReward(ctx, credit.Name, credit.Amount); err != nil {
				s.logger.WarnContext(ctx, "reward cache credit failed",
					"name", credit.Name, "error", err)
			}
		}
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event emission failed",
			"event_type", string(event.Type), "error", err)
	}
}

func (s *Service) failRegistration(err *dErrors.Error) error {
	if s.metrics != nil {
		s.metrics.RegistrationRejected(string(err.Code))
	}
	return err
}
