// Package events is the registry's append-only event log.
//
// The engine emits one DomainRegistered event per registration, one
// RewardDistributed event per credited ancestor (in decomposer order), and
// one FeeChanged event per fee update. The in-process store is the
// authoritative, queryable log; Kafka fan-out is best-effort and never fails
// the emitting operation.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"namegate/pkg/domain"
)

// Type classifies an event.
type Type string

const (
	TypeDomainRegistered  Type = "domain_registered"
	TypeFeeChanged        Type = "fee_changed"
	TypeRewardDistributed Type = "reward_distributed"
)

// Event is one entry of the log.
//
// Field usage per type:
//   - domain_registered: Name, Controller
//   - reward_distributed: Name (credited ancestor), Controller (its
//     controller), Amount (reward)
//   - fee_changed: Amount (new fee)
type Event struct {
	ID         uuid.UUID        `json:"id"`
	Sequence   uint64           `json:"sequence"`
	Type       Type             `json:"type"`
	At         time.Time        `json:"at"`
	Name       string           `json:"name,omitempty"`
	Controller domain.AccountID `json:"controller,omitempty"`
	Amount     uint64           `json:"amount,omitempty"`
}

// Filter selects events on reads. Zero fields match everything; reads always
// return emission order.
type Filter struct {
	Type       Type
	Name       string
	Controller domain.AccountID
}

// Matches reports whether the event passes the filter.
func (f Filter) Matches(e Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Name != "" && e.Name != f.Name {
		return false
	}
	if !f.Controller.IsNil() && e.Controller != f.Controller {
		return false
	}
	return true
}

// Store is an append-only, emission-ordered event log.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, filter Filter) ([]Event, error)
}
