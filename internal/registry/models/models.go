// Package models holds the registry's persisted and result types.
package models

import (
	"time"

	"namegate/pkg/domain"
)

// DomainRecord is the persisted state of one registered name. Once a name is
// registered its record is never removed or overwritten.
type DomainRecord struct {
	Name         string
	Controller   domain.AccountID
	Registered   bool
	RegisteredAt time.Time
}

// RewardCredit is one ancestor payout computed during a registration. Credits
// are ordered root-first, matching the decomposer's output.
type RewardCredit struct {
	Name       string
	Controller domain.AccountID
	Amount     uint64
}

// Registration is the single-commit unit a store applies atomically: the new
// record, its controller-index append, the reward-ledger credits, and the
// total-domains increment.
type Registration struct {
	Record  DomainRecord
	Credits []RewardCredit
}

// RegistrationResult reports a successful registration back to the caller.
type RegistrationResult struct {
	Record           DomainRecord
	Credits          []RewardCredit
	Fee              uint64
	TotalDistributed uint64
	OwnerShare       uint64
	Refund           uint64
}

// DomainInfo combines a record with its cumulative reward balance.
type DomainInfo struct {
	Record      DomainRecord
	RewardTotal uint64
}

// RegistryInfo is the scalar registry state exposed to reads.
type RegistryInfo struct {
	Fee          uint64
	TotalDomains uint64
}
