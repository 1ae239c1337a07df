// Package domain holds shared domain primitives: typed identifiers that are
// validated once at trust boundaries and passed around as values afterwards.
package domain

import (
	"github.com/google/uuid"

	dErrors "namegate/pkg/domain-errors"
)

// AccountID identifies a ledger account. Controllers, payers, and the registry
// owner are all accounts. The zero value is the null identity and is never a
// valid controller.
type AccountID uuid.UUID

// NilAccountID is the null identity.
var NilAccountID = AccountID(uuid.Nil)

// ParseAccountID validates and returns an AccountID. IDs must be valid,
// non-nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return NilAccountID, dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return NilAccountID, dErrors.Wrap(err, dErrors.CodeInvalidInput, "account id must be a valid UUID")
	}
	if u == uuid.Nil {
		return NilAccountID, dErrors.New(dErrors.CodeInvalidInput, "account id must not be the nil UUID")
	}
	return AccountID(u), nil
}

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

// IsNil reports whether the id is the null identity.
func (a AccountID) IsNil() bool {
	return uuid.UUID(a) == uuid.Nil
}

// MarshalText renders the id as its canonical UUID string for JSON and log
// encoding.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts a UUID string; the empty string decodes to the null
// identity so optional fields can be omitted.
func (a *AccountID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = NilAccountID
		return nil
	}
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*a = AccountID(u)
	return nil
}
