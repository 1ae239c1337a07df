package auth

import (
	"golang.org/x/crypto/bcrypt"

	"namegate/pkg/domain"
)

// Authorizer answers the engine's owner check.
type Authorizer interface {
	IsOwner(account domain.AccountID) bool
}

// StaticAuthorizer recognizes a single owner account fixed at startup.
type StaticAuthorizer struct {
	owner domain.AccountID
}

func NewStaticAuthorizer(owner domain.AccountID) *StaticAuthorizer {
	return &StaticAuthorizer{owner: owner}
}

func (a *StaticAuthorizer) IsOwner(account domain.AccountID) bool {
	return !account.IsNil() && account == a.owner
}

// OwnerSecret compares a presented owner secret against its bcrypt hash.
// Used by the token endpoint to authenticate the owner without storing the
// secret in clear.
type OwnerSecret struct {
	hash []byte
}

func NewOwnerSecret(bcryptHash string) *OwnerSecret {
	return &OwnerSecret{hash: []byte(bcryptHash)}
}

// Verify reports whether the presented secret matches. An empty configured
// hash never matches.
func (o *OwnerSecret) Verify(secret string) bool {
	if len(o.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(o.hash, []byte(secret)) == nil
}
