// Package auth provides caller authentication and the owner-authorization
// check consumed by the registry engine.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// Claims are the JWT claims carried by access tokens. The subject is the
// caller's account id.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// JWTService signs and validates HMAC access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

func NewJWTService(signingKey, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// IssueToken mints an access token for an account.
func (s *JWTService) IssueToken(account domain.AccountID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID: account.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken returns the caller's account id for a valid token.
func (s *JWTService) ValidateToken(tokenString string) (domain.AccountID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.NilAccountID, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.NilAccountID, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.NilAccountID, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	account, err := domain.ParseAccountID(claims.AccountID)
	if err != nil {
		return domain.NilAccountID, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return account, nil
}
