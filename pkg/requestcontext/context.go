// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services and stores read them without importing
// net/http. Tests inject fixed values (notably a fixed clock via WithTime) to
// keep time-dependent assertions deterministic.
package requestcontext

import (
	"context"
	"time"

	"namegate/pkg/domain"
)

type (
	accountIDKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithAccountID stores the authenticated caller's account id.
func WithAccountID(ctx context.Context, id domain.AccountID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, id)
}

// AccountID returns the authenticated caller, or the nil account when the
// request is unauthenticated.
func AccountID(ctx context.Context) domain.AccountID {
	if id, ok := ctx.Value(accountIDKey{}).(domain.AccountID); ok {
		return id
	}
	return domain.NilAccountID
}

// WithRequestID stores the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithTime pins the request time. Middleware sets it once per request;
// tests use it to freeze the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request time when pinned, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
