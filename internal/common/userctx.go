package common

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// RecipientContext holds the identity resolved from a verified bearer
// token. This supply engine never issues tokens — the "sub" claim is
// produced by an external identity provider and trusted as-is, so the
// context carries only the recipient ID the rest of the system addresses
// Questions, Assignments, and Jobs by, plus the raw claims for the /me
// echo endpoint.
type RecipientContext struct {
	RecipientID string
	Claims      jwt.MapClaims
}

type contextKey int

const recipientContextKey contextKey = iota

// WithRecipient stores a RecipientContext in the request context.
func WithRecipient(ctx context.Context, rc *RecipientContext) context.Context {
	return context.WithValue(ctx, recipientContextKey, rc)
}

// RecipientFromContext retrieves the RecipientContext from context.
func RecipientFromContext(ctx context.Context) (*RecipientContext, bool) {
	rc, ok := ctx.Value(recipientContextKey).(*RecipientContext)
	return rc, ok
}
