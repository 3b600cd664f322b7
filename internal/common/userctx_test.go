package common

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestRecipientContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := RecipientFromContext(ctx); ok {
		t.Error("expected no RecipientContext in empty context")
	}

	rc := &RecipientContext{
		RecipientID: "alice@example.com",
		Claims:      jwt.MapClaims{"sub": "alice@example.com"},
	}
	ctx = WithRecipient(ctx, rc)

	got, ok := RecipientFromContext(ctx)
	if !ok {
		t.Fatal("expected RecipientContext to be present")
	}
	if got.RecipientID != "alice@example.com" {
		t.Errorf("RecipientID = %q, want %q", got.RecipientID, "alice@example.com")
	}
}
