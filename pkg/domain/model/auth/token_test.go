package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
)

func TestNewToken(t *testing.T) {
	token := auth.NewToken("user-1", "alice@example.com", "Alice")
	gt.NoError(t, token.Validate())
	gt.Bool(t, token.IsExpired()).False()
	gt.Bool(t, token.IsAnonymous()).False()
	gt.Value(t, token.Secret).NotEqual(auth.NewToken("user-1", "", "").Secret)
}

func TestTokenValidate(t *testing.T) {
	token := auth.NewToken("user-1", "alice@example.com", "Alice")
	token.ExpiresAt = time.Now().Add(-time.Minute)
	gt.Bool(t, token.IsExpired()).True()
	gt.Error(t, token.Validate())

	gt.Error(t, (&auth.Token{ID: auth.NewTokenID(), Secret: auth.NewTokenSecret()}).Validate())
}

func TestTokenContext(t *testing.T) {
	_, err := auth.TokenFromContext(context.Background())
	gt.Error(t, err)

	token := auth.NewToken("user-1", "alice@example.com", "Alice")
	got, err := auth.TokenFromContext(auth.ContextWithToken(context.Background(), token))
	gt.NoError(t, err).Required()
	gt.Value(t, got.Sub).Equal("user-1")

	gt.Bool(t, auth.NewAnonymousUser().IsAnonymous()).True()
}
