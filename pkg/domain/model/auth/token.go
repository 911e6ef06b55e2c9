package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// TokenLifetime is how long a session token stays valid after sign in
	TokenLifetime = 7 * 24 * time.Hour

	// AnonymousSub is the subject used when authentication is disabled
	AnonymousSub = "anonymous"
)

// TokenID is the public half of a session token. It is stored in a cookie
// and used as the lookup key.
type TokenID string

func NewTokenID() TokenID {
	return TokenID(uuid.Must(uuid.NewV7()).String())
}

func (x TokenID) String() string { return string(x) }

func (x TokenID) Validate() error {
	if x == "" {
		return goerr.New("token ID is empty")
	}
	return nil
}

// TokenSecret is compared against the stored token on every request
type TokenSecret string

func NewTokenSecret() TokenSecret {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return TokenSecret(hex.EncodeToString(buf))
}

func (x TokenSecret) String() string { return string(x) }

// Token is a session issued after the identity provider authenticated the
// principal
type Token struct {
	ID        TokenID     `json:"id"`
	Secret    TokenSecret `json:"secret" masq:"secret"`
	Sub       string      `json:"sub"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	ExpiresAt time.Time   `json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewToken(sub, email, name string) *Token {
	now := time.Now()
	return &Token{
		ID:        NewTokenID(),
		Secret:    NewTokenSecret(),
		Sub:       sub,
		Email:     email,
		Name:      name,
		ExpiresAt: now.Add(TokenLifetime),
		CreatedAt: now,
	}
}

// NewAnonymousUser returns a token for requests that carry no session
func NewAnonymousUser() *Token {
	return &Token{
		ID:   TokenID(AnonymousSub),
		Sub:  AnonymousSub,
		Name: "Anonymous",
	}
}

// IsAnonymous reports whether the token represents no signed in principal
func (x *Token) IsAnonymous() bool {
	return x == nil || x.Sub == AnonymousSub
}

func (x *Token) IsExpired() bool {
	return !x.ExpiresAt.IsZero() && time.Now().After(x.ExpiresAt)
}

// Validate checks the token carries an identity and has not expired
func (x *Token) Validate() error {
	if x.ID == "" {
		return goerr.New("token ID is empty")
	}
	if x.Secret == "" {
		return goerr.New("token secret is empty", goerr.V("token_id", x.ID))
	}
	if x.Sub == "" {
		return goerr.New("token subject is empty", goerr.V("token_id", x.ID))
	}
	if x.IsExpired() {
		return goerr.New("token is expired", goerr.V("token_id", x.ID), goerr.V("expires_at", x.ExpiresAt))
	}
	return nil
}

type ctxTokenKey struct{}

func ContextWithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, token)
}

// TokenFromContext returns the token set by ContextWithToken
func TokenFromContext(ctx context.Context) (*Token, error) {
	token, ok := ctx.Value(ctxTokenKey{}).(*Token)
	if !ok || token == nil {
		return nil, goerr.New("token not found in context")
	}
	return token, nil
}
