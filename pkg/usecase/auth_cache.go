package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
)

const (
	authCacheTTL = 5 * time.Minute

	bearerCachePrefix = "bearer:"
)

type cachedToken struct {
	token     *auth.Token
	expiresAt time.Time
}

// authCache keeps validated tokens for authCacheTTL. Session tokens are keyed
// by their ID, bearer tokens by a digest of the raw JWT.
type authCache struct {
	cache sync.Map
	now   func() time.Time
}

func newAuthCache() *authCache {
	return &authCache{now: time.Now}
}

func (c *authCache) get(key auth.TokenID) (*auth.Token, bool) {
	val, ok := c.cache.Load(key)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedToken)
	if c.now().After(cached.expiresAt) {
		c.cache.Delete(key)
		return nil, false
	}

	return cached.token, true
}

func (c *authCache) set(key auth.TokenID, token *auth.Token) {
	expiresAt := c.now().Add(authCacheTTL)
	if !token.ExpiresAt.IsZero() && token.ExpiresAt.Before(expiresAt) {
		expiresAt = token.ExpiresAt
	}
	c.cache.Store(key, &cachedToken{
		token:     token,
		expiresAt: expiresAt,
	})
}

func (c *authCache) remove(key auth.TokenID) {
	c.cache.Delete(key)
}

func bearerCacheKey(rawJWT string) auth.TokenID {
	sum := sha256.Sum256([]byte(rawJWT))
	return auth.TokenID(bearerCachePrefix + hex.EncodeToString(sum[:]))
}

// validateTokenWithCache validates a session token, consulting the cache
// before the repository
func (uc *AuthUseCase) validateTokenWithCache(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	if token, ok := uc.cache.get(tokenID); ok {
		if token.Secret != tokenSecret {
			return nil, goerr.Wrap(ErrUnauthenticated, "invalid token secret")
		}
		if token.IsExpired() {
			uc.cache.remove(tokenID)
			return nil, goerr.Wrap(ErrUnauthenticated, "token expired")
		}
		return token, nil
	}

	token, err := uc.repo.GetToken(ctx, tokenID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get token from repository")
	}

	if token.Secret != tokenSecret {
		return nil, goerr.Wrap(ErrUnauthenticated, "invalid token secret")
	}

	if token.IsExpired() {
		if err := uc.repo.DeleteToken(ctx, tokenID); err != nil {
			return nil, goerr.Wrap(err, "failed to delete expired token", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(ErrUnauthenticated, "token expired")
	}

	uc.cache.set(tokenID, token)
	return token, nil
}

// validateBearerWithCache verifies a bearer JWT and records its user on the
// first sighting
func (uc *AuthUseCase) validateBearerWithCache(ctx context.Context, rawJWT string) (*auth.Token, error) {
	key := bearerCacheKey(rawJWT)
	if token, ok := uc.cache.get(key); ok {
		return token, nil
	}

	claims, err := uc.decodeJWT(ctx, rawJWT)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "invalid bearer token", goerr.V("reason", err.Error()))
	}

	if err := uc.upsertUser(ctx, claims); err != nil {
		return nil, err
	}

	now := uc.cache.now()
	token := &auth.Token{
		ID:        key,
		Sub:       claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt,
		CreatedAt: now,
	}
	uc.cache.set(key, token)

	return token, nil
}
