package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// NoAuthnUseCase signs every request in as one fixed user (for development/testing)
type NoAuthnUseCase struct {
	repo  interfaces.Repository
	sub   string
	email string
	name  string

	registerOnce sync.Once
	registerErr  error
}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance with specified user info
func NewNoAuthnUseCase(repo interfaces.Repository, sub, email, name string) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		repo:  repo,
		sub:   sub,
		email: email,
		name:  name,
	}
}

// GetAuthURL returns the root path, there is no provider to visit
func (uc *NoAuthnUseCase) GetAuthURL(state string) string {
	return "/"
}

func (uc *NoAuthnUseCase) HandleCallback(ctx context.Context, code string) (*auth.Token, error) {
	return uc.token(ctx)
}

// ValidateToken always returns a token for the specified user
func (uc *NoAuthnUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	return uc.token(ctx)
}

func (uc *NoAuthnUseCase) ValidateBearer(ctx context.Context, rawJWT string) (*auth.Token, error) {
	return uc.token(ctx)
}

// Logout does nothing in no-auth mode
func (uc *NoAuthnUseCase) Logout(ctx context.Context, tokenID auth.TokenID) error {
	return nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}

// token records the fixed user once so owned records satisfy foreign keys
func (uc *NoAuthnUseCase) token(ctx context.Context) (*auth.Token, error) {
	uc.registerOnce.Do(func() {
		_, err := uc.repo.User().Upsert(ctx, &model.User{
			ID:    types.UserID(uc.sub),
			Email: uc.email,
			Name:  uc.name,
		})
		if err != nil {
			uc.registerErr = goerr.Wrap(err, "failed to record no-auth user", goerr.V(UserIDKey, uc.sub))
		}
	})
	if uc.registerErr != nil {
		return nil, uc.registerErr
	}

	return auth.NewToken(uc.sub, uc.email, uc.name), nil
}
