package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type UserUseCase struct {
	repo interfaces.Repository
}

func NewUserUseCase(repo interfaces.Repository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// Me returns the record of the signed in user. A user known only from the
// session token is reported from the token claims.
func (uc *UserUseCase) Me(ctx context.Context) (*model.User, error) {
	token, err := auth.TokenFromContext(ctx)
	if err != nil || token.IsAnonymous() {
		return nil, goerr.Wrap(ErrUnauthenticated, "no signed in user")
	}

	user, err := uc.repo.User().Get(ctx, types.UserID(token.Sub))
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &model.User{
				ID:    types.UserID(token.Sub),
				Email: token.Email,
				Name:  token.Name,
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V(UserIDKey, token.Sub))
	}
	return user, nil
}
