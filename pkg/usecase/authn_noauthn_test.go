package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

func TestNoAuthnUseCase(t *testing.T) {
	repo := memory.New()
	sub := "dev-user"
	email := "dev@example.com"
	name := "Dev User"

	uc := usecase.NewNoAuthnUseCase(repo, sub, email, name)

	t.Run("ValidateToken returns specified user token", func(t *testing.T) {
		ctx := context.Background()
		token, err := uc.ValidateToken(ctx, "", "")
		gt.NoError(t, err).Required()

		gt.Value(t, token.Sub).Equal(sub)
		gt.Value(t, token.Email).Equal(email)
		gt.Value(t, token.Name).Equal(name)
	})

	t.Run("ValidateBearer returns specified user token", func(t *testing.T) {
		token, err := uc.ValidateBearer(context.Background(), "not-a-jwt")
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal(sub)
	})

	t.Run("user is recorded", func(t *testing.T) {
		user, err := repo.User().Get(context.Background(), types.UserID(sub))
		gt.NoError(t, err).Required()
		gt.Value(t, user.Name).Equal(name)
	})

	t.Run("HandleCallback returns specified user token", func(t *testing.T) {
		token, err := uc.HandleCallback(context.Background(), "dummy-code")
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal(sub)
	})

	t.Run("IsNoAuthn returns true", func(t *testing.T) {
		gt.Bool(t, uc.IsNoAuthn()).True()
	})

	t.Run("GetAuthURL returns root path", func(t *testing.T) {
		gt.Value(t, uc.GetAuthURL("state")).Equal("/")
	})

	t.Run("Logout does nothing", func(t *testing.T) {
		gt.NoError(t, uc.Logout(context.Background(), "token-id")).Required()
	})
}

func TestNoAuthnUseCaseImplementsInterface(t *testing.T) {
	var _ usecase.AuthUseCaseInterface = usecase.NewNoAuthnUseCase(memory.New(), "sub", "email", "name")
}
