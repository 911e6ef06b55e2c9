package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// principal returns the signed in user of ctx
func principal(ctx context.Context) (types.UserID, error) {
	token, err := auth.TokenFromContext(ctx)
	if err != nil || token.IsAnonymous() {
		return "", goerr.Wrap(ErrUnauthenticated, "no signed in user")
	}
	return types.UserID(token.Sub), nil
}
