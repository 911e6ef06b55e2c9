package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"gorm.io/gorm/clause"
)

func (p *Postgres) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(newTokenRecord(token)).Error
	if err != nil {
		return goerr.Wrap(err, "failed to put token", goerr.V("token_id", token.ID))
	}
	return nil
}

func (p *Postgres) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	var rec tokenRecord
	if err := p.db.WithContext(ctx).Where("id = ?", tokenID.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get token", goerr.V("token_id", tokenID))
	}
	return rec.toModel(), nil
}

func (p *Postgres) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	res := p.db.WithContext(ctx).Where("id = ?", tokenID.String()).Delete(&tokenRecord{})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete token", goerr.V("token_id", tokenID))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	return nil
}
