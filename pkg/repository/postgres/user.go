package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user")
	}

	now := time.Now().UTC()
	rec := &userRecord{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
		}).
		Create(rec).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert user", goerr.V("user_id", user.ID))
	}

	return r.Get(ctx, user.ID)
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get user", goerr.V("user_id", id))
	}
	return rec.toModel(), nil
}
