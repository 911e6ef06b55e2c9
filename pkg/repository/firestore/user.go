package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userRepository struct {
	client *firestore.Client
	col    collections
}

func (r *userRepository) doc(id types.UserID) *firestore.DocumentRef {
	return r.client.Collection(r.col.name(CollectionUsers)).Doc(id.String())
}

func (r *userRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user")
	}

	docRef := r.doc(user.ID)
	saved := *user

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		saved.CreatedAt = now
		saved.UpdatedAt = now

		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get user")
		}
		if err == nil {
			var existing model.User
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode user")
			}
			saved.CreatedAt = existing.CreatedAt
		}

		return tx.Set(docRef, &saved)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert user", goerr.V("user_id", user.ID))
	}

	return &saved, nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("user_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", id))
	}

	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("user_id", id))
	}
	return &user, nil
}
