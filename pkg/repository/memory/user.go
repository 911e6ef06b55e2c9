package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]*model.User
}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[types.UserID]*model.User),
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func (r *userRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	saved := copyUser(user)
	saved.CreatedAt = now
	saved.UpdatedAt = now
	if existing, ok := r.users[user.ID]; ok {
		saved.CreatedAt = existing.CreatedAt
	}

	r.users[saved.ID] = saved
	return copyUser(saved), nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("user_id", id))
	}
	return copyUser(user), nil
}
