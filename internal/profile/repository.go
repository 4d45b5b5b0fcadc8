// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// Update reads the profile inside a transaction and merges the fields
	// returned by mutate. An empty field map writes nothing.
	Update(
		ctx context.Context,
		id string,
		mutate func(u *User) (map[string]any, error),
	) (*User, error)
	Replace(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	Watch(ctx context.Context, id string, fn func(*User)) (docstore.Unsubscribe, error)
}

type repository struct {
	users *docstore.Collection[User]
}

func NewRepository(store docstore.Store) Repository {
	return &repository{users: docstore.NewCollection[User](store, Collection)}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	if err := r.users.Create(ctx, user.ID, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := r.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	mutate func(u *User) (map[string]any, error),
) (*User, error) {
	var updated *User

	err := r.users.Store().RunTransaction(ctx, func(_ context.Context, tx docstore.Tx) error {
		snap, err := tx.Get(Collection, id)
		if err != nil {
			return err
		}
		user, err := docstore.Decode[User](snap)
		if err != nil {
			return err
		}

		fields, err := mutate(user)
		if err != nil {
			return err
		}
		updated = user
		if len(fields) == 0 {
			return nil
		}

		user.UpdatedAt = time.Now().UTC()
		fields["updated_at"] = user.UpdatedAt
		return tx.Merge(Collection, id, fields)
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return updated, nil
}

func (r *repository) Replace(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()
	if err := r.users.Set(ctx, user.ID, user); err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	users, err := r.users.List(ctx, docstore.Query{}.Order("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *repository) Watch(
	ctx context.Context,
	id string,
	fn func(*User),
) (docstore.Unsubscribe, error) {
	unsub, err := r.users.Watch(ctx, id, fn)
	if err != nil {
		return nil, fmt.Errorf("watch user: %w", err)
	}
	return unsub, nil
}
