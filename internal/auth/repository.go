// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

type Repository interface {
	Create(ctx context.Context, session *Session) error
	FindByHash(ctx context.Context, tokenHash string) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	UpdateProviderToken(ctx context.Context, id, providerRT string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	GetActiveSessionsForUser(ctx context.Context, userID string) ([]Session, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	sessions *docstore.Collection[Session]
}

func NewRepository(store docstore.Store) Repository {
	return &repository{
		sessions: docstore.NewCollection[Session](store, SessionsCollection),
	}
}

func (r *repository) Create(ctx context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if err := r.sessions.Create(ctx, session.ID, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*Session, error) {
	found, err := r.sessions.List(ctx, docstore.Query{Limit: 1}.Equal("token_hash", tokenHash))
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
	}
	return &found[0], nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Session, error) {
	session, err := r.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

// MarkAsUsed fails with core.ErrNotFound when the session is missing or was
// already spent, so two concurrent refreshes cannot both rotate it.
func (r *repository) MarkAsUsed(ctx context.Context, id, replacedByID string) error {
	store := r.sessions.Store()

	err := store.RunTransaction(ctx, func(_ context.Context, tx docstore.Tx) error {
		snap, err := tx.Get(SessionsCollection, id)
		if err != nil {
			return err
		}
		current, err := docstore.Decode[Session](snap)
		if err != nil {
			return err
		}
		if current.IsUsed {
			return core.ErrNotFound
		}
		return tx.Merge(SessionsCollection, id, map[string]any{
			"is_used":        true,
			"used_at":        time.Now().UTC(),
			"replaced_by_id": replacedByID,
		})
	})
	if err != nil {
		return fmt.Errorf("mark session as used: %w", err)
	}
	return nil
}

func (r *repository) UpdateProviderToken(ctx context.Context, id, providerRT string) error {
	err := r.sessions.Merge(ctx, id, map[string]any{"provider_refresh_token": providerRT})
	if err != nil {
		return fmt.Errorf("update provider token: %w", err)
	}
	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	session, err := r.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if session.IsRevoked() {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}
	return r.revoke(ctx, session.ID)
}

func (r *repository) revoke(ctx context.Context, id string) error {
	if err := r.sessions.Merge(ctx, id, map[string]any{"revoked_at": time.Now().UTC()}); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *repository) revokeWhere(ctx context.Context, field, value string) error {
	found, err := r.sessions.List(ctx, docstore.Query{}.Equal(field, value))
	if err != nil {
		return err
	}
	for _, s := range found {
		if s.IsRevoked() {
			continue
		}
		if err := r.revoke(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) RevokeByFamilyID(ctx context.Context, familyID string) error {
	if err := r.revokeWhere(ctx, "family_id", familyID); err != nil {
		return fmt.Errorf("revoke session family: %w", err)
	}
	return nil
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := r.revokeWhere(ctx, "user_id", userID); err != nil {
		return fmt.Errorf("revoke all user sessions: %w", err)
	}
	return nil
}

func (r *repository) GetActiveSessionsForUser(ctx context.Context, userID string) ([]Session, error) {
	found, err := r.sessions.List(ctx, docstore.Query{}.Equal("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}

	active := make([]Session, 0, len(found))
	for _, s := range found {
		if s.IsValid() {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	return active, nil
}

// DeleteExpired removes sessions that expired more than a day ago.
func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	found, err := r.sessions.List(ctx, docstore.Query{})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var deleted int64
	for _, s := range found {
		if !s.ExpiresAt.Before(cutoff) {
			continue
		}
		if err := r.sessions.Delete(ctx, s.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			return deleted, fmt.Errorf("delete expired sessions: %w", err)
		}
		deleted++
	}

	return deleted, nil
}
