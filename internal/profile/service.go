// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

var (
	ErrCharacterLocked  = errors.New("character already chosen")
	ErrUnknownCharacter = errors.New("unknown character")
)

type CharacterLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo       Repository
	characters CharacterLookup
	logger     *slog.Logger
}

func NewService(repo Repository, characters CharacterLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, characters: characters, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID)
}

// Create writes the initial profile. An existing profile is left as is.
func (s *Service) Create(ctx context.Context, userID, email, name string) error {
	user := NewUser(userID, strings.ToLower(email), name, time.Now().UTC())
	err := s.repo.Create(ctx, user)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil
	}
	return err
}

func (s *Service) EnsureProfile(ctx context.Context, userID, email, name string) error {
	_, err := s.Load(ctx, userID, email, name)
	return err
}

// Load returns the profile, creating it when the sign-up write never landed.
func (s *Service) Load(ctx context.Context, userID, email, name string) (*User, error) {
	user, err := s.Get(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	s.logger.Info("profile missing, creating", "user_id", userID)
	if err := s.Create(ctx, userID, email, name); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// applyChanges folds c into u and returns the fields that changed.
// current_day is clamped to the journey and, like total_points, never
// moves backwards.
func applyChanges(u *User, c Changes) map[string]any {
	fields := make(map[string]any)

	if c.Name != nil && *c.Name != u.Name {
		u.Name = *c.Name
		fields["name"] = u.Name
	}
	if c.CurrentDay != nil {
		day := progress.ClampDay(*c.CurrentDay)
		if day > u.CurrentDay {
			u.CurrentDay = day
			fields["current_day"] = day
		}
	}
	if c.TotalPoints != nil && *c.TotalPoints > u.TotalPoints {
		u.TotalPoints = *c.TotalPoints
		fields["total_points"] = u.TotalPoints
	}
	if c.CharacterID != nil && (u.CharacterID == nil || *u.CharacterID != *c.CharacterID) {
		id := *c.CharacterID
		u.CharacterID = &id
		fields["character_id"] = id
	}
	if c.DifficultyLevel != nil && u.Difficulty() != *c.DifficultyLevel {
		d := *c.DifficultyLevel
		u.DifficultyLevel = &d
		fields["difficulty_level"] = d
	}
	if c.EmailVerified != nil && *c.EmailVerified != u.EmailVerified {
		u.EmailVerified = *c.EmailVerified
		fields["email_verified"] = u.EmailVerified
	}
	if merged, grew := union(u.Achievements, c.Achievements); grew {
		u.Achievements = merged
		fields["achievements"] = merged
	}
	if merged, grew := unionDays(u.CompletedDays, c.CompletedDays); grew {
		u.CompletedDays = merged
		fields["completed_days"] = merged
	}

	return fields
}

func union(have, add []string) ([]string, bool) {
	out := slices.Clone(have)
	for _, v := range add {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, len(out) > len(have)
}

func unionDays(have, add []int) ([]int, bool) {
	out := slices.Clone(have)
	for _, d := range add {
		if d >= progress.MinDay && d <= progress.MaxDay && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out, len(out) > len(have)
}

// Update merges c into the profile and returns the full document.
func (s *Service) Update(ctx context.Context, userID string, c Changes) (*User, error) {
	return s.repo.Update(ctx, userID, func(u *User) (map[string]any, error) {
		return applyChanges(u, c), nil
	})
}

func (s *Service) SelectCharacter(ctx context.Context, userID, characterID string) (*User, error) {
	ok, err := s.characters.Exists(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("select character: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("select character %q: %w", characterID, ErrUnknownCharacter)
	}

	return s.repo.Update(ctx, userID, func(u *User) (map[string]any, error) {
		if u.CharacterID != nil && *u.CharacterID != characterID {
			return nil, ErrCharacterLocked
		}
		return applyChanges(u, Changes{CharacterID: &characterID}), nil
	})
}

func (s *Service) SelectDifficulty(ctx context.Context, userID, difficulty string) (*User, error) {
	d, err := progress.ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, userID, Changes{DifficultyLevel: &d})
}

func (s *Service) MirrorEmailVerified(ctx context.Context, userID string, verified bool) error {
	_, err := s.Update(ctx, userID, Changes{EmailVerified: &verified})
	return err
}

// Listen calls fn with the profile now and after every change; fn receives
// nil while the profile does not exist.
func (s *Service) Listen(
	ctx context.Context,
	userID string,
	fn func(*User),
) (docstore.Unsubscribe, error) {
	return s.repo.Watch(ctx, userID, fn)
}

// ResetProgress puts a profile back at day one. Used by development tooling.
func (s *Service) ResetProgress(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.CurrentDay = progress.MinDay
	user.TotalPoints = 0
	user.Achievements = []string{}
	user.AchievementUnlockedAt = nil
	user.CompletedDays = []int{}

	if err := s.repo.Replace(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]User, int, error) {
	params.Normalize()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	total := len(users)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)

	return users[start:end], total, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
