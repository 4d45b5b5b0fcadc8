// AngelaMos | 2026
// service.go

package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/profile"
	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

var (
	ErrInvalidDay          = errors.New("day outside the journey")
	ErrDayLocked           = errors.New("day is locked")
	ErrDifficultyNotChosen = errors.New("difficulty not chosen")
)

type Service struct {
	store      docstore.Store
	activities *docstore.Collection[Activity]
	progress   *docstore.Collection[Progress]
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(store docstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		activities: docstore.NewCollection[Activity](store, Collection),
		progress:   docstore.NewCollection[Progress](store, ProgressCollection),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func checkDay(day int) error {
	if day < progress.MinDay || day > progress.MaxDay {
		return fmt.Errorf("day %d: %w", day, ErrInvalidDay)
	}
	return nil
}

func pointsFor(a *Activity, day int, d progress.Difficulty) int {
	if a != nil {
		if p := a.Variant(d).Points; p > 0 {
			return p
		}
	}
	return progress.PointsForDay(day, d)
}

// Get returns the curated activity for day, or core.ErrNotFound when the
// day has no curated content.
func (s *Service) Get(ctx context.Context, day int) (*Activity, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}
	a, err := s.activities.Get(ctx, DocID(day))
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Activity, error) {
	out, err := s.activities.List(ctx, docstore.Query{}.Order("day", false))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

// Watch streams the ordered activity list on every change.
func (s *Service) Watch(ctx context.Context, fn func([]Activity)) (docstore.Unsubscribe, error) {
	return s.activities.WatchAll(ctx, docstore.Query{}.Order("day", false), fn)
}

// ForUser returns the learner's view of day after checking the unlock rule.
func (s *Service) ForUser(ctx context.Context, user *profile.User, day int) (*View, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}
	if !progress.IsUnlocked(day, user.CurrentDay, user.Difficulty()) {
		return nil, fmt.Errorf("day %d: %w", day, ErrDayLocked)
	}

	a, err := s.Get(ctx, day)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	done, err := s.IsCompleted(ctx, user.ID, DocID(day))
	if err != nil {
		return nil, err
	}

	view := ToView(a, day, user.Difficulty(), done)
	return &view, nil
}

// Update merges an editor's patch into a day and stamps the audit fields.
func (s *Service) Update(ctx context.Context, day int, req UpdateRequest, editor string) (*Activity, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "activity.update", attribute.Int("activity.day", day))
	defer span.End()

	fields := req.fields()
	fields["id"] = DocID(day)
	fields["day"] = day
	fields["lastUpdated"] = s.now()
	fields["updatedBy"] = editor

	if err := s.activities.Merge(ctx, DocID(day), fields); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("update activity: %w", err)
	}

	return s.Get(ctx, day)
}

// Seed writes activities, keeping existing days unless overwrite is set.
func (s *Service) Seed(ctx context.Context, activities []Activity, overwrite bool) (int, error) {
	written := 0
	for i := range activities {
		a := activities[i]
		if err := checkDay(a.Day); err != nil {
			return written, err
		}
		a.ID = DocID(a.Day)
		if a.LastUpdated.IsZero() {
			a.LastUpdated = s.now()
		}
		if a.UpdatedBy == "" {
			a.UpdatedBy = "seed"
		}

		var err error
		if overwrite {
			err = s.activities.Set(ctx, a.ID, &a)
		} else {
			err = s.activities.Create(ctx, a.ID, &a)
			if errors.Is(err, core.ErrDuplicateKey) {
				continue
			}
		}
		if err != nil {
			return written, fmt.Errorf("seed activity %s: %w", a.ID, err)
		}
		written++
	}
	return written, nil
}

func (s *Service) IsCompleted(ctx context.Context, userID, activityID string) (bool, error) {
	_, err := s.progress.Get(ctx, ProgressID(userID, activityID))
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return true, nil
}

func (s *Service) ListProgress(ctx context.Context, userID string) ([]Progress, error) {
	out, err := s.progress.List(ctx, docstore.Query{}.Equal("user_id", userID).Order("completed_at", false))
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return out, nil
}

func (s *Service) CountCompletions(ctx context.Context) (int, error) {
	out, err := s.store.List(ctx, ProgressCollection, docstore.Query{})
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return len(out), nil
}

// DeleteProgress removes every completion record of a user.
func (s *Service) DeleteProgress(ctx context.Context, userID string) (int, error) {
	records, err := s.ListProgress(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, p := range records {
		if err := s.progress.Delete(ctx, p.ID); err != nil {
			return i, fmt.Errorf("delete progress: %w", err)
		}
	}
	return len(records), nil
}

// graded reports whether a quiz variant carries an answer key. Quizzes saved
// without one are scored like any other activity.
func graded(v Variant) bool {
	return strings.TrimSpace(v.Answer) != ""
}

func isCorrect(v Variant, answer *string) bool {
	if answer == nil || !graded(v) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*answer), strings.TrimSpace(v.Answer))
}

// Complete records a finished day and credits the profile in one
// transaction keyed by user and activity. A repeated completion changes
// nothing and reports AlreadyCompleted.
func (s *Service) Complete(ctx context.Context, userID string, day int, req CompleteRequest) (*CompletionResult, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}

	activityID := DocID(day)
	progressID := ProgressID(userID, activityID)

	ctx, span := core.StartSpan(ctx, "activity.complete",
		attribute.String("user.id", userID),
		attribute.Int("activity.day", day),
	)
	defer span.End()

	var result *CompletionResult
	err := s.store.RunTransaction(ctx, func(_ context.Context, tx docstore.Tx) error {
		result = nil

		snap, err := tx.Get(profile.Collection, userID)
		if err != nil {
			return err
		}
		user, err := docstore.Decode[profile.User](snap)
		if err != nil {
			return err
		}

		if snap, err := tx.Get(ProgressCollection, progressID); err == nil {
			prior, err := docstore.Decode[Progress](snap)
			if err != nil {
				return err
			}
			result = repeated(prior, user)
			return nil
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}

		var curated *Activity
		if snap, err := tx.Get(Collection, activityID); err == nil {
			if curated, err = docstore.Decode[Activity](snap); err != nil {
				return err
			}
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}

		difficulty := user.Difficulty()
		if difficulty == "" {
			return ErrDifficultyNotChosen
		}
		if !progress.IsUnlocked(day, user.CurrentDay, difficulty) {
			return fmt.Errorf("day %d: %w", day, ErrDayLocked)
		}

		activityType := progress.TypePractice
		var correct *bool
		if curated != nil {
			v := curated.Variant(difficulty)
			if v.Type.Valid() {
				activityType = v.Type
			}
			if activityType == progress.TypeQuiz && graded(v) {
				c := isCorrect(v, req.Answer)
				correct = &c
			}
		}
		earned := progress.Score(activityType, pointsFor(curated, day, difficulty), correct == nil || *correct)

		state := user.State()
		transition := progress.Complete(state, day, earned)
		next := transition.Apply(state, day)
		newly := progress.NewlyUnlocked(user.Achievements, next)
		now := s.now()

		record := &Progress{
			ID:                 progressID,
			UserID:             userID,
			ActivityID:         activityID,
			Day:                day,
			Difficulty:         difficulty,
			Score:              earned,
			CorrectFirstAnswer: correct,
			TimeTaken:          req.TimeTaken,
			CompletedAt:        now,
		}
		if err := tx.Create(ProgressCollection, progressID, record); err != nil {
			return err
		}

		fields := map[string]any{
			"current_day":    transition.CurrentDay,
			"total_points":   transition.TotalPoints,
			"completed_days": next.CompletedDays,
			"updated_at":     now,
		}
		if len(newly) > 0 {
			unlockedAt := make(map[string]any, len(newly))
			for _, id := range newly {
				unlockedAt[id] = now
			}
			fields["achievements"] = append(append([]string{}, user.Achievements...), newly...)
			fields["achievement_unlocked_at"] = unlockedAt
		}
		if err := tx.Merge(profile.Collection, userID, fields); err != nil {
			return err
		}

		result = &CompletionResult{
			Completed:          true,
			Recorded:           true,
			ActivityID:         activityID,
			Day:                day,
			PointsEarned:       earned,
			CorrectFirstAnswer: correct,
			CurrentDay:         transition.CurrentDay,
			TotalPoints:        transition.TotalPoints,
			DayAdvanced:        transition.DayAdvanced,
			NewlyUnlocked:      newly,
			CompletedAt:        now,
		}
		return nil
	})

	if errors.Is(err, core.ErrDuplicateKey) {
		return s.completedElsewhere(ctx, userID, progressID)
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("complete activity: %w", err)
	}

	if result.NewlyUnlocked == nil {
		result.NewlyUnlocked = []string{}
	}
	core.AddSpanEvent(ctx, "activity.completed",
		attribute.Int("points.earned", result.PointsEarned),
		attribute.Bool("already_completed", result.AlreadyCompleted),
	)
	return result, nil
}

// completedElsewhere answers a completion that lost the race to a
// concurrent one for the same user and activity.
func (s *Service) completedElsewhere(ctx context.Context, userID, progressID string) (*CompletionResult, error) {
	prior, err := s.progress.Get(ctx, progressID)
	if err != nil {
		return nil, fmt.Errorf("complete activity: %w", err)
	}
	snap, err := s.store.Get(ctx, profile.Collection, userID)
	if err != nil {
		return nil, fmt.Errorf("complete activity: %w", err)
	}
	user, err := docstore.Decode[profile.User](snap)
	if err != nil {
		return nil, fmt.Errorf("complete activity: %w", err)
	}
	return repeated(prior, user), nil
}

func repeated(prior *Progress, user *profile.User) *CompletionResult {
	return &CompletionResult{
		Completed:          true,
		Recorded:           true,
		AlreadyCompleted:   true,
		ActivityID:         prior.ActivityID,
		Day:                prior.Day,
		CorrectFirstAnswer: prior.CorrectFirstAnswer,
		CurrentDay:         user.CurrentDay,
		TotalPoints:        user.TotalPoints,
		NewlyUnlocked:      []string{},
		CompletedAt:        prior.CompletedAt,
	}
}
