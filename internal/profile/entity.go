// AngelaMos | 2026
// entity.go

package profile

import (
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

const Collection = "users"

// User is the learner profile, keyed by the identity provider uid.
type User struct {
	ID                    string               `json:"id"                                firestore:"id"`
	Email                 string               `json:"email"                             firestore:"email"`
	Name                  string               `json:"name"                              firestore:"name"`
	CharacterID           *string              `json:"character_id"                      firestore:"character_id"`
	DifficultyLevel       *progress.Difficulty `json:"difficulty_level"                  firestore:"difficulty_level"`
	CurrentDay            int                  `json:"current_day"                       firestore:"current_day"`
	TotalPoints           int                  `json:"total_points"                      firestore:"total_points"`
	Achievements          []string             `json:"achievements"                      firestore:"achievements"`
	AchievementUnlockedAt map[string]time.Time `json:"achievement_unlocked_at,omitempty" firestore:"achievement_unlocked_at,omitempty"`
	CompletedDays         []int                `json:"completed_days"                    firestore:"completed_days"`
	EmailVerified         bool                 `json:"email_verified"                    firestore:"email_verified"`
	CreatedAt             time.Time            `json:"created_at"                        firestore:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"                        firestore:"updated_at"`
}

func NewUser(id, email, name string, now time.Time) *User {
	return &User{
		ID:            id,
		Email:         email,
		Name:          name,
		CurrentDay:    progress.MinDay,
		Achievements:  []string{},
		CompletedDays: []int{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (u *User) Difficulty() progress.Difficulty {
	if u.DifficultyLevel == nil {
		return ""
	}
	return *u.DifficultyLevel
}

func (u *User) State() progress.State {
	return progress.State{
		CurrentDay:    u.CurrentDay,
		TotalPoints:   u.TotalPoints,
		Difficulty:    u.Difficulty(),
		CompletedDays: u.CompletedDays,
	}
}

// UnlockedAt reports when an achievement was recorded, if it was.
func (u *User) UnlockedAt(id string) *time.Time {
	at, ok := u.AchievementUnlockedAt[id]
	if !ok {
		return nil
	}
	return &at
}
