// AngelaMos | 2026
// dto.go

package profile

import (
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

type UpdateMeRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

type AdminUpdateRequest struct {
	Name          *string `json:"name,omitempty"           validate:"omitempty,min=1,max=100"`
	CurrentDay    *int    `json:"current_day,omitempty"    validate:"omitempty,min=1"`
	TotalPoints   *int    `json:"total_points,omitempty"   validate:"omitempty,min=0"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
}

type SelectCharacterRequest struct {
	CharacterID string `json:"character_id" validate:"required,max=64"`
}

type SelectDifficultyRequest struct {
	Difficulty string `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
}

// Changes is a partial profile update. Nil fields are left untouched.
type Changes struct {
	Name            *string
	CurrentDay      *int
	TotalPoints     *int
	CharacterID     *string
	DifficultyLevel *progress.Difficulty
	EmailVerified   *bool
	Achievements    []string
	CompletedDays   []int
}

type JourneyResponse struct {
	CurrentDay  int                  `json:"current_day"`
	TotalPoints int                  `json:"total_points"`
	Difficulty  progress.Difficulty  `json:"difficulty,omitempty"`
	Days        []progress.DayStatus `json:"days"`
}

type AchievementStatus struct {
	progress.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

type ReadyEvent struct {
	Profile  *User `json:"profile"`
	TimedOut bool  `json:"timed_out"`
}

type ListParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToAchievementStatuses(u *User) []AchievementStatus {
	state := u.State()
	catalogue := progress.Catalogue()

	out := make([]AchievementStatus, 0, len(catalogue))
	for _, a := range catalogue {
		status := AchievementStatus{Achievement: a, Unlocked: a.Satisfied(state)}
		if status.Unlocked {
			status.UnlockedAt = u.UnlockedAt(a.ID)
		}
		out = append(out, status)
	}
	return out
}

func ToJourney(u *User) JourneyResponse {
	return JourneyResponse{
		CurrentDay:  u.CurrentDay,
		TotalPoints: u.TotalPoints,
		Difficulty:  u.Difficulty(),
		Days:        progress.Journey(u.State()),
	}
}
