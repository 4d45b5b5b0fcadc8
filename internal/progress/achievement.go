// AngelaMos | 2026
// achievement.go

package progress

import (
	"slices"
)

type Measure string

const (
	MeasureDaysCompleted Measure = "days_completed"
	MeasureTotalPoints   Measure = "total_points"
)

type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Measure     Measure    `json:"measure"`
	Requirement int        `json:"requirement"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
}

var catalogue = []Achievement{
	{
		ID:          "first-step",
		Title:       "Te Tīmatanga",
		Description: "Complete your first day",
		Icon:        "seedling",
		Measure:     MeasureDaysCompleted,
		Requirement: 1,
	},
	{
		ID:          "week-one",
		Title:       "Kotahi Wiki",
		Description: "Complete seven days",
		Icon:        "fern",
		Measure:     MeasureDaysCompleted,
		Requirement: 7,
	},
	{
		ID:          "fortnight",
		Title:       "Rua Wiki",
		Description: "Complete fourteen days",
		Icon:        "koru",
		Measure:     MeasureDaysCompleted,
		Requirement: 14,
	},
	{
		ID:          "three-weeks",
		Title:       "Toru Wiki",
		Description: "Complete twenty-one days",
		Icon:        "waka",
		Measure:     MeasureDaysCompleted,
		Requirement: 21,
	},
	{
		ID:          "mahuru-champion",
		Title:       "Toa o Mahuru",
		Description: "Reach the final day of the journey",
		Icon:        "pounamu",
		Measure:     MeasureDaysCompleted,
		Requirement: 29,
	},
	{
		ID:          "points-50",
		Title:       "Kaikohi",
		Description: "Earn 50 points",
		Icon:        "star",
		Measure:     MeasureTotalPoints,
		Requirement: 50,
	},
	{
		ID:          "points-150",
		Title:       "Kaihāpai",
		Description: "Earn 150 points",
		Icon:        "stars",
		Measure:     MeasureTotalPoints,
		Requirement: 150,
	},
	{
		ID:          "points-300",
		Title:       "Pūkenga",
		Description: "Earn 300 points",
		Icon:        "trophy",
		Measure:     MeasureTotalPoints,
		Requirement: 300,
	},
	{
		ID:          "points-600",
		Title:       "Tohunga",
		Description: "Earn 600 points",
		Icon:        "crown",
		Measure:     MeasureTotalPoints,
		Requirement: 600,
	},
	{
		ID:          "advanced-week",
		Title:       "Kaiwhakatere",
		Description: "Complete seven days on advanced",
		Icon:        "compass",
		Measure:     MeasureDaysCompleted,
		Requirement: 7,
		Difficulty:  Advanced,
	},
}

// Catalogue returns a copy of the fixed achievement definitions.
func Catalogue() []Achievement {
	return slices.Clone(catalogue)
}

func (a Achievement) Satisfied(s State) bool {
	if a.Difficulty != "" && a.Difficulty != s.Difficulty {
		return false
	}

	switch a.Measure {
	case MeasureDaysCompleted:
		return s.DaysCompleted() >= a.Requirement
	case MeasureTotalPoints:
		return s.TotalPoints >= a.Requirement
	default:
		return false
	}
}

// Unlocked lists the ids of every satisfied achievement in catalogue order.
func Unlocked(s State) []string {
	var ids []string
	for _, a := range catalogue {
		if a.Satisfied(s) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// NewlyUnlocked lists satisfied achievements missing from recorded.
func NewlyUnlocked(recorded []string, s State) []string {
	var ids []string
	for _, id := range Unlocked(s) {
		if !slices.Contains(recorded, id) {
			ids = append(ids, id)
		}
	}
	return ids
}
