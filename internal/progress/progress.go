// AngelaMos | 2026
// progress.go

// Package progress derives unlock, scoring and achievement state from a
// profile snapshot. Everything here is pure.
package progress

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	MinDay = 1
	MaxDay = 30
)

var ErrInvalidDifficulty = errors.New("invalid difficulty")

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	return slices.Contains(Difficulties, d)
}

// Multiplier scales the tiered points of days without curated content.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case Intermediate:
		return 1.5
	case Advanced:
		return 2
	default:
		return 1
	}
}

// State is the slice of a profile the derived views depend on.
type State struct {
	CurrentDay    int
	TotalPoints   int
	Difficulty    Difficulty
	CompletedDays []int
}

// DaysCompleted is the measure achievements use: days behind the frontier.
func (s State) DaysCompleted() int {
	n := ClampDay(s.CurrentDay) - 1
	if n < 0 {
		return 0
	}
	return n
}

func ClampDay(day int) int {
	return min(max(day, MinDay), MaxDay)
}

// IsUnlocked is the single unlock rule shared by the journey map and the
// activity gate: d <= current_day, plus current_day+1 for advanced users.
func IsUnlocked(day, currentDay int, difficulty Difficulty) bool {
	if day < MinDay || day > MaxDay {
		return false
	}
	frontier := ClampDay(currentDay)
	if day <= frontier {
		return true
	}
	return difficulty == Advanced && day == frontier+1
}

// PointsForDay is the fallback award for days without curated points.
func PointsForDay(day int, difficulty Difficulty) int {
	base := 20
	switch {
	case day <= 10:
		base = 10
	case day <= 20:
		base = 15
	}
	return int(float64(base) * difficulty.Multiplier())
}

type DayStatus struct {
	Day       int  `json:"day"`
	Unlocked  bool `json:"unlocked"`
	Completed bool `json:"completed"`
	Current   bool `json:"current"`
}

func Journey(s State) []DayStatus {
	frontier := ClampDay(s.CurrentDay)
	days := make([]DayStatus, 0, MaxDay)
	for d := MinDay; d <= MaxDay; d++ {
		days = append(days, DayStatus{
			Day:       d,
			Unlocked:  IsUnlocked(d, frontier, s.Difficulty),
			Completed: slices.Contains(s.CompletedDays, d),
			Current:   d == frontier,
		})
	}
	return days
}
