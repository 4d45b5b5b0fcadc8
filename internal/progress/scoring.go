// AngelaMos | 2026
// scoring.go

package progress

import (
	"slices"
)

type ActivityType string

const (
	TypeQuiz       ActivityType = "quiz"
	TypePractice   ActivityType = "practice"
	TypeReflection ActivityType = "reflection"
	TypeChallenge  ActivityType = "challenge"
	TypeCultural   ActivityType = "cultural"
)

var ActivityTypes = []ActivityType{TypeQuiz, TypePractice, TypeReflection, TypeChallenge, TypeCultural}

func (t ActivityType) Valid() bool {
	return slices.Contains(ActivityTypes, t)
}

// Score awards full points except for a quiz missed on the first answer,
// which earns half rounded down.
func Score(t ActivityType, points int, correctFirstAnswer bool) int {
	if points < 0 {
		return 0
	}
	if t == TypeQuiz && !correctFirstAnswer {
		return points / 2
	}
	return points
}

type Transition struct {
	PreviousDay  int  `json:"previous_day"`
	CurrentDay   int  `json:"current_day"`
	PointsEarned int  `json:"points_earned"`
	TotalPoints  int  `json:"total_points"`
	DayAdvanced  bool `json:"day_advanced"`
}

// Complete applies a completion of day to s. Only the frontier day moves
// current_day forward, and never past MaxDay.
func Complete(s State, day, earned int) Transition {
	current := ClampDay(s.CurrentDay)
	next := current
	if day == current {
		next = ClampDay(day + 1)
	}

	if earned < 0 {
		earned = 0
	}

	return Transition{
		PreviousDay:  current,
		CurrentDay:   next,
		PointsEarned: earned,
		TotalPoints:  max(s.TotalPoints, 0) + earned,
		DayAdvanced:  next != current,
	}
}

// Apply yields the state after t, with day recorded as completed.
func (t Transition) Apply(s State, day int) State {
	out := s
	out.CurrentDay = t.CurrentDay
	out.TotalPoints = t.TotalPoints
	if !slices.Contains(s.CompletedDays, day) {
		out.CompletedDays = append(slices.Clone(s.CompletedDays), day)
		slices.Sort(out.CompletedDays)
	}
	return out
}
