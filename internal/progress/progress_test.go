// AngelaMos | 2026
// progress_test.go

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnlocked(t *testing.T) {
	tests := []struct {
		name       string
		day        int
		currentDay int
		difficulty Difficulty
		want       bool
	}{
		{"past day", 3, 5, Beginner, true},
		{"current day", 5, 5, Intermediate, true},
		{"next day beginner", 6, 5, Beginner, false},
		{"next day intermediate", 6, 5, Intermediate, false},
		{"next day advanced", 6, 5, Advanced, true},
		{"two ahead advanced", 7, 5, Advanced, false},
		{"no difficulty yet", 2, 1, "", false},
		{"day zero", 0, 5, Advanced, false},
		{"beyond journey", 31, 30, Advanced, false},
		{"frontier above range", 30, 45, Beginner, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnlocked(tt.day, tt.currentDay, tt.difficulty))
		})
	}
}

func TestIsUnlockedAtOrBelowFrontier(t *testing.T) {
	for current := MinDay; current <= MaxDay; current++ {
		for day := MinDay; day <= current; day++ {
			for _, d := range append(Difficulties, "") {
				require.True(t, IsUnlocked(day, current, d), "day %d current %d %s", day, current, d)
			}
		}
	}
}

func TestPointsForDay(t *testing.T) {
	tests := []struct {
		day        int
		difficulty Difficulty
		want       int
	}{
		{1, Beginner, 10},
		{10, Beginner, 10},
		{11, Beginner, 15},
		{20, Intermediate, 22},
		{21, Intermediate, 30},
		{5, Advanced, 20},
		{30, Advanced, 40},
		{15, "", 15},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PointsForDay(tt.day, tt.difficulty), "day %d %s", tt.day, tt.difficulty)
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 10, Score(TypeQuiz, 10, true))
	assert.Equal(t, 5, Score(TypeQuiz, 10, false))
	assert.Equal(t, 7, Score(TypeQuiz, 15, false))
	assert.Equal(t, 15, Score(TypePractice, 15, false))
	assert.Equal(t, 20, Score(TypeReflection, 20, true))
	assert.Equal(t, 0, Score(TypeQuiz, -4, true))
}

func TestComplete(t *testing.T) {
	t.Run("frontier day advances", func(t *testing.T) {
		tr := Complete(State{CurrentDay: 5, TotalPoints: 40}, 5, 10)
		assert.Equal(t, 6, tr.CurrentDay)
		assert.Equal(t, 50, tr.TotalPoints)
		assert.True(t, tr.DayAdvanced)
	})

	t.Run("earlier day only adds points", func(t *testing.T) {
		tr := Complete(State{CurrentDay: 5, TotalPoints: 40}, 3, 10)
		assert.Equal(t, 5, tr.CurrentDay)
		assert.Equal(t, 50, tr.TotalPoints)
		assert.False(t, tr.DayAdvanced)
	})

	t.Run("look-ahead day does not advance", func(t *testing.T) {
		tr := Complete(State{CurrentDay: 5, Difficulty: Advanced}, 6, 20)
		assert.Equal(t, 5, tr.CurrentDay)
	})

	t.Run("last day clamps", func(t *testing.T) {
		tr := Complete(State{CurrentDay: 30, TotalPoints: 500}, 30, 40)
		assert.Equal(t, 30, tr.CurrentDay)
		assert.Equal(t, 540, tr.TotalPoints)
		assert.False(t, tr.DayAdvanced)
	})

	t.Run("apply records day once", func(t *testing.T) {
		s := State{CurrentDay: 2, CompletedDays: []int{1}}
		tr := Complete(s, 2, 10)
		next := tr.Apply(s, 2)
		assert.Equal(t, []int{1, 2}, next.CompletedDays)
		assert.Equal(t, []int{1}, s.CompletedDays)
		assert.Equal(t, []int{1, 2}, tr.Apply(next, 2).CompletedDays)
	})
}

func TestUnlockedAchievements(t *testing.T) {
	assert.Empty(t, Unlocked(State{CurrentDay: 1}))

	assert.Equal(t,
		[]string{"first-step", "week-one", "points-50", "points-150"},
		Unlocked(State{CurrentDay: 8, TotalPoints: 160, Difficulty: Beginner}),
	)

	assert.Contains(t,
		Unlocked(State{CurrentDay: 8, TotalPoints: 160, Difficulty: Advanced}),
		"advanced-week",
	)

	all := Unlocked(State{CurrentDay: 30, TotalPoints: 1000, Difficulty: Advanced})
	assert.Len(t, all, len(Catalogue()))
}

func TestUnlockedIsPureOverState(t *testing.T) {
	a := State{CurrentDay: 15, TotalPoints: 310, Difficulty: Intermediate, CompletedDays: []int{1, 2}}
	b := State{CurrentDay: 15, TotalPoints: 310, Difficulty: Intermediate}
	assert.Equal(t, Unlocked(a), Unlocked(b))
}

func TestNewlyUnlocked(t *testing.T) {
	s := State{CurrentDay: 8, TotalPoints: 60}
	assert.Equal(t, []string{"week-one"}, NewlyUnlocked([]string{"first-step", "points-50"}, s))
	assert.Empty(t, NewlyUnlocked(Unlocked(s), s))
}

func TestJourney(t *testing.T) {
	days := Journey(State{CurrentDay: 3, Difficulty: Advanced, CompletedDays: []int{1, 2}})
	require.Len(t, days, MaxDay)

	assert.Equal(t, DayStatus{Day: 1, Unlocked: true, Completed: true}, days[0])
	assert.Equal(t, DayStatus{Day: 3, Unlocked: true, Current: true}, days[2])
	assert.Equal(t, DayStatus{Day: 4, Unlocked: true}, days[3])
	assert.Equal(t, DayStatus{Day: 5}, days[4])
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Advanced ")
	require.NoError(t, err)
	assert.Equal(t, Advanced, d)

	_, err = ParseDifficulty("expert")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}
