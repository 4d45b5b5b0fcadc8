// AngelaMos | 2026
// entity.go

package activity

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

const (
	Collection         = "activities"
	ProgressCollection = "user_progress"
)

// Variant is the content of one day at one difficulty.
type Variant struct {
	Title        string                `json:"title"                  firestore:"title"`
	Description  string                `json:"description"            firestore:"description"`
	Instructions string                `json:"instructions,omitempty" firestore:"instructions,omitempty"`
	Type         progress.ActivityType `json:"type"                   firestore:"type"`
	Points       int                   `json:"points"                 firestore:"points"`
	Question     string                `json:"question,omitempty"     firestore:"question,omitempty"`
	Options      []string              `json:"options,omitempty"      firestore:"options,omitempty"`
	Answer       string                `json:"answer,omitempty"       firestore:"answer,omitempty"`
}

type Resource struct {
	Title string `json:"title" firestore:"title"`
	URL   string `json:"url"   firestore:"url"`
}

// Activity is one day of the curriculum with a variant per difficulty.
type Activity struct {
	ID           string     `json:"id"           firestore:"id"`
	Day          int        `json:"day"          firestore:"day"`
	Theme        string     `json:"theme"        firestore:"theme"`
	Beginner     Variant    `json:"beginner"     firestore:"beginner"`
	Intermediate Variant    `json:"intermediate" firestore:"intermediate"`
	Advanced     Variant    `json:"advanced"     firestore:"advanced"`
	Tips         []string   `json:"tips"         firestore:"tips"`
	Resources    []Resource `json:"resources"    firestore:"resources"`
	LastUpdated  time.Time  `json:"lastUpdated"  firestore:"lastUpdated"`
	UpdatedBy    string     `json:"updatedBy"    firestore:"updatedBy"`
}

// DocID is the document id of a day's activity.
func DocID(day int) string {
	return fmt.Sprintf("day-%02d", day)
}

func (a *Activity) Variant(d progress.Difficulty) Variant {
	switch d {
	case progress.Intermediate:
		return a.Intermediate
	case progress.Advanced:
		return a.Advanced
	default:
		return a.Beginner
	}
}

// Progress records one completed activity. Its document id is
// ProgressID(user, activity), so a user completes an activity once.
type Progress struct {
	ID                 string              `json:"id"                             firestore:"id"`
	UserID             string              `json:"user_id"                        firestore:"user_id"`
	ActivityID         string              `json:"activity_id"                    firestore:"activity_id"`
	Day                int                 `json:"day"                            firestore:"day"`
	Difficulty         progress.Difficulty `json:"difficulty"                     firestore:"difficulty"`
	Score              int                 `json:"score"                          firestore:"score"`
	CorrectFirstAnswer *bool               `json:"correct_first_answer,omitempty" firestore:"correct_first_answer,omitempty"`
	TimeTaken          int                 `json:"time_taken"                     firestore:"time_taken"`
	CompletedAt        time.Time           `json:"completed_at"                   firestore:"completed_at"`
}

func ProgressID(userID, activityID string) string {
	return userID + "_" + activityID
}
