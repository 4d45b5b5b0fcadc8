// AngelaMos | 2026
// dto.go

package activity

import (
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

type CompleteRequest struct {
	Answer    *string `json:"answer,omitempty" validate:"omitempty,max=500"`
	TimeTaken int     `json:"time_taken"       validate:"min=0,max=86400"`
}

type UpdateRequest struct {
	Theme        *string         `json:"theme,omitempty"        validate:"omitempty,max=200"`
	Beginner     *VariantPatch   `json:"beginner,omitempty"`
	Intermediate *VariantPatch   `json:"intermediate,omitempty"`
	Advanced     *VariantPatch   `json:"advanced,omitempty"`
	Tips         []string        `json:"tips,omitempty"         validate:"omitempty,dive,max=500"`
	Resources    []ResourceInput `json:"resources,omitempty"    validate:"omitempty,dive"`
}

type VariantPatch struct {
	Title        *string  `json:"title,omitempty"        validate:"omitempty,min=1,max=200"`
	Description  *string  `json:"description,omitempty"  validate:"omitempty,max=2000"`
	Instructions *string  `json:"instructions,omitempty" validate:"omitempty,max=4000"`
	Type         *string  `json:"type,omitempty"         validate:"omitempty,oneof=quiz practice reflection challenge cultural"`
	Points       *int     `json:"points,omitempty"       validate:"omitempty,min=0,max=1000"`
	Question     *string  `json:"question,omitempty"     validate:"omitempty,max=1000"`
	Options      []string `json:"options,omitempty"      validate:"omitempty,max=8,dive,max=200"`
	Answer       *string  `json:"answer,omitempty"       validate:"omitempty,max=500"`
}

type ResourceInput struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url"   validate:"required,url"`
}

// fields flattens the patch into a merge map.
func (r UpdateRequest) fields() map[string]any {
	out := map[string]any{}
	if r.Theme != nil {
		out["theme"] = *r.Theme
	}
	for key, v := range map[string]*VariantPatch{
		"beginner":     r.Beginner,
		"intermediate": r.Intermediate,
		"advanced":     r.Advanced,
	} {
		if v != nil {
			if f := v.fields(); len(f) > 0 {
				out[key] = f
			}
		}
	}
	if r.Tips != nil {
		out["tips"] = r.Tips
	}
	if r.Resources != nil {
		res := make([]Resource, 0, len(r.Resources))
		for _, in := range r.Resources {
			res = append(res, Resource(in))
		}
		out["resources"] = res
	}
	return out
}

func (v VariantPatch) fields() map[string]any {
	out := map[string]any{}
	set := func(key string, val *string) {
		if val != nil {
			out[key] = *val
		}
	}
	set("title", v.Title)
	set("description", v.Description)
	set("instructions", v.Instructions)
	set("type", v.Type)
	set("question", v.Question)
	set("answer", v.Answer)
	if v.Points != nil {
		out["points"] = *v.Points
	}
	if v.Options != nil {
		out["options"] = v.Options
	}
	return out
}

// View is what a learner sees of a day: their variant, without the answer.
type View struct {
	ID        string                `json:"id"`
	Day       int                   `json:"day"`
	Theme     string                `json:"theme"`
	Curated   bool                  `json:"curated"`
	Title     string                `json:"title"`
	Summary   string                `json:"description"`
	Steps     string                `json:"instructions,omitempty"`
	Type      progress.ActivityType `json:"type"`
	Points    int                   `json:"points"`
	Question  string                `json:"question,omitempty"`
	Options   []string              `json:"options,omitempty"`
	Tips      []string              `json:"tips"`
	Resources []Resource            `json:"resources"`
	Completed bool                  `json:"completed"`
}

func ToView(a *Activity, day int, d progress.Difficulty, completed bool) View {
	if a == nil {
		return View{
			ID:        DocID(day),
			Day:       day,
			Type:      progress.TypePractice,
			Points:    progress.PointsForDay(day, d),
			Tips:      []string{},
			Resources: []Resource{},
			Completed: completed,
		}
	}

	v := a.Variant(d)
	return View{
		ID:        a.ID,
		Day:       a.Day,
		Theme:     a.Theme,
		Curated:   true,
		Title:     v.Title,
		Summary:   v.Description,
		Steps:     v.Instructions,
		Type:      v.Type,
		Points:    pointsFor(a, day, d),
		Question:  v.Question,
		Options:   v.Options,
		Tips:      a.Tips,
		Resources: a.Resources,
		Completed: completed,
	}
}

type CompletionResult struct {
	Completed          bool      `json:"completed"`
	Recorded           bool      `json:"recorded"`
	AlreadyCompleted   bool      `json:"already_completed"`
	ActivityID         string    `json:"activity_id"`
	Day                int       `json:"day"`
	PointsEarned       int       `json:"points_earned"`
	CorrectFirstAnswer *bool     `json:"correct_first_answer,omitempty"`
	CurrentDay         int       `json:"current_day"`
	TotalPoints        int       `json:"total_points"`
	DayAdvanced        bool      `json:"day_advanced"`
	NewlyUnlocked      []string  `json:"newly_unlocked"`
	CompletedAt        time.Time `json:"completed_at"`
}

type ProgressResponse struct {
	Progress []Progress `json:"progress"`
}
