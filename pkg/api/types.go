package api

import "encoding/json"

// Object type discriminators returned in the "object" field of envelopes.
const (
	ObjectPreference   = "preference"
	ObjectList         = "list"
	ObjectSession      = "session"
	ObjectDashboard    = "coach.dashboard"
	ObjectMealEstimate = "coach.meal_estimate"
	ObjectPlan         = "coach.plan"
	ObjectProfile      = "coach.profile"
	ObjectTab          = "coach.tab"
	ObjectDeleted      = "deleted"
)

// ---------------------------------------------------------------------------
// Preference envelopes
// ---------------------------------------------------------------------------

// Preference is one stored entry: a scope, a logical key, and the raw JSON
// value exactly as it was written. The service never re-encodes values, so
// what a client stored is what it reads back.
type Preference struct {
	Object string          `json:"object"`
	Scope  string          `json:"scope"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value"`
}

// PreferenceList holds an enumerated slice of preferences for one scope.
type PreferenceList struct {
	Object  string       `json:"-"`
	Data    []Preference `json:"-"`
	HasMore bool         `json:"-"`
}

// MarshalJSON ensures Data is always an array, never null.
func (l PreferenceList) MarshalJSON() ([]byte, error) {
	type wire struct {
		Object  string       `json:"object"`
		Data    []Preference `json:"data"`
		HasMore bool         `json:"has_more"`
	}
	w := wire{Object: l.Object, Data: l.Data, HasMore: l.HasMore}
	if w.Object == "" {
		w.Object = ObjectList
	}
	if w.Data == nil {
		w.Data = []Preference{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON deserializes a PreferenceList.
func (l *PreferenceList) UnmarshalJSON(data []byte) error {
	type wire struct {
		Object  string       `json:"object"`
		Data    []Preference `json:"data"`
		HasMore bool         `json:"has_more"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Object = w.Object
	l.Data = w.Data
	l.HasMore = w.HasMore
	return nil
}

// Deleted acknowledges a successful delete.
type Deleted struct {
	Object  string `json:"object"`
	Scope   string `json:"scope"`
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// SessionRequest carries the Telegram WebApp initData blob to exchange for
// a session token.
type SessionRequest struct {
	InitData string `json:"init_data"`
}

// Session is a minted session: its ID, the bearer token that authenticates
// it, and the resolved user.
type Session struct {
	Object    string `json:"object"`
	ID        string `json:"id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      User   `json:"user"`
}

// User identifies the authenticated principal. The ID is stable across
// sessions so the durable keyspace survives re-authentication.
type User struct {
	ID         string `json:"id"`
	TelegramID int64  `json:"telegram_id,omitempty"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
}

// ---------------------------------------------------------------------------
// Coach payloads
// ---------------------------------------------------------------------------

// Meal is one logged meal.
type Meal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kcal     int    `json:"kcal"`
	Note     string `json:"note,omitempty"`
	LoggedAt int64  `json:"logged_at"`
}

// MealList holds logged meals, most recent first.
type MealList struct {
	Object string `json:"-"`
	Data   []Meal `json:"-"`
}

// MarshalJSON ensures Data is always an array, never null.
func (l MealList) MarshalJSON() ([]byte, error) {
	type wire struct {
		Object string `json:"object"`
		Data   []Meal `json:"data"`
	}
	w := wire{Object: l.Object, Data: l.Data}
	if w.Object == "" {
		w.Object = ObjectList
	}
	if w.Data == nil {
		w.Data = []Meal{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON deserializes a MealList.
func (l *MealList) UnmarshalJSON(data []byte) error {
	type wire struct {
		Object string `json:"object"`
		Data   []Meal `json:"data"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Object = w.Object
	l.Data = w.Data
	return nil
}

// LogMealRequest adds a meal to the log. Kcal may be zero, in which case
// the recognizer fills it in from the name.
type LogMealRequest struct {
	Name string `json:"name"`
	Kcal int    `json:"kcal,omitempty"`
	Note string `json:"note,omitempty"`
}

// EstimateRequest asks the recognizer for a calorie estimate. Exactly one
// of Description or PhotoRef must be set.
type EstimateRequest struct {
	Description string `json:"description,omitempty"`
	PhotoRef    string `json:"photo_ref,omitempty"`
}

// MealEstimate is the recognizer's answer.
type MealEstimate struct {
	Object     string  `json:"object"`
	Name       string  `json:"name"`
	Kcal       int     `json:"kcal"`
	Confidence float64 `json:"confidence"`
}

// Exercise is one movement inside a plan day.
type Exercise struct {
	Name    string `json:"name"`
	Sets    int    `json:"sets"`
	Reps    int    `json:"reps"`
	RestSec int    `json:"rest_sec"`
}

// PlanDay is one training day of a generated plan.
type PlanDay struct {
	Day       int        `json:"day"`
	Title     string     `json:"title"`
	Exercises []Exercise `json:"exercises"`
}

// Plan is a generated workout plan.
type Plan struct {
	Object      string    `json:"object"`
	Goal        string    `json:"goal"`
	Level       string    `json:"level"`
	DaysPerWeek int       `json:"days_per_week"`
	Days        []PlanDay `json:"days"`
	CreatedAt   int64     `json:"created_at"`
}

// PlanRequest selects what kind of plan to generate.
type PlanRequest struct {
	Goal        string `json:"goal"`
	Level       string `json:"level"`
	DaysPerWeek int    `json:"days_per_week"`
}

// Goal is one entry of the weekly checklist.
type Goal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Points      int    `json:"points"`
	Done        bool   `json:"done"`
	CompletedAt int64  `json:"completed_at,omitempty"`
}

// GoalList holds the weekly checklist plus the running totals it feeds.
type GoalList struct {
	Object string `json:"-"`
	Data   []Goal `json:"-"`
	Points int    `json:"-"`
	Streak int    `json:"-"`
}

// MarshalJSON ensures Data is always an array, never null.
func (l GoalList) MarshalJSON() ([]byte, error) {
	type wire struct {
		Object string `json:"object"`
		Data   []Goal `json:"data"`
		Points int    `json:"points"`
		Streak int    `json:"streak"`
	}
	w := wire{Object: l.Object, Data: l.Data, Points: l.Points, Streak: l.Streak}
	if w.Object == "" {
		w.Object = ObjectList
	}
	if w.Data == nil {
		w.Data = []Goal{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON deserializes a GoalList.
func (l *GoalList) UnmarshalJSON(data []byte) error {
	type wire struct {
		Object string `json:"object"`
		Data   []Goal `json:"data"`
		Points int    `json:"points"`
		Streak int    `json:"streak"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Object = w.Object
	l.Data = w.Data
	l.Points = w.Points
	l.Streak = w.Streak
	return nil
}

// Profile holds the user-editable profile. KcalTarget is persisted under
// its own preference key so other features can read it without decoding
// the whole profile.
type Profile struct {
	Object     string  `json:"object,omitempty"`
	Name       string  `json:"name,omitempty"`
	HeightCm   int     `json:"height_cm,omitempty"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
	KcalTarget int     `json:"kcal_target"`
}

// Dashboard aggregates today's numbers for the landing view.
type Dashboard struct {
	Object        string   `json:"object"`
	Date          string   `json:"date"`
	KcalTarget    int      `json:"kcal_target"`
	KcalConsumed  int      `json:"kcal_consumed"`
	KcalRemaining int      `json:"kcal_remaining"`
	MealsToday    int      `json:"meals_today"`
	Points        int      `json:"points"`
	Streak        int      `json:"streak"`
	GoalsDone     int      `json:"goals_done"`
	GoalsTotal    int      `json:"goals_total"`
	ActiveTab     string   `json:"active_tab"`
	NextWorkout   *PlanDay `json:"next_workout,omitempty"`
}

// TabState records which tab the client shows, kept in the session scope
// so a fresh session starts on the default tab.
type TabState struct {
	Object string `json:"object,omitempty"`
	Tab    string `json:"tab"`
}
