package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/observability"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/transport"
)

// Preference keys the coach persists. Durable state lives in the device
// scope; UI state lives in the session scope.
const (
	keyKcalTarget = "kcalTarget"
	keyProfile    = "profile"
	keyMeals      = "meals"
	keyPlan       = "plan"
	keyPoints     = "points"
	keyStreak     = "streak"
	keyGoals      = "goals"
	keyActiveTab  = "activeTab"
)

const (
	// DefaultKcalTarget applies until the user saves a target of their own.
	DefaultKcalTarget = 2000

	// DefaultMealHistoryLimit caps the meal log at the most recent entries.
	DefaultMealHistoryLimit = 200

	// DefaultTab is the tab a fresh session starts on.
	DefaultTab = "dashboard"

	// pointsPerMeal is awarded for every logged meal.
	pointsPerMeal = 5

	// maxKcalTarget bounds what SaveProfile accepts as a daily target.
	maxKcalTarget = 20000
)

// tabs lists the client views a session may mark active.
var tabs = []string{"dashboard", "meals", "plan", "goals", "profile"}

func validTab(tab string) bool {
	for _, t := range tabs {
		if t == tab {
			return true
		}
	}
	return false
}

// Config holds configuration for the coach service.
type Config struct {
	// KcalTarget overrides the default daily calorie target used until
	// the user saves one. Zero means 2000.
	KcalTarget int

	// MealHistoryLimit caps how many logged meals are kept, most recent
	// first. Zero means 200.
	MealHistoryLimit int

	// Estimator recognizes meals from descriptions or photo references.
	// Nil selects the built-in deterministic estimator.
	Estimator Estimator

	// Now reports the current time. Nil means time.Now.
	Now func() time.Time
}

// Service implements the coaching operations. Reads go through the
// preference facade and fall back to defaults on any storage trouble;
// writes are best-effort per the facade contract. Validation errors are
// returned as *api.APIError so transports can map them.
type Service struct {
	store     *prefs.Store
	estimator Estimator
	cfg       Config
}

// Ensure Service implements transport.CoachService at compile time.
var _ transport.CoachService = (*Service)(nil)

// New creates a coach service. The store must not be nil.
func New(store *prefs.Store, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("coach: store must not be nil")
	}
	if cfg.KcalTarget <= 0 {
		cfg.KcalTarget = DefaultKcalTarget
	}
	if cfg.MealHistoryLimit <= 0 {
		cfg.MealHistoryLimit = DefaultMealHistoryLimit
	}
	if cfg.Estimator == nil {
		cfg.Estimator = NewHashEstimator()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{store: store, estimator: cfg.Estimator, cfg: cfg}, nil
}

func (s *Service) now() time.Time { return s.cfg.Now() }

// day formats t as a calendar date in its own location.
func day(t time.Time) string { return t.Format("2006-01-02") }

// Dashboard aggregates today's numbers for the landing view.
func (s *Service) Dashboard(ctx context.Context) (api.Dashboard, error) {
	now := s.now()
	today := day(now)

	target := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyKcalTarget, s.cfg.KcalTarget)
	meals := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyMeals, []api.Meal(nil))

	consumed, count := 0, 0
	for _, m := range meals {
		if day(time.Unix(m.LoggedAt, 0).In(now.Location())) != today {
			continue
		}
		consumed += m.Kcal
		count++
	}

	goals := s.currentGoals(ctx, now)
	done := 0
	for _, g := range goals {
		if g.Done {
			done++
		}
	}

	d := api.Dashboard{
		Object:        api.ObjectDashboard,
		Date:          today,
		KcalTarget:    target,
		KcalConsumed:  consumed,
		KcalRemaining: target - consumed,
		MealsToday:    count,
		Points:        prefs.Get(ctx, s.store, prefs.ScopeDevice, keyPoints, 0),
		Streak:        s.currentStreak(ctx, now),
		GoalsDone:     done,
		GoalsTotal:    len(goals),
		ActiveTab:     s.activeTab(ctx),
	}

	// The next workout rotates through the plan, one day per calendar day
	// since the plan was generated.
	plan := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyPlan, api.Plan{})
	if plan.CreatedAt > 0 && len(plan.Days) > 0 {
		next := plan.Days[daysSince(plan.CreatedAt, now)%len(plan.Days)]
		d.NextWorkout = &next
	}
	return d, nil
}

// daysSince counts calendar-day boundaries crossed since the given unix
// time, in now's location. Rounding absorbs DST-shortened days.
func daysSince(unix int64, now time.Time) int {
	start := time.Unix(unix, 0).In(now.Location())
	startMidnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	nowMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := int(nowMidnight.Sub(startMidnight).Round(24*time.Hour) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}

// Meals returns the logged meals, most recent first.
func (s *Service) Meals(ctx context.Context) (api.MealList, error) {
	meals := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyMeals, []api.Meal{})
	return api.MealList{Object: api.ObjectList, Data: meals}, nil
}

// LogMeal appends a meal to the log and awards points. A zero calorie
// count is filled in by the estimator from the meal name. History is
// capped at the configured limit, oldest entries dropped first.
func (s *Service) LogMeal(ctx context.Context, req api.LogMealRequest) (api.Meal, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return api.Meal{}, api.NewInvalidRequestError("name", "name is required")
	}
	if req.Kcal < 0 {
		return api.Meal{}, api.NewInvalidRequestError("kcal", "kcal must not be negative")
	}

	kcal := req.Kcal
	if kcal == 0 {
		est, err := s.estimator.Estimate(ctx, EstimateInput{Description: name})
		if err != nil {
			return api.Meal{}, fmt.Errorf("estimating %q: %w", name, err)
		}
		kcal = est.Kcal
	}

	meal := api.Meal{
		ID:       api.NewMealID(),
		Name:     name,
		Kcal:     kcal,
		Note:     strings.TrimSpace(req.Note),
		LoggedAt: s.now().Unix(),
	}

	meals := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyMeals, []api.Meal(nil))
	meals = append([]api.Meal{meal}, meals...)
	if len(meals) > s.cfg.MealHistoryLimit {
		meals = meals[:s.cfg.MealHistoryLimit]
	}
	s.store.Set(ctx, prefs.ScopeDevice, keyMeals, meals)
	s.addPoints(ctx, pointsPerMeal)

	return meal, nil
}

// EstimateMeal asks the estimator for a calorie estimate. Exactly one of
// the description and the photo reference must be set.
func (s *Service) EstimateMeal(ctx context.Context, req api.EstimateRequest) (api.MealEstimate, error) {
	desc := strings.TrimSpace(req.Description)
	photo := strings.TrimSpace(req.PhotoRef)
	switch {
	case desc == "" && photo == "":
		return api.MealEstimate{}, api.NewInvalidRequestError("description", "one of description or photo_ref is required")
	case desc != "" && photo != "":
		return api.MealEstimate{}, api.NewInvalidRequestError("photo_ref", "description and photo_ref are mutually exclusive")
	}

	est, err := s.estimator.Estimate(ctx, EstimateInput{Description: desc, PhotoRef: photo})
	if err != nil {
		return api.MealEstimate{}, fmt.Errorf("estimating meal: %w", err)
	}
	est.Object = api.ObjectMealEstimate

	source := "text"
	if photo != "" {
		source = "photo"
	}
	observability.RecordEstimate(source)
	return est, nil
}

// Goals returns the weekly checklist plus the running totals.
func (s *Service) Goals(ctx context.Context) (api.GoalList, error) {
	now := s.now()
	return api.GoalList{
		Object: api.ObjectList,
		Data:   s.currentGoals(ctx, now),
		Points: prefs.Get(ctx, s.store, prefs.ScopeDevice, keyPoints, 0),
		Streak: s.currentStreak(ctx, now),
	}, nil
}

// CompleteGoal marks one checklist entry done, awards its points, and
// advances the streak. Completing an already-done goal changes nothing.
func (s *Service) CompleteGoal(ctx context.Context, id string) (api.GoalList, error) {
	now := s.now()
	goals := s.currentGoals(ctx, now)

	idx := -1
	for i := range goals {
		if goals[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return api.GoalList{}, api.NewNotFoundError(fmt.Sprintf("goal %q not found", id))
	}

	if !goals[idx].Done {
		goals[idx].Done = true
		goals[idx].CompletedAt = now.Unix()
		s.store.Set(ctx, prefs.ScopeDevice, keyGoals, weekGoals{Week: isoWeek(now), Goals: goals})
		s.addPoints(ctx, goals[idx].Points)
		s.bumpStreak(ctx, now)
	}

	return api.GoalList{
		Object: api.ObjectList,
		Data:   goals,
		Points: prefs.Get(ctx, s.store, prefs.ScopeDevice, keyPoints, 0),
		Streak: s.currentStreak(ctx, now),
	}, nil
}

// weekGoals is the stored shape of the weekly checklist. The week stamp
// rolls the checklist over: entries from an earlier ISO week are replaced
// by a fresh copy of the defaults.
type weekGoals struct {
	Week  string     `json:"week"`
	Goals []api.Goal `json:"goals"`
}

func isoWeek(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// defaultGoals returns a fresh weekly checklist.
func defaultGoals() []api.Goal {
	return []api.Goal{
		{ID: "goal.log_meals", Title: "Log every meal for a day", Points: 10},
		{ID: "goal.workout", Title: "Finish a workout", Points: 20},
		{ID: "goal.kcal_target", Title: "Stay under your calorie target", Points: 15},
		{ID: "goal.water", Title: "Drink two liters of water", Points: 5},
		{ID: "goal.steps", Title: "Walk 8000 steps", Points: 10},
	}
}

// currentGoals loads the checklist for the week containing now. Reads do
// not persist the rollover; CompleteGoal does when it writes.
func (s *Service) currentGoals(ctx context.Context, now time.Time) []api.Goal {
	state := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyGoals, weekGoals{})
	if state.Week != isoWeek(now) || len(state.Goals) == 0 {
		return defaultGoals()
	}
	return state.Goals
}

func (s *Service) addPoints(ctx context.Context, delta int) {
	if delta <= 0 {
		return
	}
	total := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyPoints, 0)
	s.store.Set(ctx, prefs.ScopeDevice, keyPoints, total+delta)
}

// streakState is the stored shape of the activity streak.
type streakState struct {
	Count   int    `json:"count"`
	LastDay string `json:"last_day"`
}

// currentStreak returns the streak as of now. A streak whose last
// activity is older than yesterday has lapsed and reads as zero.
func (s *Service) currentStreak(ctx context.Context, now time.Time) int {
	st := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyStreak, streakState{})
	if st.LastDay != day(now) && st.LastDay != day(now.AddDate(0, 0, -1)) {
		return 0
	}
	return st.Count
}

// bumpStreak records activity on the day containing now. Consecutive
// days extend the streak; a gap restarts it at one.
func (s *Service) bumpStreak(ctx context.Context, now time.Time) {
	st := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyStreak, streakState{})
	switch st.LastDay {
	case day(now):
		return
	case day(now.AddDate(0, 0, -1)):
		st.Count++
	default:
		st.Count = 1
	}
	st.LastDay = day(now)
	s.store.Set(ctx, prefs.ScopeDevice, keyStreak, st)
}

// Profile returns the stored profile with the calorie target stitched in
// from its own key.
func (s *Service) Profile(ctx context.Context) (api.Profile, error) {
	p := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyProfile, api.Profile{})
	p.Object = api.ObjectProfile
	p.KcalTarget = prefs.Get(ctx, s.store, prefs.ScopeDevice, keyKcalTarget, s.cfg.KcalTarget)
	return p, nil
}

// SaveProfile stores the profile. The calorie target is persisted under
// its own key so other features read it without decoding the profile; a
// zero target leaves the stored one untouched.
func (s *Service) SaveProfile(ctx context.Context, p api.Profile) (api.Profile, error) {
	if p.KcalTarget < 0 || p.KcalTarget > maxKcalTarget {
		return api.Profile{}, api.NewInvalidRequestError("kcal_target", fmt.Sprintf("kcal_target must be between 0 and %d", maxKcalTarget))
	}
	if p.HeightCm < 0 || p.HeightCm > 300 {
		return api.Profile{}, api.NewInvalidRequestError("height_cm", "height_cm must be between 0 and 300")
	}
	if p.WeightKg < 0 || p.WeightKg > 500 {
		return api.Profile{}, api.NewInvalidRequestError("weight_kg", "weight_kg must be between 0 and 500")
	}

	if p.KcalTarget > 0 {
		s.store.Set(ctx, prefs.ScopeDevice, keyKcalTarget, p.KcalTarget)
	}
	stored := p
	stored.Object = ""
	stored.KcalTarget = 0
	s.store.Set(ctx, prefs.ScopeDevice, keyProfile, stored)

	return s.Profile(ctx)
}

// ActiveTab returns the tab this session last marked active. Unknown or
// corrupt stored values degrade to the default tab.
func (s *Service) ActiveTab(ctx context.Context) (api.TabState, error) {
	return api.TabState{Object: api.ObjectTab, Tab: s.activeTab(ctx)}, nil
}

func (s *Service) activeTab(ctx context.Context) string {
	tab := prefs.Get(ctx, s.store, prefs.ScopeSession, keyActiveTab, DefaultTab)
	if !validTab(tab) {
		return DefaultTab
	}
	return tab
}

// SetActiveTab records the active tab in the session scope so a fresh
// session starts back on the default.
func (s *Service) SetActiveTab(ctx context.Context, tab string) (api.TabState, error) {
	if !validTab(tab) {
		return api.TabState{}, api.NewInvalidRequestError("tab", fmt.Sprintf("tab must be one of %s", strings.Join(tabs, ", ")))
	}
	s.store.Set(ctx, prefs.ScopeSession, keyActiveTab, tab)
	return api.TabState{Object: api.ObjectTab, Tab: tab}, nil
}
