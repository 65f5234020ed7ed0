package coach

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/observability"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/storage"
)

// Goals and levels accepted by GeneratePlan.
var (
	planGoals  = []string{"strength", "endurance", "mobility"}
	planLevels = []string{"beginner", "intermediate", "advanced"}
)

const (
	defaultDaysPerWeek = 3
	exercisesPerDay    = 4
)

// goalRotation assigns a focus to each plan day: day i draws from
// rotation[i mod len].
var goalRotation = map[string][]string{
	"strength":  {"push", "pull", "legs"},
	"endurance": {"cardio", "legs", "core"},
	"mobility":  {"stretch", "core", "balance"},
}

var focusTitles = map[string]string{
	"push":    "Push",
	"pull":    "Pull",
	"legs":    "Legs",
	"core":    "Core",
	"cardio":  "Cardio",
	"stretch": "Stretch",
	"balance": "Balance",
}

// exerciseCatalog is the built-in movement pool, grouped by focus.
var exerciseCatalog = map[string][]string{
	"push":    {"Push-up", "Bench press", "Overhead press", "Dip", "Incline press", "Diamond push-up"},
	"pull":    {"Pull-up", "Bent-over row", "Lat pulldown", "Face pull", "Biceps curl", "Inverted row"},
	"legs":    {"Squat", "Lunge", "Deadlift", "Leg press", "Calf raise", "Bulgarian split squat"},
	"core":    {"Plank", "Crunch", "Russian twist", "Leg raise", "Mountain climber", "Side plank"},
	"cardio":  {"Jumping jacks", "Burpee", "High knees", "Jump rope", "Box step-up", "Sprint interval"},
	"stretch": {"Hamstring stretch", "Hip flexor stretch", "Cat-cow", "Child's pose", "Shoulder rolls", "Neck release"},
	"balance": {"Single-leg stand", "Bird dog", "Dead bug", "Glute bridge", "Heel-to-toe walk", "Wall sit"},
}

// levelDose sets volume per difficulty.
var levelDose = map[string]struct {
	sets, reps, restSec int
}{
	"beginner":     {2, 10, 90},
	"intermediate": {3, 12, 75},
	"advanced":     {4, 15, 60},
}

// Plan returns the stored workout plan.
func (s *Service) Plan(ctx context.Context) (api.Plan, error) {
	plan := prefs.Get(ctx, s.store, prefs.ScopeDevice, keyPlan, api.Plan{})
	if plan.CreatedAt == 0 || len(plan.Days) == 0 {
		return api.Plan{}, api.NewNotFoundError("no plan generated yet")
	}
	plan.Object = api.ObjectPlan
	return plan, nil
}

// GeneratePlan builds a workout plan from the built-in catalog and stores
// it under the plan key. Exercise selection is seeded by user, date,
// goal, and level, so regenerating with the same inputs on the same day
// reproduces the same plan.
func (s *Service) GeneratePlan(ctx context.Context, req api.PlanRequest) (api.Plan, error) {
	goal := strings.ToLower(strings.TrimSpace(req.Goal))
	if goal == "" {
		goal = planGoals[0]
	}
	rotation, ok := goalRotation[goal]
	if !ok {
		return api.Plan{}, api.NewInvalidRequestError("goal", fmt.Sprintf("goal must be one of %s", strings.Join(planGoals, ", ")))
	}

	level := strings.ToLower(strings.TrimSpace(req.Level))
	if level == "" {
		level = planLevels[0]
	}
	dose, ok := levelDose[level]
	if !ok {
		return api.Plan{}, api.NewInvalidRequestError("level", fmt.Sprintf("level must be one of %s", strings.Join(planLevels, ", ")))
	}

	days := req.DaysPerWeek
	if days == 0 {
		days = defaultDaysPerWeek
	}
	if days < 1 || days > 7 {
		return api.Plan{}, api.NewInvalidRequestError("days_per_week", "days_per_week must be between 1 and 7")
	}

	now := s.now()
	rng := planRand(storage.GetActor(ctx).UserID, day(now), goal, level)

	plan := api.Plan{
		Object:      api.ObjectPlan,
		Goal:        goal,
		Level:       level,
		DaysPerWeek: days,
		CreatedAt:   now.Unix(),
	}
	for i := 0; i < days; i++ {
		focus := rotation[i%len(rotation)]
		pool := exerciseCatalog[focus]
		n := exercisesPerDay
		if n > len(pool) {
			n = len(pool)
		}
		pd := api.PlanDay{Day: i + 1, Title: focusTitles[focus]}
		for _, pick := range rng.Perm(len(pool))[:n] {
			pd.Exercises = append(pd.Exercises, api.Exercise{
				Name:    pool[pick],
				Sets:    dose.sets,
				Reps:    dose.reps,
				RestSec: dose.restSec,
			})
		}
		plan.Days = append(plan.Days, pd)
	}

	s.store.Set(ctx, prefs.ScopeDevice, keyPlan, plan)
	observability.RecordPlan(goal)
	return plan, nil
}

// planRand seeds exercise selection from the identifying inputs. Two FNV
// variants give the generator its two seed words.
func planRand(user, date, goal, level string) *rand.Rand {
	key := strings.Join([]string{user, date, goal, level}, "|")
	h1 := fnv.New64a()
	io.WriteString(h1, key)
	h2 := fnv.New64()
	io.WriteString(h2, key)
	return rand.New(rand.NewPCG(h1.Sum64(), h2.Sum64()))
}
