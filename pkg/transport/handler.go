package transport

import (
	"context"
	"encoding/json"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
)

// PreferenceAPI is the raw preference surface the adapter serves under
// /v1/prefs. Unlike the in-process facade, every failure surfaces so the
// adapter can map it onto a status code. Implemented by *prefs.Store.
type PreferenceAPI interface {
	// Lookup reads one entry. Absent keys return storage.ErrNotFound,
	// undecodable stored values prefs.ErrMalformed.
	Lookup(ctx context.Context, scope prefs.Scope, key string) (api.Preference, error)

	// Put validates value as JSON and writes it.
	Put(ctx context.Context, scope prefs.Scope, key string, value json.RawMessage) (api.Preference, error)

	// Drop removes one entry. Dropping an absent key succeeds.
	Drop(ctx context.Context, scope prefs.Scope, key string) error

	// List enumerates entries whose logical keys start with prefix,
	// sorted by key. limit <= 0 means no limit.
	List(ctx context.Context, scope prefs.Scope, prefix string, limit int) (*api.PreferenceList, error)

	// HealthCheck verifies the configured backends are reachable.
	HealthCheck(ctx context.Context) error
}

// Ensure the preference store satisfies the contract at compile time.
var _ PreferenceAPI = (*prefs.Store)(nil)

// CoachService is the application surface the adapter serves under
// /v1/coach. Validation failures are returned as *api.APIError.
type CoachService interface {
	Dashboard(ctx context.Context) (api.Dashboard, error)
	Meals(ctx context.Context) (api.MealList, error)
	LogMeal(ctx context.Context, req api.LogMealRequest) (api.Meal, error)
	EstimateMeal(ctx context.Context, req api.EstimateRequest) (api.MealEstimate, error)
	Plan(ctx context.Context) (api.Plan, error)
	GeneratePlan(ctx context.Context, req api.PlanRequest) (api.Plan, error)
	Goals(ctx context.Context) (api.GoalList, error)
	CompleteGoal(ctx context.Context, id string) (api.GoalList, error)
	Profile(ctx context.Context) (api.Profile, error)
	SaveProfile(ctx context.Context, p api.Profile) (api.Profile, error)
	ActiveTab(ctx context.Context) (api.TabState, error)
	SetActiveTab(ctx context.Context, tab string) (api.TabState, error)
}

// SessionService exchanges Telegram WebApp initData for a minted session.
type SessionService interface {
	CreateSession(ctx context.Context, initData string) (api.Session, error)
}
