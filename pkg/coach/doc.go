// Package coach implements the fitness features on top of the preference
// store: the dashboard, meal logging with calorie estimates, workout plan
// generation, the weekly goal checklist, points and streak tracking, and
// the active-tab session state. All state lives in preferences, so the
// coach inherits the store's resilience: reads fall back to defaults when
// storage misbehaves and a degraded backend never fails a request.
package coach
