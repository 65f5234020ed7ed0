package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/transport"
)

// Adapter serves the preference and coach APIs over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	store    transport.PreferenceAPI
	coach    transport.CoachService
	sessions transport.SessionService
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout int // seconds

	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxBodySize:     1 << 20, // 1 MB
		ShutdownTimeout: 30,
	}
}

// NewAdapter creates an HTTP adapter serving the given preference store.
// The coach and session services are optional; when nil, their endpoints
// return an error indicating the operation is not available.
func NewAdapter(store transport.PreferenceAPI, coach transport.CoachService, sessions transport.SessionService, cfg Config) *Adapter {
	a := &Adapter{
		store:    store,
		coach:    coach,
		sessions: sessions,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("POST /v1/session", a.handleCreateSession)

	a.mux.HandleFunc("GET /v1/prefs/{scope}/{key}", a.handleGetPref)
	a.mux.HandleFunc("PUT /v1/prefs/{scope}/{key}", a.handlePutPref)
	a.mux.HandleFunc("DELETE /v1/prefs/{scope}/{key}", a.handleDeletePref)
	a.mux.HandleFunc("GET /v1/prefs/{scope}", a.handleListPrefs)

	a.mux.HandleFunc("GET /v1/coach/dashboard", a.handleDashboard)
	a.mux.HandleFunc("GET /v1/coach/meals", a.handleMeals)
	a.mux.HandleFunc("POST /v1/coach/meals", a.handleLogMeal)
	a.mux.HandleFunc("POST /v1/coach/meals/estimate", a.handleEstimateMeal)
	a.mux.HandleFunc("GET /v1/coach/plan", a.handlePlan)
	a.mux.HandleFunc("POST /v1/coach/plan", a.handleGeneratePlan)
	a.mux.HandleFunc("GET /v1/coach/goals", a.handleGoals)
	a.mux.HandleFunc("POST /v1/coach/goals/{id}/complete", a.handleCompleteGoal)
	a.mux.HandleFunc("GET /v1/coach/profile", a.handleProfile)
	a.mux.HandleFunc("PUT /v1/coach/profile", a.handleSaveProfile)
	a.mux.HandleFunc("GET /v1/coach/tab", a.handleActiveTab)
	a.mux.HandleFunc("PUT /v1/coach/tab", a.handleSetActiveTab)

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)

	if cfg.Metrics != nil {
		a.mux.Handle("GET /metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		a.mux.Handle("/mcp", cfg.MCP)
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. Middleware (recovery, request
// ID, logging, auth) is composed around it by the Server.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// handleCreateSession handles POST /v1/session.
func (a *Adapter) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if a.sessions == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "session creation is not available (no session service configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	var req api.SessionRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.InitData) == "" {
		transport.WriteAPIError(w, api.NewInvalidRequestError("init_data", "init_data is required"))
		return
	}

	session, err := a.sessions.CreateSession(r.Context(), req.InitData)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// handleGetPref handles GET /v1/prefs/{scope}/{key}.
func (a *Adapter) handleGetPref(w http.ResponseWriter, r *http.Request) {
	pref, err := a.store.Lookup(r.Context(), prefs.Scope(r.PathValue("scope")), r.PathValue("key"))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

// handlePutPref handles PUT /v1/prefs/{scope}/{key}. The request body is the
// raw JSON value to store, not an envelope.
func (a *Adapter) handlePutPref(w http.ResponseWriter, r *http.Request) {
	value, ok := a.readRawBody(w, r)
	if !ok {
		return
	}

	pref, err := a.store.Put(r.Context(), prefs.Scope(r.PathValue("scope")), r.PathValue("key"), value)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

// handleDeletePref handles DELETE /v1/prefs/{scope}/{key}. Deleting an
// absent key succeeds; the response confirms what was targeted.
func (a *Adapter) handleDeletePref(w http.ResponseWriter, r *http.Request) {
	scope, key := r.PathValue("scope"), r.PathValue("key")
	if err := a.store.Drop(r.Context(), prefs.Scope(scope), key); err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Deleted{
		Object:  api.ObjectDeleted,
		Scope:   scope,
		Key:     key,
		Deleted: true,
	})
}

// handleListPrefs handles GET /v1/prefs/{scope}.
func (a *Adapter) handleListPrefs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			transport.WriteAPIError(w, api.NewInvalidRequestError("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	list, err := a.store.List(r.Context(), prefs.Scope(r.PathValue("scope")), q.Get("prefix"), limit)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleDashboard handles GET /v1/coach/dashboard.
func (a *Adapter) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	dash, err := a.coach.Dashboard(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// handleMeals handles GET /v1/coach/meals.
func (a *Adapter) handleMeals(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	meals, err := a.coach.Meals(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// handleLogMeal handles POST /v1/coach/meals.
func (a *Adapter) handleLogMeal(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	var req api.LogMealRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	meal, err := a.coach.LogMeal(r.Context(), req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

// handleEstimateMeal handles POST /v1/coach/meals/estimate.
func (a *Adapter) handleEstimateMeal(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	var req api.EstimateRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	est, err := a.coach.EstimateMeal(r.Context(), req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// handlePlan handles GET /v1/coach/plan.
func (a *Adapter) handlePlan(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	plan, err := a.coach.Plan(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleGeneratePlan handles POST /v1/coach/plan.
func (a *Adapter) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	var req api.PlanRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	plan, err := a.coach.GeneratePlan(r.Context(), req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleGoals handles GET /v1/coach/goals.
func (a *Adapter) handleGoals(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	goals, err := a.coach.Goals(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// handleCompleteGoal handles POST /v1/coach/goals/{id}/complete.
func (a *Adapter) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	goals, err := a.coach.CompleteGoal(r.Context(), r.PathValue("id"))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// handleProfile handles GET /v1/coach/profile.
func (a *Adapter) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	profile, err := a.coach.Profile(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleSaveProfile handles PUT /v1/coach/profile.
func (a *Adapter) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	var req api.Profile
	if !a.readJSON(w, r, &req) {
		return
	}
	profile, err := a.coach.SaveProfile(r.Context(), req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleActiveTab handles GET /v1/coach/tab.
func (a *Adapter) handleActiveTab(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	tab, err := a.coach.ActiveTab(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// handleSetActiveTab handles PUT /v1/coach/tab.
func (a *Adapter) handleSetActiveTab(w http.ResponseWriter, r *http.Request) {
	if !a.requireCoach(w) {
		return
	}
	var req api.TabState
	if !a.readJSON(w, r, &req) {
		return
	}
	tab, err := a.coach.SetActiveTab(r.Context(), req.Tab)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// handleHealthz handles GET /healthz. It reports process liveness only.
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

// handleReadyz handles GET /readyz. It pings the storage backends so load
// balancers stop routing to an instance whose store is down.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.store.HealthCheck(r.Context()); err != nil {
		transport.WriteAPIError(w, api.NewStorageUnavailableError(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

// requireCoach writes a not-implemented error when no coach service is
// configured.
func (a *Adapter) requireCoach(w http.ResponseWriter) bool {
	if a.coach == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "coach features are not available (no coach service configured)"),
			http.StatusNotImplemented,
		)
		return false
	}
	return true
}

// readJSON decodes a JSON request body into dst after validating the
// Content-Type and limiting the body size. On failure it writes the error
// response and reports false.
func (a *Adapter) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !a.checkContentType(w, r) {
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}
	return true
}

// readRawBody reads the request body as an opaque value for the raw
// preference PUT, where the body itself is the JSON to store. On failure it
// writes the error response and reports false.
func (a *Adapter) readRawBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	if !a.checkContentType(w, r) {
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return nil, false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "failed to read request body"),
			http.StatusBadRequest,
		)
		return nil, false
	}
	return body, true
}

// checkContentType rejects non-JSON request bodies.
func (a *Adapter) checkContentType(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}
	return true
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
