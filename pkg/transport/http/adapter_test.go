package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/storage/memory"
	"github.com/vorrat-dev/vorrat/pkg/transport"
)

// mockCoach is a configurable mock CoachService for testing. It records the
// last request it saw so tests can assert the adapter passed it through.
type mockCoach struct {
	dashboard api.Dashboard
	meals     api.MealList
	meal      api.Meal
	estimate  api.MealEstimate
	plan      api.Plan
	goals     api.GoalList
	profile   api.Profile
	tab       api.TabState
	err       error

	gotMeal     api.LogMealRequest
	gotEstimate api.EstimateRequest
	gotPlan     api.PlanRequest
	gotGoalID   string
	gotProfile  api.Profile
	gotTab      string
}

func (m *mockCoach) Dashboard(_ context.Context) (api.Dashboard, error) {
	return m.dashboard, m.err
}

func (m *mockCoach) Meals(_ context.Context) (api.MealList, error) {
	return m.meals, m.err
}

func (m *mockCoach) LogMeal(_ context.Context, req api.LogMealRequest) (api.Meal, error) {
	m.gotMeal = req
	return m.meal, m.err
}

func (m *mockCoach) EstimateMeal(_ context.Context, req api.EstimateRequest) (api.MealEstimate, error) {
	m.gotEstimate = req
	return m.estimate, m.err
}

func (m *mockCoach) Plan(_ context.Context) (api.Plan, error) {
	return m.plan, m.err
}

func (m *mockCoach) GeneratePlan(_ context.Context, req api.PlanRequest) (api.Plan, error) {
	m.gotPlan = req
	return m.plan, m.err
}

func (m *mockCoach) Goals(_ context.Context) (api.GoalList, error) {
	return m.goals, m.err
}

func (m *mockCoach) CompleteGoal(_ context.Context, id string) (api.GoalList, error) {
	m.gotGoalID = id
	return m.goals, m.err
}

func (m *mockCoach) Profile(_ context.Context) (api.Profile, error) {
	return m.profile, m.err
}

func (m *mockCoach) SaveProfile(_ context.Context, p api.Profile) (api.Profile, error) {
	m.gotProfile = p
	return m.profile, m.err
}

func (m *mockCoach) ActiveTab(_ context.Context) (api.TabState, error) {
	return m.tab, m.err
}

func (m *mockCoach) SetActiveTab(_ context.Context, tab string) (api.TabState, error) {
	m.gotTab = tab
	return m.tab, m.err
}

// mockSessions mints a canned session.
type mockSessions struct {
	session api.Session
	err     error

	gotInitData string
}

func (m *mockSessions) CreateSession(_ context.Context, initData string) (api.Session, error) {
	m.gotInitData = initData
	return m.session, m.err
}

func newTestServer(t *testing.T, coach transport.CoachService, sessions transport.SessionService) (*httptest.Server, *memory.Store) {
	t.Helper()
	dev := memory.New(memory.Options{})
	store := prefs.New(dev, memory.New(memory.Options{}))
	t.Cleanup(func() { store.Close() })

	adapter := NewAdapter(store, coach, sessions, DefaultConfig())
	srv := httptest.NewServer(adapter.Handler())
	t.Cleanup(srv.Close)
	return srv, dev
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal error: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s error: %v", method, err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) *api.APIError {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return errResp.Error
}

// --- Session tests ---

func TestCreateSessionReturnsToken(t *testing.T) {
	sessions := &mockSessions{
		session: api.Session{
			Object:    api.ObjectSession,
			ID:        "ses_abc123456789012345678901",
			Token:     "header.payload.sig",
			ExpiresAt: 1800000000,
			User:      api.User{ID: "tg:42", TelegramID: 42},
		},
	}

	srv, _ := newTestServer(t, nil, sessions)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/session", api.SessionRequest{InitData: "query_id=AA&user=..."})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got api.Session
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.ID != "ses_abc123456789012345678901" {
		t.Errorf("session ID = %q, want %q", got.ID, "ses_abc123456789012345678901")
	}
	if got.Token == "" {
		t.Error("expected a token in the response")
	}
	if sessions.gotInitData != "query_id=AA&user=..." {
		t.Errorf("init data = %q, want the request payload", sessions.gotInitData)
	}
}

func TestCreateSessionRequiresInitData(t *testing.T) {
	srv, _ := newTestServer(t, nil, &mockSessions{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/session", api.SessionRequest{InitData: "  "})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, resp); apiErr.Param != "init_data" {
		t.Errorf("error param = %q, want %q", apiErr.Param, "init_data")
	}
}

func TestCreateSessionWithoutServiceReturns501(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/session", api.SessionRequest{InitData: "x"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotImplemented)
	}
}

func TestCreateSessionAuthFailureReturns401(t *testing.T) {
	sessions := &mockSessions{err: api.NewUnauthenticatedError("init data signature mismatch")}
	srv, _ := newTestServer(t, nil, sessions)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/session", api.SessionRequest{InitData: "tampered"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if apiErr := decodeError(t, resp); apiErr.Type != api.ErrorTypeUnauthenticated {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeUnauthenticated)
	}
}

// --- Preference tests ---

func TestPrefRoundTripOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	put, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/prefs/device/kcalTarget", strings.NewReader("1800"))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	put.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", putResp.StatusCode, http.StatusOK)
	}

	getResp, err := http.Get(srv.URL + "/v1/prefs/device/kcalTarget")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer getResp.Body.Close()

	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", getResp.StatusCode, http.StatusOK)
	}

	var pref api.Preference
	if err := json.NewDecoder(getResp.Body).Decode(&pref); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if pref.Object != api.ObjectPreference {
		t.Errorf("object = %q, want %q", pref.Object, api.ObjectPreference)
	}
	if pref.Scope != "device" || pref.Key != "kcalTarget" {
		t.Errorf("scope/key = %q/%q, want device/kcalTarget", pref.Scope, pref.Key)
	}
	if string(pref.Value) != "1800" {
		t.Errorf("value = %s, want 1800", pref.Value)
	}
}

func TestGetPrefUnknownKeyReturns404(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/v1/prefs/device/neverSet")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if apiErr := decodeError(t, resp); apiErr.Type != api.ErrorTypeNotFound {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeNotFound)
	}
}

func TestGetPrefInvalidScopeReturns400(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/v1/prefs/cloud/kcalTarget")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, resp); apiErr.Param != "scope" {
		t.Errorf("error param = %q, want %q", apiErr.Param, "scope")
	}
}

func TestGetPrefCorruptValueReturns500(t *testing.T) {
	srv, dev := newTestServer(t, nil, nil)

	// Corrupt the stored bytes underneath the service.
	if err := dev.Set(context.Background(), "coach:dev:plan", []byte("{not json")); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	resp, err := http.Get(srv.URL + "/v1/prefs/device/plan")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	if apiErr := decodeError(t, resp); apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeServerError)
	}
}

func TestPutPrefInvalidJSONReturns400(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/prefs/device/plan", strings.NewReader("{{{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, resp); apiErr.Param != "value" {
		t.Errorf("error param = %q, want %q", apiErr.Param, "value")
	}
}

func TestPutPrefWrongContentTypeReturns415(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/prefs/device/plan", strings.NewReader("[]"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
	}
}

func TestPutPrefOversizedBodyReturns413(t *testing.T) {
	dev := memory.New(memory.Options{})
	store := prefs.New(dev, memory.New(memory.Options{}))
	t.Cleanup(func() { store.Close() })

	cfg := DefaultConfig()
	cfg.MaxBodySize = 10 // bytes
	adapter := NewAdapter(store, nil, nil, cfg)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/prefs/device/plan", strings.NewReader(`["push","pull","legs"]`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestDeletePrefConfirmsDeletion(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	put, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/prefs/session/activeTab", strings.NewReader(`"meals"`))
	put.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	putResp.Body.Close()

	del, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/prefs/session/activeTab", nil)
	delResp, err := http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("DELETE error: %v", err)
	}
	defer delResp.Body.Close()

	if delResp.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d, want %d", delResp.StatusCode, http.StatusOK)
	}

	var deleted api.Deleted
	if err := json.NewDecoder(delResp.Body).Decode(&deleted); err != nil {
		t.Fatalf("decoding delete response: %v", err)
	}
	if deleted.Object != api.ObjectDeleted {
		t.Errorf("object = %q, want %q", deleted.Object, api.ObjectDeleted)
	}
	if deleted.Key != "activeTab" || deleted.Scope != "session" || !deleted.Deleted {
		t.Errorf("delete response = %+v, want session/activeTab deleted", deleted)
	}

	getResp, err := http.Get(srv.URL + "/v1/prefs/session/activeTab")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer getResp.Body.Close()

	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after DELETE status = %d, want %d", getResp.StatusCode, http.StatusNotFound)
	}
}

func TestDeletePrefAbsentKeySucceeds(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/prefs/device/neverSet", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestListPrefsFiltersAndPaginates(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	seed := map[string]string{
		"goal.daily":  "1",
		"goal.weekly": "2",
		"points":      "30",
	}
	for key, value := range seed {
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/prefs/device/"+key, strings.NewReader(value))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PUT %s error: %v", key, err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/v1/prefs/device?prefix=goal.&limit=1")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var list api.PreferenceList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(list.Data) != 1 {
		t.Fatalf("data length = %d, want 1", len(list.Data))
	}
	if list.Data[0].Key != "goal.daily" {
		t.Errorf("first key = %q, want %q (sorted)", list.Data[0].Key, "goal.daily")
	}
	if !list.HasMore {
		t.Error("expected has_more with limit below the match count")
	}
}

func TestListPrefsBadLimitReturns400(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/v1/prefs/device?limit=zero")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, resp); apiErr.Param != "limit" {
		t.Errorf("error param = %q, want %q", apiErr.Param, "limit")
	}
}

// --- Coach tests ---

func TestCoachEndpointsWithoutServiceReturn501(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/coach/dashboard"},
		{http.MethodGet, "/v1/coach/meals"},
		{http.MethodPost, "/v1/coach/meals"},
		{http.MethodPost, "/v1/coach/meals/estimate"},
		{http.MethodGet, "/v1/coach/plan"},
		{http.MethodPost, "/v1/coach/plan"},
		{http.MethodGet, "/v1/coach/goals"},
		{http.MethodPost, "/v1/coach/goals/goal.workout/complete"},
		{http.MethodGet, "/v1/coach/profile"},
		{http.MethodPut, "/v1/coach/profile"},
		{http.MethodGet, "/v1/coach/tab"},
		{http.MethodPut, "/v1/coach/tab"},
	}

	for _, ep := range endpoints {
		req, _ := http.NewRequest(ep.method, srv.URL+ep.path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s error: %v", ep.method, ep.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotImplemented {
			t.Errorf("%s %s status = %d, want %d", ep.method, ep.path, resp.StatusCode, http.StatusNotImplemented)
		}
	}
}

func TestDashboardReturnsJSON(t *testing.T) {
	coach := &mockCoach{
		dashboard: api.Dashboard{
			Object:     api.ObjectDashboard,
			Date:       "2026-08-25",
			KcalTarget: 2000,
			ActiveTab:  "dashboard",
		},
	}
	srv, _ := newTestServer(t, coach, nil)

	resp, err := http.Get(srv.URL + "/v1/coach/dashboard")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got api.Dashboard
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.KcalTarget != 2000 {
		t.Errorf("kcal target = %d, want 2000", got.KcalTarget)
	}
}

func TestLogMealReturns201(t *testing.T) {
	coach := &mockCoach{
		meal: api.Meal{ID: "meal_abc12345678901234567890a", Name: "banana", Kcal: 105},
	}
	srv, _ := newTestServer(t, coach, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/coach/meals", api.LogMealRequest{Name: "banana"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if coach.gotMeal.Name != "banana" {
		t.Errorf("meal name = %q, want %q", coach.gotMeal.Name, "banana")
	}

	var got api.Meal
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.Kcal != 105 {
		t.Errorf("kcal = %d, want 105", got.Kcal)
	}
}

func TestLogMealInvalidJSONBodyReturns400(t *testing.T) {
	srv, _ := newTestServer(t, &mockCoach{}, nil)

	resp, err := http.Post(srv.URL+"/v1/coach/meals", "application/json", strings.NewReader("{invalid"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, resp); apiErr.Param != "body" {
		t.Errorf("error param = %q, want %q", apiErr.Param, "body")
	}
}

func TestEstimateMealPassesRequest(t *testing.T) {
	coach := &mockCoach{
		estimate: api.MealEstimate{Object: api.ObjectMealEstimate, Name: "banana", Kcal: 105, Confidence: 0.7},
	}
	srv, _ := newTestServer(t, coach, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/coach/meals/estimate", api.EstimateRequest{Description: "banana"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if coach.gotEstimate.Description != "banana" {
		t.Errorf("description = %q, want %q", coach.gotEstimate.Description, "banana")
	}
}

func TestGeneratePlanPassesRequest(t *testing.T) {
	coach := &mockCoach{
		plan: api.Plan{Object: api.ObjectPlan, Goal: "strength", Level: "beginner", DaysPerWeek: 3},
	}
	srv, _ := newTestServer(t, coach, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/coach/plan", api.PlanRequest{Goal: "strength", Level: "beginner", DaysPerWeek: 3})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if coach.gotPlan.Goal != "strength" || coach.gotPlan.DaysPerWeek != 3 {
		t.Errorf("plan request = %+v, want goal strength, 3 days", coach.gotPlan)
	}
}

func TestCompleteGoalPassesID(t *testing.T) {
	coach := &mockCoach{goals: api.GoalList{Object: api.ObjectList}}
	srv, _ := newTestServer(t, coach, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/coach/goals/goal.workout/complete", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if coach.gotGoalID != "goal.workout" {
		t.Errorf("goal ID = %q, want %q", coach.gotGoalID, "goal.workout")
	}
}

func TestSetActiveTabPassesTab(t *testing.T) {
	coach := &mockCoach{tab: api.TabState{Object: api.ObjectTab, Tab: "meals"}}
	srv, _ := newTestServer(t, coach, nil)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/coach/tab", strings.NewReader(`{"tab":"meals"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if coach.gotTab != "meals" {
		t.Errorf("tab = %q, want %q", coach.gotTab, "meals")
	}
}

func TestCoachErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *api.APIError
		wantStatus int
	}{
		{"invalid_request -> 400", api.NewInvalidRequestError("tab", "unknown tab"), http.StatusBadRequest},
		{"not_found -> 404", api.NewNotFoundError("no plan generated yet"), http.StatusNotFound},
		{"server_error -> 500", api.NewServerError("estimator failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &mockCoach{err: tt.err}, nil)

			resp, err := http.Get(srv.URL + "/v1/coach/plan")
			if err != nil {
				t.Fatalf("GET error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if apiErr := decodeError(t, resp); apiErr.Type != tt.err.Type {
				t.Errorf("error type = %q, want %q", apiErr.Type, tt.err.Type)
			}
		})
	}
}

// --- Health and routing tests ---

func TestHealthzReturnsOK(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok\n" {
		t.Errorf("body = %q, want %q", body, "ok\n")
	}
}

func TestReadyzReportsBackendFailure(t *testing.T) {
	srv, dev := newTestServer(t, nil, nil)

	// Healthy first.
	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// Take the device backend down.
	dev.Close()

	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if apiErr := decodeError(t, resp); apiErr.Type != api.ErrorTypeStorageUnavailable {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeStorageUnavailable)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/v1/nonexistent")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Post(srv.URL+"/v1/coach/dashboard", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}
