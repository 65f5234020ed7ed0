package api

import (
	"fmt"
	"strings"
)

// Tabs the client can show. The active tab is session-scoped state.
const (
	TabDashboard = "dashboard"
	TabMeals     = "meals"
	TabPlan      = "plan"
	TabGoals     = "goals"
	TabProfile   = "profile"
)

// Plan goals and levels accepted by the generator. Empty values are
// allowed on requests; the coach fills in its defaults.
const (
	PlanGoalStrength   = "strength"
	PlanGoalEndurance  = "endurance"
	PlanGoalWeightLoss = "weight_loss"
	PlanGoalMobility   = "mobility"

	PlanLevelBeginner     = "beginner"
	PlanLevelIntermediate = "intermediate"
	PlanLevelAdvanced     = "advanced"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxValueBytes int
	MaxKeyLength  int
	MaxListLimit  int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxValueBytes: 128 * 1024,
		MaxKeyLength:  200,
		MaxListLimit:  100,
	}
}

// DefaultListLimit applies when a list request does not name one.
const DefaultListLimit = 20

// ResolveListLimit clamps a requested list limit to [1, cfg.MaxListLimit],
// substituting the default when the request left it unset.
func ResolveListLimit(limit int, cfg ValidationConfig) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if cfg.MaxListLimit > 0 && limit > cfg.MaxListLimit {
		return cfg.MaxListLimit
	}
	return limit
}

// ValidateSessionRequest checks a session exchange request. It returns an
// *APIError describing the first validation failure, or nil if the request
// is valid.
func ValidateSessionRequest(req *SessionRequest) *APIError {
	if strings.TrimSpace(req.InitData) == "" {
		return NewInvalidRequestError("init_data", "init_data is required")
	}
	if len(req.InitData) > 8*1024 {
		return NewInvalidRequestError("init_data", "init_data exceeds maximum of 8192 bytes")
	}
	return nil
}

// ValidateLogMealRequest checks a meal log request.
func ValidateLogMealRequest(req *LogMealRequest) *APIError {
	if strings.TrimSpace(req.Name) == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if len(req.Name) > 200 {
		return NewInvalidRequestError("name", "name exceeds maximum of 200 characters")
	}
	if req.Kcal < 0 || req.Kcal > 10000 {
		return NewInvalidRequestError("kcal", "kcal must be between 0 and 10000")
	}
	if len(req.Note) > 500 {
		return NewInvalidRequestError("note", "note exceeds maximum of 500 characters")
	}
	return nil
}

// ValidateEstimateRequest checks an estimate request. Exactly one input
// must be present.
func ValidateEstimateRequest(req *EstimateRequest) *APIError {
	hasText := strings.TrimSpace(req.Description) != ""
	hasPhoto := strings.TrimSpace(req.PhotoRef) != ""
	if !hasText && !hasPhoto {
		return NewInvalidRequestError("description", "one of description or photo_ref is required")
	}
	if hasText && hasPhoto {
		return NewInvalidRequestError("description", "description and photo_ref are mutually exclusive")
	}
	if len(req.Description) > 500 {
		return NewInvalidRequestError("description", "description exceeds maximum of 500 characters")
	}
	if len(req.PhotoRef) > 200 {
		return NewInvalidRequestError("photo_ref", "photo_ref exceeds maximum of 200 characters")
	}
	return nil
}

// ValidatePlanRequest checks a plan generation request.
func ValidatePlanRequest(req *PlanRequest) *APIError {
	switch req.Goal {
	case "", PlanGoalStrength, PlanGoalEndurance, PlanGoalWeightLoss, PlanGoalMobility:
	default:
		return NewInvalidRequestError("goal",
			fmt.Sprintf("invalid goal %q", req.Goal))
	}
	switch req.Level {
	case "", PlanLevelBeginner, PlanLevelIntermediate, PlanLevelAdvanced:
	default:
		return NewInvalidRequestError("level",
			fmt.Sprintf("invalid level %q", req.Level))
	}
	if req.DaysPerWeek < 0 || req.DaysPerWeek > 7 {
		return NewInvalidRequestError("days_per_week", "days_per_week must be between 1 and 7")
	}
	return nil
}

// ValidateProfile checks a profile update.
func ValidateProfile(p *Profile) *APIError {
	if len(p.Name) > 100 {
		return NewInvalidRequestError("name", "name exceeds maximum of 100 characters")
	}
	if p.HeightCm < 0 || p.HeightCm > 300 {
		return NewInvalidRequestError("height_cm", "height_cm must be between 0 and 300")
	}
	if p.WeightKg < 0 || p.WeightKg > 500 {
		return NewInvalidRequestError("weight_kg", "weight_kg must be between 0 and 500")
	}
	if p.KcalTarget < 0 || p.KcalTarget > 10000 {
		return NewInvalidRequestError("kcal_target", "kcal_target must be between 0 and 10000")
	}
	return nil
}

// ValidateTab checks a tab name against the five known tabs.
func ValidateTab(tab string) *APIError {
	switch tab {
	case TabDashboard, TabMeals, TabPlan, TabGoals, TabProfile:
		return nil
	}
	return NewInvalidRequestError("tab", fmt.Sprintf("invalid tab %q", tab))
}
