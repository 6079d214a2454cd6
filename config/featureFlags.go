package config

import (
	"os"
	"strconv"
	"strings"
)

// AssistantFallbackEnabled gates the Gemini fallback for the executive
// assistant. Keyword-routed answers keep working when this is off.
//
// Set via env:
// - ENABLE_AI_ASSISTANT=true
func AssistantFallbackEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ENABLE_AI_ASSISTANT")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ReportCacheEnabled gates redis caching of the HR overview.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

// TurnoverCostFactor is the configured multiple of annualized salary used
// to estimate the cost of a departure. The 0.30 default follows the HR
// team's replacement-cost assumption; it is configuration, never derived
// from data.
//
// Set via env:
// - HR_TURNOVER_COST_FACTOR=0.30
func TurnoverCostFactor() float64 {
	v := strings.TrimSpace(os.Getenv("HR_TURNOVER_COST_FACTOR"))
	if v == "" {
		return 0.30
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0.30
	}
	return f
}
