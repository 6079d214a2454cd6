package reports

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("hr-backend/reports")

const overviewCacheKey = "hrOverview"

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	fields := logrus.Fields{
		"report":         name,
		"duration_ms":    d.Milliseconds(),
		"correlation_id": cid,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	config.GetLogger().WithFields(fields).Warn("slow report build")
}

// BuildOverview loads the four HR tables plus the latest KPI snapshot and
// finance figures, then derives the overview. Each table is read once per
// call; the result is rebuilt per request unless the report cache is on.
//
// Only a failed read against the record store is an error. Empty tables
// flow through as zeroed metrics.
func BuildOverview(ctx context.Context) (*Overview, error) {
	ctx, span := tracer.Start(ctx, "reports.BuildOverview")
	defer span.End()
	started := time.Now()
	defer logSlowReport(ctx, "hr_overview", started)

	if config.ReportCacheEnabled() {
		var cached Overview
		if ok, err := config.GetRedisObject(overviewCacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	active, err := models.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	former, err := models.ListFormerEmployees(ctx)
	if err != nil {
		return nil, err
	}
	joiners, err := models.ListNewJoiners(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := models.ListInstructorPerformance(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := models.GetLatestKpiSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	overview := ComputeOverview(active, former, joiners, reviews, SnapshotPrecomputed(snapshot), time.Now())

	finance, err := models.FetchFinancialSummary(ctx)
	if err != nil {
		return nil, err
	}
	overview.Revenue = finance.Revenue
	overview.Expenses = finance.Expenses
	overview.Profit = finance.Profit

	if config.ReportCacheEnabled() {
		if err := config.SetRedisObject(overviewCacheKey, overview, reportCacheTTL()); err != nil {
			config.LogError(config.GetLogger(), "hrOverviewSource.go", "BuildOverview", "SetRedisObject", nil, err)
		}
	}

	return overview, nil
}

// SnapshotPrecomputed maps a snapshot row onto the engine's preference
// struct. Zero-valued snapshot columns stay nil so the derive path runs.
func SnapshotPrecomputed(s *models.HrKpiSnapshot) *Precomputed {
	if s == nil {
		return nil
	}
	pre := &Precomputed{}
	if s.AttritionRate != 0 {
		pre.AttritionRate = &s.AttritionRate
	}
	if !s.MonthlyPayroll.IsZero() {
		payroll := s.MonthlyPayroll
		pre.MonthlyPayroll = &payroll
	}
	if s.AvgTenureYears != 0 {
		pre.AvgTenureYears = &s.AvgTenureYears
	}
	if split := decodeSplit(s.NationalitySplitJson); len(split) > 0 {
		pre.NationalitySplit = split
	}
	if s.MarriedPct != 0 {
		pre.MarriedPct = &s.MarriedPct
	}
	if s.SinglePct != 0 {
		pre.SinglePct = &s.SinglePct
	}
	if s.TurnoverLastYear != 0 {
		pre.TurnoverLastYear = &s.TurnoverLastYear
	}
	if strings.TrimSpace(s.TopTurnoverDepartment) != "" {
		dept := s.TopTurnoverDepartment
		pre.TopTurnoverDepartment = &dept
	}
	if s.TopTurnoverPct != 0 {
		pre.TopTurnoverPct = &s.TopTurnoverPct
	}
	if reasons := decodeReasons(s.TurnoverReasonsJson); len(reasons) > 0 {
		pre.TurnoverMainReasons = reasons
	}
	if !s.TurnoverCost.IsZero() {
		cost := s.TurnoverCost
		pre.TurnoverCost = &cost
	}
	if s.EngagementScore != 0 {
		pre.EngagementScore = &s.EngagementScore
	}
	return pre
}

func decodeSplit(raw string) map[string]float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var split map[string]float64
	if err := utils.UnmarshalFromJSON([]byte(raw), &split); err != nil {
		// a corrupt snapshot column falls back to derivation, not an error
		return nil
	}
	return split
}

func decodeReasons(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var reasons []string
	if err := utils.UnmarshalFromJSON([]byte(raw), &reasons); err != nil {
		return nil
	}
	return reasons
}
