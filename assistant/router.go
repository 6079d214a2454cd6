package assistant

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/models/reports"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

type Intent string

const (
	IntentNationality       Intent = "nationality"
	IntentAttrition         Intent = "attrition"
	IntentFinancial         Intent = "financial"
	IntentSales             Intent = "sales"
	IntentCostEfficiency    Intent = "cost_efficiency"
	IntentGrowth            Intent = "growth"
	IntentExecutiveOverview Intent = "executive_overview"
	IntentFallback          Intent = "fallback"
)

// Answer is what a routed question produces. A generative-service failure
// is carried in Err as a value next to a user-facing Text, so the chat UI
// can render it inline; the router never panics or retries.
type Answer struct {
	Text         string `json:"text"`
	Intent       Intent `json:"intent"`
	FromFallback bool   `json:"from_fallback"`
	Err          error  `json:"-"`
}

const fallbackUnavailableMsg = "I could not reach the AI assistant to answer that. The dashboard numbers above are still current; please try the question again in a moment."

// Router classifies a question and answers it deterministically when a
// keyword category matches, otherwise delegates to the Completer. Stateless
// per call: identical inputs produce identical answers (barring the
// generative service itself).
type Router struct {
	completer Completer
}

func NewRouter(completer Completer) *Router {
	return &Router{completer: completer}
}

// Nationality questions are a hard deterministic branch, checked before
// every other category: they must always produce a numeric answer grounded
// in the roster, never prose from the fallback.
var nationalityKeywords = []string{
	"nationality",
	"nationalities",
	"indian",
	"qatari",
	"qataris",
	"nepali",
	"philippine",
	"filipino",
	"egyptian",
}

// demonym -> value stored in the nationality column. Ordered so a question
// naming two groups resolves the same way every time.
var demonymNationality = []struct {
	demonym     string
	nationality string
}{
	{"indian", "Indian"},
	{"qataris", "Qatari"},
	{"qatari", "Qatari"},
	{"nepali", "Nepali"},
	{"philippine", "Filipino"},
	{"filipino", "Filipino"},
	{"egyptian", "Egyptian"},
}

type cannedIntent struct {
	intent   Intent
	keywords []string
	render   func(o *reports.Overview) string
}

// cannedIntents is an ordered table: the first category whose keyword
// matches wins. Order is deliberate — "turnover cost" must land on the
// attrition template, not the financial one — so attrition registers ahead
// of financial, and the broad executive-overview terms go last.
var cannedIntents = []cannedIntent{
	{
		intent:   IntentAttrition,
		keywords: []string{"attrition", "turnover", "leaver", "leaving", "resign", "quit", "retention"},
		render:   renderAttrition,
	},
	{
		intent:   IntentFinancial,
		keywords: []string{"revenue", "profit", "expense", "payroll", "margin", "financial", "finance"},
		render:   renderFinancial,
	},
	{
		intent:   IntentSales,
		keywords: []string{"sales", "customer", "satisfaction", "enrolment", "enrollment", "booking"},
		render:   renderSales,
	},
	{
		intent:   IntentCostEfficiency,
		keywords: []string{"cost", "efficiency", "saving", "spend", "budget"},
		render:   renderCostEfficiency,
	},
	{
		intent:   IntentGrowth,
		keywords: []string{"growth", "hiring", "headcount", "joiner", "expansion", "pipeline"},
		render:   renderGrowth,
	},
	{
		intent:   IntentExecutiveOverview,
		keywords: []string{"overview", "summary", "update", "briefing", "60-second", "snapshot"},
		render:   renderExecutiveOverview,
	},
}

// Route answers one question. history is the caller-held conversation; the
// router reads it only to build the fallback context.
func (r *Router) Route(ctx context.Context, question string, overview *reports.Overview, active []*models.Employee, history []Turn) *Answer {
	q := strings.ToLower(question)

	if matchesAny(q, nationalityKeywords) {
		return answerNationality(q, active)
	}

	for _, ci := range cannedIntents {
		if matchesAny(q, ci.keywords) {
			return &Answer{Text: ci.render(overview), Intent: ci.intent}
		}
	}

	return r.delegate(ctx, question, overview, history)
}

func matchesAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// ----- nationality branch -----

func answerNationality(q string, active []*models.Employee) *Answer {
	recorded := 0
	for _, e := range active {
		if strings.TrimSpace(e.Nationality) != "" {
			recorded++
		}
	}
	if len(active) == 0 || recorded == 0 {
		return &Answer{
			Intent: IntentNationality,
			Text: "Nationality is captured in the core HR system, but it is not yet fully " +
				"available in this analytics dataset. I cannot reliably report nationality " +
				"counts by country yet.",
		}
	}

	// a named nationality gets its own count and share
	for _, m := range demonymNationality {
		if !strings.Contains(q, m.demonym) {
			continue
		}
		var count int
		for _, e := range active {
			if utils.SameCategory(e.Nationality, m.nationality) {
				count++
			}
		}
		pct := utils.Percentage(count, len(active), 1)
		return &Answer{
			Intent: IntentNationality,
			Text: fmt.Sprintf("We currently have %d %s employees, which is about %.1f%% of the workforce.",
				count, m.nationality, pct),
		}
	}

	// generic summary: distinct count + plurality group, first-seen tie-break
	counts := map[string]int{}
	order := []string{}
	for _, e := range active {
		nat := strings.TrimSpace(e.Nationality)
		if nat == "" {
			continue
		}
		if _, ok := counts[nat]; !ok {
			order = append(order, nat)
		}
		counts[nat]++
	}
	top := order[0]
	for _, nat := range order[1:] {
		if counts[nat] > counts[top] {
			top = nat
		}
	}
	topPct := utils.Percentage(counts[top], recorded, 1)
	return &Answer{
		Intent: IntentNationality,
		Text: fmt.Sprintf("We currently have %d distinct nationalities in the workforce. "+
			"The largest group is %s, accounting for about %.1f%% of employees. "+
			"You can explore the full nationality breakdown in the HR dashboard.",
			len(order), top, topPct),
	}
}

// ----- canned templates -----

func renderAttrition(o *reports.Overview) string {
	dept := "no single department"
	if o.TopTurnoverDepartment != nil {
		dept = fmt.Sprintf("the %s department (%.1f%% of exits)", *o.TopTurnoverDepartment, o.TopTurnoverPct)
	}
	// display the first-ranked driver only; the full list stays on the dashboard
	driver := "no dominant resignation driver recorded"
	if len(o.TurnoverMainReasons) > 0 {
		driver = "top driver: " + o.TurnoverMainReasons[0]
	}
	return fmt.Sprintf(
		"Attrition stands at %.2f%%: %d former vs %d active employees. "+
			"%d people left in the last completed year (%d terminations, %d resignations), concentrated in %s. "+
			"Estimated turnover cost is QAR %s; %s.",
		o.AttritionRate, o.FormerEmployees, o.ActiveEmployees,
		o.TurnoverLastYear, o.TurnoverBreakdown.Terminations, o.TurnoverBreakdown.Resignations, dept,
		o.TurnoverCost.StringFixed(0), driver,
	)
}

func renderFinancial(o *reports.Overview) string {
	return fmt.Sprintf(
		"Latest finance KPIs: revenue QAR %s, expenses QAR %s, profit QAR %s. "+
			"Monthly payroll runs at QAR %s across %d active employees, with an estimated QAR %s turnover cost outstanding.",
		o.Revenue.StringFixed(0), o.Expenses.StringFixed(0), o.Profit.StringFixed(0),
		o.MonthlyPayroll.StringFixed(0), o.ActiveEmployees, o.TurnoverCost.StringFixed(0),
	)
}

func renderSales(o *reports.Overview) string {
	return fmt.Sprintf(
		"Revenue currently stands at QAR %s against QAR %s of expenses (profit QAR %s). "+
			"Instructor capacity backs this: %d active instructors and staff, %.2f%% of reviewed instructors exceed expectations.",
		o.Revenue.StringFixed(0), o.Expenses.StringFixed(0), o.Profit.StringFixed(0),
		o.ActiveEmployees, o.ExceedExpectationsPct,
	)
}

func renderCostEfficiency(o *reports.Overview) string {
	return fmt.Sprintf(
		"Monthly payroll is QAR %s for %d employees. Turnover is the main avoidable cost: QAR %s estimated for %d leavers. "+
			"Reducing attrition (%.2f%%) is the highest-leverage saving available.",
		o.MonthlyPayroll.StringFixed(0), o.ActiveEmployees,
		o.TurnoverCost.StringFixed(0), o.FormerEmployees, o.AttritionRate,
	)
}

func renderGrowth(o *reports.Overview) string {
	return fmt.Sprintf(
		"Headcount is %d with %d joiners in the 2023-2024 window; %d are still on probation and the probation failure rate is %.1f%%. "+
			"Average tenure is %.1f years, so the core workforce remains stable while the pipeline grows.",
		o.TotalEmployees, o.NewJoiners, o.OnProbationCount, o.ProbationFailureRate, o.AvgTenureYears,
	)
}

func renderExecutiveOverview(o *reports.Overview) string {
	top := "not tracked"
	if o.TopPerformerName != nil {
		top = *o.TopPerformerName
	}
	return fmt.Sprintf(
		"60-second overview: %d employees, attrition %.2f%%, payroll QAR %s/month. "+
			"Revenue QAR %s, profit QAR %s. %d on probation, %d poor performers flagged; top instructor: %s.",
		o.TotalEmployees, o.AttritionRate, o.MonthlyPayroll.StringFixed(0),
		o.Revenue.StringFixed(0), o.Profit.StringFixed(0),
		o.OnProbationCount, o.PoorPerformersCount, top,
	)
}

// ----- generative fallback -----

func (r *Router) delegate(ctx context.Context, question string, overview *reports.Overview, history []Turn) *Answer {
	if r.completer == nil {
		return &Answer{
			Intent:       IntentFallback,
			FromFallback: true,
			Text:         fallbackUnavailableMsg,
		}
	}

	language, _ := utils.GetLanguageFromContext(ctx)
	system := buildSystemPrompt(overview, language)

	reply, err := r.completer.Complete(ctx, system, buildTurns(question, history))
	if err != nil {
		username, _ := utils.GetUsernameFromContext(ctx)
		config.LogError(config.GetLogger(), "router.go", "delegate", "completer.Complete", username, err)
		// one failed call yields one error answer; retries are the caller's call
		return &Answer{
			Intent:       IntentFallback,
			FromFallback: true,
			Text:         fallbackUnavailableMsg,
			Err:          err,
		}
	}

	return &Answer{
		Intent:       IntentFallback,
		FromFallback: true,
		Text:         reply,
	}
}
