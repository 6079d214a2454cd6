package reports

import (
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/shopspring/decimal"
)

// Overview is the flat workforce-health document the dashboard and the
// assistant prompt consume. The JSON key set is a compatibility contract:
// renaming or removing a key breaks downstream consumers, adding keys is fine.
type Overview struct {
	TotalEmployees  int     `json:"total_employees"`
	ActiveEmployees int     `json:"active_employees"`
	FormerEmployees int     `json:"former_employees"`
	AttritionRate   float64 `json:"attrition_rate"`

	MonthlyPayroll   decimal.Decimal    `json:"monthly_payroll"`
	AvgTenureYears   float64            `json:"avg_tenure_years"`
	NationalitySplit map[string]float64 `json:"nationality_split"`
	MarriedPct       float64            `json:"married_pct"`
	SinglePct        float64            `json:"single_pct"`

	TurnoverLastYear      int                  `json:"turnover_last_year"`
	TurnoverBreakdown     TurnoverBreakdown    `json:"turnover_breakdown"`
	TopTurnoverDepartment *string              `json:"top_turnover_department"`
	TopTurnoverPct        float64              `json:"top_turnover_pct"`
	TurnoverMainReasons   []string             `json:"turnover_main_reasons"`
	TurnoverCost          decimal.Decimal      `json:"turnover_cost"`
	DepartmentTurnover    []DepartmentTurnover `json:"department_turnover"`

	EngagementScore      float64  `json:"engagement_score"`
	NewJoiners           int      `json:"new_joiners_2023_2024"`
	OnProbationCount     int      `json:"on_probation_count"`
	ProbationFailureRate float64  `json:"probation_failure_rate"`
	ProbationFailedCount int      `json:"probation_failed_count"`
	ProbationFailedNames []string `json:"probation_failed_names"`

	PoorPerformersCount   int     `json:"poor_performers_count"`
	ExceedExpectationsPct float64 `json:"exceed_expectations_pct"`
	TopPerformerName      *string `json:"top_performer_name"`

	// Finance supplement for the canned executive intents; filled by
	// BuildOverview from finance_kpi, zero when that table is empty.
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

type TurnoverBreakdown struct {
	Terminations int `json:"terminations"`
	Resignations int `json:"resignations"`
	TotalLeavers int `json:"total_leavers"`
}

type DepartmentTurnover struct {
	Department         string  `json:"department"`
	TotalExits         int     `json:"total_exits"`
	Terminations       int     `json:"terminations"`
	Resignations       int     `json:"resignations"`
	FamilyRelatedExits int     `json:"family_related_exits"`
	PercentageOfExits  float64 `json:"percentage_of_exits"`
}

// Precomputed carries already-known KPI values, usually from the latest
// hr_kpi_snapshots row. Nil/zero/empty fields mean "derive from raw
// records". One nullable field per overridable key, so the preference rule
// is explicit rather than buried in map lookups.
type Precomputed struct {
	AttritionRate         *float64
	MonthlyPayroll        *decimal.Decimal
	AvgTenureYears        *float64
	NationalitySplit      map[string]float64
	MarriedPct            *float64
	SinglePct             *float64
	TurnoverLastYear      *int
	TopTurnoverDepartment *string
	TopTurnoverPct        *float64
	TurnoverMainReasons   []string
	TurnoverCost          *decimal.Decimal
	EngagementScore       *float64
}

// The uniform preference chain: a precomputed value wins only when present
// and non-zero/non-empty, otherwise the derived value stands (which itself
// defaults to the documented zero on missing data).

func preferFloat(pre *float64, derived float64) float64 {
	if pre != nil && *pre != 0 {
		return *pre
	}
	return derived
}

func preferInt(pre *int, derived int) int {
	if pre != nil && *pre != 0 {
		return *pre
	}
	return derived
}

func preferDecimal(pre *decimal.Decimal, derived decimal.Decimal) decimal.Decimal {
	if pre != nil && !pre.IsZero() {
		return *pre
	}
	return derived
}

func preferString(pre *string, derived *string) *string {
	if pre != nil && strings.TrimSpace(*pre) != "" {
		return pre
	}
	return derived
}

func preferMap(pre map[string]float64, derived map[string]float64) map[string]float64 {
	if len(pre) > 0 {
		return pre
	}
	return derived
}

func preferSlice(pre []string, derived []string) []string {
	if len(pre) > 0 {
		return pre
	}
	return derived
}

// ComputeOverview derives the overview from the four HR tables. Pure and
// deterministic for a fixed input ordering: no I/O, no clock reads (asOf is
// the caller's), no randomness. Empty collections are valid and produce
// zeroed metrics; a record missing an optional column contributes the
// documented default and is never an error.
func ComputeOverview(
	active []*models.Employee,
	former []*models.FormerEmployee,
	joiners []*models.NewJoiner,
	reviews []*models.InstructorPerformance,
	pre *Precomputed,
	asOf time.Time,
) *Overview {
	if pre == nil {
		pre = &Precomputed{}
	}

	o := &Overview{
		TotalEmployees:       len(active),
		ActiveEmployees:      len(active),
		FormerEmployees:      len(former),
		NationalitySplit:     map[string]float64{},
		TurnoverMainReasons:  []string{},
		DepartmentTurnover:   []DepartmentTurnover{},
		ProbationFailedNames: []string{},
		MonthlyPayroll:       decimal.Zero,
		TurnoverCost:         decimal.Zero,
		Revenue:              decimal.Zero,
		Expenses:             decimal.Zero,
		Profit:               decimal.Zero,
	}

	o.AttritionRate = preferFloat(pre.AttritionRate, attritionRate(len(former), len(active)))
	o.MonthlyPayroll = preferDecimal(pre.MonthlyPayroll, monthlyPayroll(active))
	o.AvgTenureYears = preferFloat(pre.AvgTenureYears, avgTenureYears(active, asOf))
	o.NationalitySplit = preferMap(pre.NationalitySplit, nationalitySplit(active))

	marriedPct, singlePct := contractSplit(active)
	o.MarriedPct = preferFloat(pre.MarriedPct, marriedPct)
	o.SinglePct = preferFloat(pre.SinglePct, singlePct)

	o.TurnoverLastYear = preferInt(pre.TurnoverLastYear, turnoverLastYear(former, asOf))
	o.TurnoverBreakdown = turnoverBreakdown(former)
	o.DepartmentTurnover = departmentTurnover(former)

	topDept, topPct := topTurnoverDepartment(o.DepartmentTurnover)
	o.TopTurnoverDepartment = preferString(pre.TopTurnoverDepartment, topDept)
	o.TopTurnoverPct = preferFloat(pre.TopTurnoverPct, topPct)

	o.TurnoverMainReasons = preferSlice(pre.TurnoverMainReasons, turnoverMainReasons(former))
	o.TurnoverCost = preferDecimal(pre.TurnoverCost, turnoverCost(former))
	o.EngagementScore = preferFloat(pre.EngagementScore, 0)

	o.NewJoiners = len(joiners)
	o.OnProbationCount, o.ProbationFailureRate, o.ProbationFailedCount, o.ProbationFailedNames = probationMetrics(joiners)

	o.PoorPerformersCount, o.ExceedExpectationsPct, o.TopPerformerName = performanceMetrics(reviews)

	return o
}

// attrition = former / (former + active) * 100; 0 on an empty population.
func attritionRate(formerCount, activeCount int) float64 {
	population := formerCount + activeCount
	if population <= 0 {
		return 0
	}
	return utils.RoundTo(float64(formerCount)/float64(population)*100, 2)
}

func monthlyPayroll(active []*models.Employee) decimal.Decimal {
	total := decimal.Zero
	for _, e := range active {
		total = total.Add(e.TotalSalary())
	}
	return total
}

// mean tenure over employees with a recorded join date; the rest are
// excluded from numerator and denominator.
func avgTenureYears(active []*models.Employee, asOf time.Time) float64 {
	var sum float64
	var n int
	for _, e := range active {
		if e.DateOfJoining == nil {
			continue
		}
		sum += e.TenureYears(asOf)
		n++
	}
	if n == 0 {
		return 0
	}
	return utils.RoundTo(sum/float64(n), 1)
}

// nationality -> share of the active roster, 1dp. Blank nationality is
// unrecorded and excluded from both sides, so shares still sum to ~100.
func nationalitySplit(active []*models.Employee) map[string]float64 {
	counts := map[string]int{}
	var recorded int
	for _, e := range active {
		nat := strings.TrimSpace(e.Nationality)
		if nat == "" {
			continue
		}
		counts[nat]++
		recorded++
	}
	split := make(map[string]float64, len(counts))
	for nat, c := range counts {
		split[nat] = utils.Percentage(c, recorded, 1)
	}
	return split
}

func contractSplit(active []*models.Employee) (marriedPct, singlePct float64) {
	var married, single int
	for _, e := range active {
		switch {
		case utils.SameCategory(string(e.ContractType), string(models.ContractTypeMarried)):
			married++
		case utils.SameCategory(string(e.ContractType), string(models.ContractTypeSingle)):
			single++
		}
	}
	return utils.Percentage(married, len(active), 1), utils.Percentage(single, len(active), 1)
}

// leavers whose date_of_leaving falls in the last completed calendar year.
// When the table carries no leaving dates at all, the total former count
// substitutes (legacy imports predate that column).
func turnoverLastYear(former []*models.FormerEmployee, asOf time.Time) int {
	if len(former) == 0 {
		return 0
	}
	lastYear := asOf.Year() - 1
	var dated, inLastYear int
	for _, e := range former {
		if e.DateOfLeaving == nil {
			continue
		}
		dated++
		if e.DateOfLeaving.Year() == lastYear {
			inLastYear++
		}
	}
	if dated == 0 {
		return len(former)
	}
	return inLastYear
}

func turnoverBreakdown(former []*models.FormerEmployee) TurnoverBreakdown {
	b := TurnoverBreakdown{TotalLeavers: len(former)}
	for _, e := range former {
		switch {
		case utils.SameCategory(string(e.TerminationType), string(models.TerminationTypeTermination)):
			b.Terminations++
		case utils.SameCategory(string(e.TerminationType), string(models.TerminationTypeResignation)):
			b.Resignations++
		}
	}
	return b
}

// family-related sub-reason markers, matched case-insensitively.
var familyReasonMarkers = []string{"family", "marriage", "child", "parent"}

// departmentTurnover groups leavers by department in first-seen order, so
// the result is deterministic for a fixed input ordering. Per-department
// exits partition the former set: blank departments group under "".
func departmentTurnover(former []*models.FormerEmployee) []DepartmentTurnover {
	index := map[string]int{}
	rows := []DepartmentTurnover{}
	for _, e := range former {
		dept := strings.TrimSpace(e.Department)
		i, ok := index[dept]
		if !ok {
			i = len(rows)
			index[dept] = i
			rows = append(rows, DepartmentTurnover{Department: dept})
		}
		rows[i].TotalExits++
		switch {
		case utils.SameCategory(string(e.TerminationType), string(models.TerminationTypeTermination)):
			rows[i].Terminations++
		case utils.SameCategory(string(e.TerminationType), string(models.TerminationTypeResignation)):
			rows[i].Resignations++
		}
		sub := strings.ToLower(e.TerminationSubReason)
		for _, marker := range familyReasonMarkers {
			if strings.Contains(sub, marker) {
				rows[i].FamilyRelatedExits++
				break
			}
		}
	}
	for i := range rows {
		rows[i].PercentageOfExits = utils.Percentage(rows[i].TotalExits, len(former), 2)
	}
	return rows
}

// department with the most exits; ties resolve to the first-seen
// department. Nil when there are no leavers.
func topTurnoverDepartment(rows []DepartmentTurnover) (*string, float64) {
	if len(rows) == 0 {
		return nil, 0
	}
	top := 0
	for i := 1; i < len(rows); i++ {
		if rows[i].TotalExits > rows[top].TotalExits {
			top = i
		}
	}
	dept := rows[top].Department
	var total int
	for _, r := range rows {
		total += r.TotalExits
	}
	return &dept, utils.Percentage(rows[top].TotalExits, total, 1)
}

// top 3 resignation sub-reasons, descending by count, ties in first-seen
// order, formatted for the executive summary.
func turnoverMainReasons(former []*models.FormerEmployee) []string {
	counts := map[string]int{}
	order := []string{}
	for _, e := range former {
		if !utils.SameCategory(string(e.TerminationType), string(models.TerminationTypeResignation)) {
			continue
		}
		reason := strings.TrimSpace(e.TerminationSubReason)
		if reason == "" {
			continue
		}
		if _, ok := counts[reason]; !ok {
			order = append(order, reason)
		}
		counts[reason]++
	}

	// stable selection sort over first-seen order keeps ties deterministic
	ranked := make([]string, len(order))
	copy(ranked, order)
	for i := 0; i < len(ranked); i++ {
		best := i
		for j := i + 1; j < len(ranked); j++ {
			if counts[ranked[j]] > counts[ranked[best]] {
				best = j
			}
		}
		if best != i {
			picked := ranked[best]
			copy(ranked[i+1:best+1], ranked[i:best])
			ranked[i] = picked
		}
	}

	reasons := []string{}
	for i, reason := range ranked {
		if i == 3 {
			break
		}
		reasons = append(reasons, fmt.Sprintf("%s: %d resignations", reason, counts[reason]))
	}
	return reasons
}

// estimated replacement cost: annualized salary of each leaver times the
// configured factor. Leavers with no salary columns contribute zero but
// stay in the sum.
func turnoverCost(former []*models.FormerEmployee) decimal.Decimal {
	factor := decimal.NewFromFloat(config.TurnoverCostFactor())
	months := decimal.NewFromInt(12)
	total := decimal.Zero
	for _, e := range former {
		total = total.Add(e.TotalSalary().Mul(months).Mul(factor))
	}
	return total.Round(2)
}

// probation metrics are defined only over joiners with a recorded status;
// the rest are excluded from numerator and denominator.
func probationMetrics(joiners []*models.NewJoiner) (onProbation int, failureRate float64, failedCount int, failedNames []string) {
	failedNames = []string{}
	var recorded int
	for _, j := range joiners {
		status := strings.TrimSpace(string(j.ProbationStatus))
		if status == "" {
			continue
		}
		recorded++
		switch {
		case utils.SameCategory(status, string(models.ProbationStatusOnProbation)):
			onProbation++
		case utils.SameCategory(status, string(models.ProbationStatusFailed)):
			failedCount++
			failedNames = append(failedNames, j.FullName())
		}
	}
	failureRate = utils.Percentage(failedCount, recorded, 1)
	return onProbation, failureRate, failedCount, failedNames
}

func performanceMetrics(reviews []*models.InstructorPerformance) (poorCount int, exceedPct float64, topName *string) {
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	var exceed int
	top := 0
	for i, r := range reviews {
		switch {
		case utils.SameCategory(string(r.OverallRating), string(models.PerformanceRatingBelow)):
			poorCount++
		case utils.SameCategory(string(r.OverallRating), string(models.PerformanceRatingExceed)):
			exceed++
		}
		if r.OverallScore > reviews[top].OverallScore {
			top = i
		}
	}
	name := reviews[top].EmployeeName
	return poorCount, utils.Percentage(exceed, len(reviews), 2), &name
}
