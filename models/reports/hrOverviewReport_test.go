package reports

import (
	"reflect"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"github.com/shopspring/decimal"
)

var asOf = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func date(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func activeEmployee(id, nationality string, salary int64, doj *time.Time) *models.Employee {
	return &models.Employee{
		EmployeeId:    id,
		FirstName:     "Emp",
		LastName:      id,
		Nationality:   nationality,
		DateOfJoining: doj,
		BasicSalary:   decimal.NewFromInt(salary),
	}
}

func leaver(dept string, tt models.TerminationType, subReason string, salary int64, dol *time.Time) *models.FormerEmployee {
	return &models.FormerEmployee{
		FirstName:            "Former",
		LastName:             dept,
		Department:           dept,
		TerminationType:      tt,
		TerminationSubReason: subReason,
		BasicSalary:          decimal.NewFromInt(salary),
		DateOfLeaving:        dol,
	}
}

func TestComputeOverviewEmptyStore(t *testing.T) {
	o := ComputeOverview(nil, nil, nil, nil, nil, asOf)

	if o.TotalEmployees != 0 || o.ActiveEmployees != 0 || o.FormerEmployees != 0 {
		t.Fatalf("counts = %d/%d/%d, want all zero", o.TotalEmployees, o.ActiveEmployees, o.FormerEmployees)
	}
	if o.AttritionRate != 0 {
		t.Fatalf("attrition_rate = %v, want 0 on an empty population", o.AttritionRate)
	}
	if !o.MonthlyPayroll.IsZero() || !o.TurnoverCost.IsZero() {
		t.Fatalf("payroll = %s, cost = %s, want zero", o.MonthlyPayroll, o.TurnoverCost)
	}
	if o.NationalitySplit == nil || o.TurnoverMainReasons == nil || o.DepartmentTurnover == nil || o.ProbationFailedNames == nil {
		t.Fatal("collection fields must be empty, not nil")
	}
	if o.TopTurnoverDepartment != nil || o.TopPerformerName != nil {
		t.Fatal("name fields must be nil when there is no data")
	}
}

func TestComputeOverviewAttritionRate(t *testing.T) {
	active := make([]*models.Employee, 42)
	for i := range active {
		active[i] = activeEmployee("A", "Indian", 1000, nil)
	}
	former := make([]*models.FormerEmployee, 8)
	for i := range former {
		former[i] = leaver("Ops", models.TerminationTypeResignation, "", 0, nil)
	}

	o := ComputeOverview(active, former, nil, nil, nil, asOf)

	if o.AttritionRate != 16.00 {
		t.Fatalf("attrition_rate = %v, want 16.00 (8 of 50)", o.AttritionRate)
	}
	if o.AttritionRate < 0 || o.AttritionRate > 100 {
		t.Fatalf("attrition_rate = %v, want within [0, 100]", o.AttritionRate)
	}

	// no leavers at all pins the rate to zero
	o = ComputeOverview(active, nil, nil, nil, nil, asOf)
	if o.AttritionRate != 0 {
		t.Fatalf("attrition_rate = %v, want 0 with no former employees", o.AttritionRate)
	}
}

func TestComputeOverviewNationalitySplit(t *testing.T) {
	active := []*models.Employee{
		activeEmployee("A", "Indian", 0, nil),
		activeEmployee("B", "Indian", 0, nil),
		activeEmployee("C", "Qatari", 0, nil),
		activeEmployee("D", "", 0, nil), // unrecorded, excluded both sides
	}

	o := ComputeOverview(active, nil, nil, nil, nil, asOf)

	if len(o.NationalitySplit) != 2 {
		t.Fatalf("split has %d entries, want 2: %v", len(o.NationalitySplit), o.NationalitySplit)
	}
	if o.NationalitySplit["Indian"] != 66.7 || o.NationalitySplit["Qatari"] != 33.3 {
		t.Fatalf("split = %v, want Indian 66.7 / Qatari 33.3", o.NationalitySplit)
	}
	var sum float64
	for _, pct := range o.NationalitySplit {
		sum += pct
	}
	if sum < 99.0 || sum > 101.0 {
		t.Fatalf("split sums to %v, want ~100", sum)
	}
}

func TestComputeOverviewContractSplit(t *testing.T) {
	withContract := func(id string, ct models.ContractType) *models.Employee {
		e := activeEmployee(id, "", 0, nil)
		e.ContractType = ct
		return e
	}
	active := []*models.Employee{
		withContract("A", models.ContractTypeMarried),
		withContract("B", "married"), // casing normalized
		withContract("C", models.ContractTypeSingle),
		withContract("D", "Widowed"), // unknown category counts in neither bucket
		withContract("E", ""),
	}

	o := ComputeOverview(active, nil, nil, nil, nil, asOf)

	if o.MarriedPct != 40.0 {
		t.Fatalf("married_pct = %v, want 40.0 (2 of 5)", o.MarriedPct)
	}
	if o.SinglePct != 20.0 {
		t.Fatalf("single_pct = %v, want 20.0 (1 of 5)", o.SinglePct)
	}

	// snapshot values win when non-zero; a zero snapshot column derives
	married := 55.5
	zero := 0.0
	o = ComputeOverview(active, nil, nil, nil, &Precomputed{MarriedPct: &married, SinglePct: &zero}, asOf)
	if o.MarriedPct != 55.5 {
		t.Fatalf("married_pct = %v, want the precomputed 55.5", o.MarriedPct)
	}
	if o.SinglePct != 20.0 {
		t.Fatalf("single_pct = %v, want derived 20.0 past the zero snapshot value", o.SinglePct)
	}

	// no contract data at all pins both to zero
	o = ComputeOverview(nil, nil, nil, nil, nil, asOf)
	if o.MarriedPct != 0 || o.SinglePct != 0 {
		t.Fatalf("empty roster split = %v/%v, want 0/0", o.MarriedPct, o.SinglePct)
	}
}

func TestComputeOverviewPayrollAndTenure(t *testing.T) {
	active := []*models.Employee{
		activeEmployee("A", "Indian", 4000, date(2020, 6, 15)), // 5 years
		activeEmployee("B", "Indian", 6000, date(2024, 6, 15)), // 1 year
		activeEmployee("C", "Indian", 5000, nil),               // no join date, excluded from tenure
	}

	o := ComputeOverview(active, nil, nil, nil, nil, asOf)

	if !o.MonthlyPayroll.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("monthly_payroll = %s, want 15000", o.MonthlyPayroll)
	}
	if o.AvgTenureYears != 3.0 {
		t.Fatalf("avg_tenure_years = %v, want 3.0 over the two dated employees", o.AvgTenureYears)
	}
}

func TestComputeOverviewTurnoverBreakdown(t *testing.T) {
	former := []*models.FormerEmployee{
		leaver("Ops", models.TerminationTypeTermination, "", 0, nil),
		leaver("Ops", models.TerminationTypeResignation, "", 0, nil),
		leaver("Ops", "", "", 0, nil), // unrecorded type counts in neither bucket
	}

	o := ComputeOverview(nil, former, nil, nil, nil, asOf)

	b := o.TurnoverBreakdown
	if b.TotalLeavers != 3 || b.Terminations != 1 || b.Resignations != 1 {
		t.Fatalf("breakdown = %+v, want 1/1 of 3", b)
	}
	if b.Terminations+b.Resignations > b.TotalLeavers {
		t.Fatalf("breakdown = %+v, buckets exceed total", b)
	}
}

func TestComputeOverviewTurnoverLastYear(t *testing.T) {
	former := []*models.FormerEmployee{
		leaver("Ops", models.TerminationTypeResignation, "", 0, date(2024, 3, 1)),
		leaver("Ops", models.TerminationTypeResignation, "", 0, date(2024, 11, 20)),
		leaver("Ops", models.TerminationTypeResignation, "", 0, date(2023, 5, 5)),
		leaver("Ops", models.TerminationTypeResignation, "", 0, nil),
	}

	o := ComputeOverview(nil, former, nil, nil, nil, asOf)
	if o.TurnoverLastYear != 2 {
		t.Fatalf("turnover_last_year = %d, want 2 leavers dated 2024", o.TurnoverLastYear)
	}

	// legacy import: no leaving dates at all, the full count substitutes
	undated := []*models.FormerEmployee{
		leaver("Ops", models.TerminationTypeResignation, "", 0, nil),
		leaver("Ops", models.TerminationTypeResignation, "", 0, nil),
	}
	o = ComputeOverview(nil, undated, nil, nil, nil, asOf)
	if o.TurnoverLastYear != 2 {
		t.Fatalf("turnover_last_year = %d, want the full former count when nothing is dated", o.TurnoverLastYear)
	}
}

func TestComputeOverviewTurnoverCost(t *testing.T) {
	t.Setenv("HR_TURNOVER_COST_FACTOR", "0.30")
	former := []*models.FormerEmployee{
		leaver("Ops", models.TerminationTypeResignation, "", 10000, nil),
	}

	o := ComputeOverview(nil, former, nil, nil, nil, asOf)

	// 10000 monthly * 12 * 0.30
	if !o.TurnoverCost.Equal(decimal.NewFromInt(36000)) {
		t.Fatalf("turnover_cost = %s, want 36000", o.TurnoverCost)
	}
}

func TestComputeOverviewDepartmentTurnover(t *testing.T) {
	former := []*models.FormerEmployee{
		leaver("Reception", models.TerminationTypeResignation, "marriage relocation", 0, nil),
		leaver("Instruction", models.TerminationTypeTermination, "performance", 0, nil),
		leaver("Reception", models.TerminationTypeResignation, "better offer", 0, nil),
		leaver("Instruction", models.TerminationTypeResignation, "family obligations", 0, nil),
	}

	o := ComputeOverview(nil, former, nil, nil, nil, asOf)

	if len(o.DepartmentTurnover) != 2 {
		t.Fatalf("department rows = %d, want 2", len(o.DepartmentTurnover))
	}
	// first-seen order, and a 2-2 tie resolves to the first-seen department
	if o.DepartmentTurnover[0].Department != "Reception" {
		t.Fatalf("first row = %q, want Reception (input order)", o.DepartmentTurnover[0].Department)
	}
	if o.TopTurnoverDepartment == nil || *o.TopTurnoverDepartment != "Reception" {
		t.Fatalf("top department = %v, want Reception on the tie", o.TopTurnoverDepartment)
	}
	if o.TopTurnoverPct != 50.0 {
		t.Fatalf("top_turnover_pct = %v, want 50.0", o.TopTurnoverPct)
	}

	reception := o.DepartmentTurnover[0]
	if reception.TotalExits != 2 || reception.Resignations != 2 || reception.FamilyRelatedExits != 1 {
		t.Fatalf("reception row = %+v, want 2 exits, 2 resignations, 1 family-related", reception)
	}
	if reception.PercentageOfExits != 50.00 {
		t.Fatalf("percentage_of_exits = %v, want 50.00", reception.PercentageOfExits)
	}
}

func TestComputeOverviewTurnoverMainReasons(t *testing.T) {
	former := []*models.FormerEmployee{
		leaver("Ops", models.TerminationTypeResignation, "Better offer", 0, nil),
		leaver("Ops", models.TerminationTypeResignation, "Relocation", 0, nil),
		leaver("Ops", models.TerminationTypeResignation, "Better offer", 0, nil),
		leaver("Ops", models.TerminationTypeTermination, "Misconduct", 0, nil), // terminations never rank
		leaver("Ops", models.TerminationTypeResignation, "Family", 0, nil),
		leaver("Ops", models.TerminationTypeResignation, "Salary", 0, nil),
	}

	o := ComputeOverview(nil, former, nil, nil, nil, asOf)

	want := []string{
		"Better offer: 2 resignations",
		"Relocation: 1 resignations",
		"Family: 1 resignations",
	}
	if !reflect.DeepEqual(o.TurnoverMainReasons, want) {
		t.Fatalf("turnover_main_reasons = %v, want %v", o.TurnoverMainReasons, want)
	}
}

func TestComputeOverviewProbation(t *testing.T) {
	joiners := []*models.NewJoiner{
		{FirstName: "Ali", ProbationStatus: models.ProbationStatusOnProbation},
		{FirstName: "Sara", LastName: "K", ProbationStatus: models.ProbationStatusFailed},
		{FirstName: "Omar", ProbationStatus: models.ProbationStatusCompleted},
		{FirstName: "Zed"}, // no status, excluded from the rate
	}

	o := ComputeOverview(nil, nil, joiners, nil, nil, asOf)

	if o.NewJoiners != 4 {
		t.Fatalf("new_joiners = %d, want 4", o.NewJoiners)
	}
	if o.OnProbationCount != 1 {
		t.Fatalf("on_probation_count = %d, want 1", o.OnProbationCount)
	}
	if o.ProbationFailureRate != 33.3 {
		t.Fatalf("probation_failure_rate = %v, want 33.3 (1 of 3 recorded)", o.ProbationFailureRate)
	}
	if o.ProbationFailedCount != 1 || !reflect.DeepEqual(o.ProbationFailedNames, []string{"Sara K"}) {
		t.Fatalf("failed = %d %v, want the one failed joiner by name", o.ProbationFailedCount, o.ProbationFailedNames)
	}
}

func TestComputeOverviewPerformance(t *testing.T) {
	reviews := []*models.InstructorPerformance{
		{EmployeeName: "First High", OverallScore: 4.8, OverallRating: models.PerformanceRatingExceed},
		{EmployeeName: "Low", OverallScore: 2.1, OverallRating: models.PerformanceRatingBelow},
		{EmployeeName: "Second High", OverallScore: 4.8, OverallRating: models.PerformanceRatingMeets},
		{EmployeeName: "Mid", OverallScore: 3.5, OverallRating: models.PerformanceRatingMeets},
	}

	o := ComputeOverview(nil, nil, nil, reviews, nil, asOf)

	if o.PoorPerformersCount != 1 {
		t.Fatalf("poor_performers_count = %d, want 1", o.PoorPerformersCount)
	}
	if o.ExceedExpectationsPct != 25.00 {
		t.Fatalf("exceed_expectations_pct = %v, want 25.00", o.ExceedExpectationsPct)
	}
	// score tie resolves to the earlier review
	if o.TopPerformerName == nil || *o.TopPerformerName != "First High" {
		t.Fatalf("top_performer_name = %v, want First High", o.TopPerformerName)
	}
}

func TestComputeOverviewPrecomputedPreference(t *testing.T) {
	active := []*models.Employee{
		activeEmployee("A", "Indian", 5000, nil),
	}
	former := []*models.FormerEmployee{
		leaver("Ops", models.TerminationTypeResignation, "Salary", 0, nil),
	}

	attrition := 12.34
	payroll := decimal.NewFromInt(99999)
	zeroRate := 0.0
	pre := &Precomputed{
		AttritionRate:    &attrition,
		MonthlyPayroll:   &payroll,
		AvgTenureYears:   &zeroRate, // zero precomputed falls through to derivation
		NationalitySplit: map[string]float64{"Qatari": 100},
	}

	o := ComputeOverview(active, former, nil, nil, pre, asOf)

	if o.AttritionRate != 12.34 {
		t.Fatalf("attrition_rate = %v, want the precomputed 12.34", o.AttritionRate)
	}
	if !o.MonthlyPayroll.Equal(payroll) {
		t.Fatalf("monthly_payroll = %s, want the precomputed 99999", o.MonthlyPayroll)
	}
	if o.AvgTenureYears != 0 {
		t.Fatalf("avg_tenure_years = %v, want derived 0 (no join dates)", o.AvgTenureYears)
	}
	if !reflect.DeepEqual(o.NationalitySplit, map[string]float64{"Qatari": 100}) {
		t.Fatalf("nationality_split = %v, want the precomputed map", o.NationalitySplit)
	}
	// fields with no precomputed value still derive
	if o.TurnoverBreakdown.Resignations != 1 {
		t.Fatalf("breakdown = %+v, want the derived resignation", o.TurnoverBreakdown)
	}
}

func TestComputeOverviewIdempotent(t *testing.T) {
	t.Setenv("HR_TURNOVER_COST_FACTOR", "0.30")
	active := []*models.Employee{
		activeEmployee("A", "Indian", 4000, date(2021, 1, 10)),
		activeEmployee("B", "Qatari", 7000, date(2019, 8, 1)),
	}
	former := []*models.FormerEmployee{
		leaver("Reception", models.TerminationTypeResignation, "Better offer", 3000, date(2024, 2, 2)),
		leaver("Instruction", models.TerminationTypeTermination, "Performance", 3500, date(2024, 9, 9)),
	}
	joiners := []*models.NewJoiner{
		{FirstName: "New", ProbationStatus: models.ProbationStatusOnProbation},
	}
	reviews := []*models.InstructorPerformance{
		{EmployeeName: "Inst", OverallScore: 4.0, OverallRating: models.PerformanceRatingMeets},
	}

	first := ComputeOverview(active, former, joiners, reviews, nil, asOf)
	second := ComputeOverview(active, former, joiners, reviews, nil, asOf)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs produced different overviews:\n%+v\n%+v", first, second)
	}
}
