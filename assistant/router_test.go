package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/models/reports"
)

type stubCompleter struct {
	reply     string
	err       error
	gotSystem string
	gotTurns  []Turn
	calls     int
}

func (s *stubCompleter) Complete(_ context.Context, system string, turns []Turn) (string, error) {
	s.calls++
	s.gotSystem = system
	s.gotTurns = turns
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func rosterWithNationalities(nationalities ...string) []*models.Employee {
	roster := make([]*models.Employee, 0, len(nationalities))
	for i, nat := range nationalities {
		roster = append(roster, &models.Employee{
			EmployeeId:  "EMP-" + string(rune('A'+i)),
			FirstName:   "Test",
			LastName:    "Employee",
			Nationality: nat,
		})
	}
	return roster
}

func TestRouteNationalityBeatsAttrition(t *testing.T) {
	stub := &stubCompleter{reply: "should not be called"}
	r := NewRouter(stub)
	roster := rosterWithNationalities("Indian", "Indian", "Qatari")

	ans := r.Route(context.Background(), "What % of Indian employees are leaving?", &reports.Overview{}, roster, nil)

	if ans.Intent != IntentNationality {
		t.Fatalf("intent = %q, want %q", ans.Intent, IntentNationality)
	}
	if ans.FromFallback {
		t.Fatal("nationality answer must never come from the fallback")
	}
	if stub.calls != 0 {
		t.Fatalf("completer called %d times, want 0", stub.calls)
	}
}

func TestRouteNationalitySpecificCount(t *testing.T) {
	r := NewRouter(nil)
	roster := rosterWithNationalities("Indian", "Indian", "Qatari")

	ans := r.Route(context.Background(), "How many Indian employees do we have?", &reports.Overview{}, roster, nil)

	if !strings.Contains(ans.Text, "2 Indian employees") {
		t.Fatalf("text = %q, want Indian count of 2", ans.Text)
	}
	if !strings.Contains(ans.Text, "66.7%") {
		t.Fatalf("text = %q, want share 66.7%%", ans.Text)
	}
}

func TestRouteNationalityNoData(t *testing.T) {
	r := NewRouter(nil)
	roster := rosterWithNationalities("", "  ", "")

	ans := r.Route(context.Background(), "What is our nationality mix?", &reports.Overview{}, roster, nil)

	if ans.Intent != IntentNationality {
		t.Fatalf("intent = %q, want %q", ans.Intent, IntentNationality)
	}
	if !strings.Contains(ans.Text, "not yet fully available") {
		t.Fatalf("text = %q, want the no-data message", ans.Text)
	}
}

func TestRouteNationalityGenericSummary(t *testing.T) {
	r := NewRouter(nil)
	roster := rosterWithNationalities("Indian", "Indian", "Qatari", "Nepali")

	ans := r.Route(context.Background(), "Tell me about employee nationalities", &reports.Overview{}, roster, nil)

	if !strings.Contains(ans.Text, "3 distinct nationalities") {
		t.Fatalf("text = %q, want 3 distinct nationalities", ans.Text)
	}
	if !strings.Contains(ans.Text, "Indian") {
		t.Fatalf("text = %q, want Indian as the largest group", ans.Text)
	}
}

func TestRouteTurnoverCostIsAttritionNotFinancial(t *testing.T) {
	r := NewRouter(nil)

	ans := r.Route(context.Background(), "How much does turnover cost us?", &reports.Overview{}, nil, nil)

	if ans.Intent != IntentAttrition {
		t.Fatalf("intent = %q, want %q (category order is first-match-wins)", ans.Intent, IntentAttrition)
	}
}

func TestRouteCannedIntents(t *testing.T) {
	r := NewRouter(nil)
	dept := "Operations"
	overview := &reports.Overview{
		TotalEmployees:        42,
		ActiveEmployees:       42,
		FormerEmployees:       8,
		AttritionRate:         16.0,
		TopTurnoverDepartment: &dept,
		TopTurnoverPct:        62.5,
	}

	cases := []struct {
		question string
		intent   Intent
		fragment string
	}{
		{"What is our attrition rate?", IntentAttrition, "16.00%"},
		{"Show me the revenue numbers", IntentFinancial, "revenue QAR"},
		{"How are sales doing?", IntentSales, "Revenue currently stands"},
		{"Where can we find savings?", IntentCostEfficiency, "Monthly payroll"},
		{"What does the hiring pipeline look like?", IntentGrowth, "Headcount is 42"},
		{"Give me a 60-second briefing", IntentExecutiveOverview, "60-second overview"},
	}
	for _, tc := range cases {
		ans := r.Route(context.Background(), tc.question, overview, nil, nil)
		if ans.Intent != tc.intent {
			t.Errorf("%q: intent = %q, want %q", tc.question, ans.Intent, tc.intent)
			continue
		}
		if ans.FromFallback {
			t.Errorf("%q: canned answer flagged as fallback", tc.question)
		}
		if !strings.Contains(ans.Text, tc.fragment) {
			t.Errorf("%q: text = %q, want fragment %q", tc.question, ans.Text, tc.fragment)
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	r := NewRouter(nil)
	roster := rosterWithNationalities("Indian", "Qatari", "Indian")

	first := r.Route(context.Background(), "nationality breakdown please", &reports.Overview{}, roster, nil)
	second := r.Route(context.Background(), "nationality breakdown please", &reports.Overview{}, roster, nil)

	if first.Text != second.Text || first.Intent != second.Intent {
		t.Fatalf("same question produced different answers: %q vs %q", first.Text, second.Text)
	}
}

func TestRouteFallbackSuccess(t *testing.T) {
	stub := &stubCompleter{reply: "Here is my take on parking."}
	r := NewRouter(stub)

	ans := r.Route(context.Background(), "Should we buy the plot next door?", &reports.Overview{}, nil, nil)

	if ans.Intent != IntentFallback || !ans.FromFallback {
		t.Fatalf("answer = %+v, want fallback intent", ans)
	}
	if ans.Err != nil {
		t.Fatalf("unexpected error: %v", ans.Err)
	}
	if ans.Text != stub.reply {
		t.Fatalf("text = %q, want the completer reply verbatim", ans.Text)
	}
	if !strings.Contains(stub.gotSystem, "hr_overview") {
		t.Fatalf("system prompt %q missing the overview block", stub.gotSystem)
	}
}

func TestRouteFallbackError(t *testing.T) {
	boom := errors.New("quota exceeded")
	stub := &stubCompleter{err: boom}
	r := NewRouter(stub)

	ans := r.Route(context.Background(), "Should we buy the plot next door?", &reports.Overview{}, nil, nil)

	if !errors.Is(ans.Err, boom) {
		t.Fatalf("err = %v, want wrapped %v", ans.Err, boom)
	}
	if ans.Text != fallbackUnavailableMsg {
		t.Fatalf("text = %q, want the user-facing unavailable message", ans.Text)
	}
	if stub.calls != 1 {
		t.Fatalf("completer called %d times, want exactly 1 (no retries)", stub.calls)
	}
}

func TestRouteFallbackNilCompleter(t *testing.T) {
	r := NewRouter(nil)

	ans := r.Route(context.Background(), "Should we buy the plot next door?", &reports.Overview{}, nil, nil)

	if ans.Intent != IntentFallback {
		t.Fatalf("intent = %q, want %q", ans.Intent, IntentFallback)
	}
	if ans.Text != fallbackUnavailableMsg {
		t.Fatalf("text = %q, want the unavailable message", ans.Text)
	}
}

func TestRouteFallbackHistoryClamp(t *testing.T) {
	stub := &stubCompleter{reply: "ok"}
	r := NewRouter(stub)

	history := make([]Turn, 10)
	for i := range history {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history[i] = Turn{Role: role, Content: "turn"}
	}

	r.Route(context.Background(), "something off-script", &reports.Overview{}, nil, history)

	if len(stub.gotTurns) != historyWindow+1 {
		t.Fatalf("completer received %d turns, want %d history + question", len(stub.gotTurns), historyWindow)
	}
	last := stub.gotTurns[len(stub.gotTurns)-1]
	if last.Role != RoleUser || last.Content != "something off-script" {
		t.Fatalf("last turn = %+v, want the question as a user turn", last)
	}
}
