package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/policy"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

func testEntry(minutes int, mode string, individual, cultural, boardApproved bool) *types.SupervisionEntry {
	return &types.SupervisionEntry{
		ID:                      uuid.New(),
		DurationMinutes:         minutes,
		Mode:                    mode,
		IsIndividual:            individual,
		IsCultural:              cultural,
		SupervisorBoardApproved: boardApproved,
	}
}

func testObservation(obsType string) *types.SupervisionObservation {
	return &types.SupervisionObservation{ID: uuid.New(), ObservationType: obsType}
}

func TestEvaluateComplianceHourConversion(t *testing.T) {
	// 1500 minutes of direct in-person supervision converts to exactly
	// 25.00 hours. With no observations recorded, the observation count is
	// the single shortfall.
	pol := policy.SupervisionPolicy{
		RequiredTotalHours:       25,
		RequiredObservationCount: 2,
	}
	entries := []*types.SupervisionEntry{
		testEntry(600, types.ModeDirectInPerson, true, true, true),
		testEntry(480, types.ModeDirectInPerson, true, true, true),
		testEntry(420, types.ModeDirectInPerson, true, true, true),
	}

	eval := EvaluateCompliance(entries, nil, pol)

	if eval.Totals.TotalHours != 25.00 {
		t.Fatalf("TotalHours=%v, want 25.00", eval.Totals.TotalHours)
	}
	if eval.Totals.DirectInPersonHours != 25.00 {
		t.Fatalf("DirectInPersonHours=%v, want 25.00", eval.Totals.DirectInPersonHours)
	}
	if p, _ := eval.Predicate(PredicateTotalHours); !p.Met {
		t.Fatalf("total hours predicate not met at exactly the threshold")
	}
	if p, _ := eval.Predicate(PredicateObservationCount); p.Met {
		t.Fatalf("observation predicate met with no recorded observations")
	}
	if eval.IsCompliant {
		t.Fatalf("IsCompliant=true with an unmet predicate")
	}
	if len(eval.Warnings) != 1 {
		t.Fatalf("warnings=%v, want exactly one for the observation shortfall", eval.Warnings)
	}
	if !strings.Contains(eval.Warnings[0], "observations below required") {
		t.Fatalf("warning %q does not name the observation shortfall", eval.Warnings[0])
	}
}

func TestEvaluateComplianceFullyCompliant(t *testing.T) {
	pol := policy.SupervisionPolicy{
		RequiredTotalHours:       2,
		RequiredCulturalHours:    0.5,
		MinIndividualRatio:       0.5,
		MinDirectRatio:           0.5,
		MinBoardApprovedRatio:    0.5,
		RequiredObservationCount: 1,
	}
	entries := []*types.SupervisionEntry{
		testEntry(90, types.ModeDirectInPerson, true, true, true),
		testEntry(60, types.ModeIndirect, false, false, false),
	}
	observations := []*types.SupervisionObservation{
		testObservation(types.ObservationIntervention),
	}

	eval := EvaluateCompliance(entries, observations, pol)

	if !eval.IsCompliant {
		t.Fatalf("IsCompliant=false, warnings=%v", eval.Warnings)
	}
	for _, p := range eval.Predicates {
		if !p.Met {
			t.Fatalf("predicate %s not met: %s", p.Name, p.Warning)
		}
	}
	if len(eval.Warnings) != 0 {
		t.Fatalf("unexpected warnings on compliant evaluation: %v", eval.Warnings)
	}
	if eval.Totals.TotalHours != 2.5 {
		t.Fatalf("TotalHours=%v, want 2.5", eval.Totals.TotalHours)
	}
	if eval.Totals.CulturalHours != 1.5 {
		t.Fatalf("CulturalHours=%v, want 1.5", eval.Totals.CulturalHours)
	}
}

func TestEvaluateComplianceEmptyInputs(t *testing.T) {
	eval := EvaluateCompliance(nil, nil, policy.Default())

	if eval.IsCompliant {
		t.Fatalf("IsCompliant=true for a trainee with no recorded supervision")
	}
	if len(eval.Predicates) != 6 {
		t.Fatalf("predicate count=%d, want 6", len(eval.Predicates))
	}
	for _, p := range eval.Predicates {
		if p.Met {
			t.Fatalf("predicate %s met with no data", p.Name)
		}
	}
	if eval.Totals.TotalHours != 0 {
		t.Fatalf("TotalHours=%v, want 0", eval.Totals.TotalHours)
	}
}

func TestEvaluateComplianceMalformedEntriesExcluded(t *testing.T) {
	pol := policy.SupervisionPolicy{RequiredTotalHours: 1}
	entries := []*types.SupervisionEntry{
		testEntry(60, types.ModeDirectInPerson, true, false, true),
		testEntry(-30, types.ModeDirectInPerson, true, false, true),
		testEntry(45, "carrier_pigeon", true, false, true),
		nil,
	}

	eval := EvaluateCompliance(entries, nil, pol)

	if eval.Totals.TotalHours != 1.0 {
		t.Fatalf("TotalHours=%v, want 1.0 from the single valid entry", eval.Totals.TotalHours)
	}
	var excluded int
	for _, w := range eval.Warnings {
		if strings.Contains(w, "excluded") {
			excluded++
		}
	}
	if excluded != 2 {
		t.Fatalf("exclusion warnings=%d, want 2 (negative duration, unknown mode)", excluded)
	}
}

func TestEvaluateComplianceDeterministic(t *testing.T) {
	pol := policy.Default()
	entries := []*types.SupervisionEntry{
		testEntry(100, types.ModeDirectVideo, true, true, true),
		testEntry(80, types.ModeIndirect, false, false, false),
	}
	observations := []*types.SupervisionObservation{
		testObservation(types.ObservationAssessment),
		testObservation(types.ObservationIntervention),
	}

	first := EvaluateCompliance(entries, observations, pol)
	second := EvaluateCompliance(entries, observations, pol)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated evaluation of identical inputs differs:\n%+v\n%+v", first, second)
	}
}

func TestEvaluateComplianceRatioShortfall(t *testing.T) {
	pol := policy.SupervisionPolicy{
		MinIndividualRatio: 0.5,
		MinDirectRatio:     0.66,
	}
	// 40% individual, 40% direct.
	entries := []*types.SupervisionEntry{
		testEntry(40, types.ModeDirectPhone, true, false, false),
		testEntry(60, types.ModeIndirect, false, false, false),
	}

	eval := EvaluateCompliance(entries, nil, pol)

	if p, _ := eval.Predicate(PredicateIndividualRatio); p.Met {
		t.Fatalf("individual ratio predicate met at 40%% against a 50%% floor")
	}
	if p, _ := eval.Predicate(PredicateDirectRatio); p.Met {
		t.Fatalf("direct ratio predicate met at 40%% against a 66%% floor")
	}
	if p, _ := eval.Predicate(PredicateTotalHours); !p.Met {
		t.Fatalf("total hours predicate unmet with a zero-hour requirement")
	}
}

func TestMinutesToHoursRounding(t *testing.T) {
	cases := []struct {
		minutes int
		want    float64
	}{
		{60, 1.0},
		{90, 1.5},
		{100, 1.67},
		{59, 0.98},
		{0, 0},
	}
	for _, tc := range cases {
		if got := minutesToHours(tc.minutes); got != tc.want {
			t.Fatalf("minutesToHours(%d)=%v, want %v", tc.minutes, got, tc.want)
		}
	}
}
