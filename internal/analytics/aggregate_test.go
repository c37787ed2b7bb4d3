package analytics

import (
	"testing"
	"time"

	"github.com/telecuidado/backend/internal/types"
)

func attributed(op string, successful bool, duration float64) types.AttributedCall {
	return types.AttributedCall{
		SanitizedCall: types.SanitizedCall{Successful: successful, DurationSec: duration},
		OperatorName:  op,
	}
}

func TestAggregatePerOperator(t *testing.T) {
	calls := []types.AttributedCall{
		attributed("Ana Díaz", true, 60),
		attributed("Ana Díaz", true, 120),
		attributed("Ana Díaz", false, 0),
		attributed("Maria Rojas", true, 30),
	}
	res := Aggregate(calls)

	ana := res.Operators["Ana Díaz"]
	if ana == nil {
		t.Fatal("missing Ana Díaz bucket")
	}
	if ana.TotalCalls != 3 || ana.SuccessfulCalls != 2 || ana.FailedCalls != 1 {
		t.Errorf("counts = %d/%d/%d", ana.TotalCalls, ana.SuccessfulCalls, ana.FailedCalls)
	}
	if ana.TotalDurationSeconds != 180 {
		t.Errorf("duration = %v", ana.TotalDurationSeconds)
	}
	if ana.AverageDuration != 60 {
		t.Errorf("avg duration = %d, want 60", ana.AverageDuration)
	}
	if ana.SuccessRate != 67 { // round(2/3*100)
		t.Errorf("success rate = %d, want 67", ana.SuccessRate)
	}
}

func TestAggregateConservation(t *testing.T) {
	calls := []types.AttributedCall{
		attributed("Ana Díaz", true, 10),
		attributed("Maria Rojas", false, 20),
		attributed(types.UnassignedOperator, true, 0),
		attributed(types.UnassignedOperator, false, 5),
	}
	res := Aggregate(calls)

	totalSum := res.Unassigned.TotalCalls
	successSum := res.Unassigned.SuccessfulCalls
	for _, m := range res.Operators {
		totalSum += m.TotalCalls
		successSum += m.SuccessfulCalls
	}

	if totalSum != res.Global.TotalCalls {
		t.Errorf("per-operator totals %d != global %d", totalSum, res.Global.TotalCalls)
	}
	if successSum != res.Global.SuccessfulCalls {
		t.Errorf("per-operator successes %d != global %d", successSum, res.Global.SuccessfulCalls)
	}
	if res.Unassigned.TotalCalls != 2 {
		t.Errorf("unassigned bucket = %d, want 2", res.Unassigned.TotalCalls)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	res := Aggregate(nil)
	if res.Global.TotalCalls != 0 || res.Global.SuccessRate != 0 || res.Global.AverageDuration != 0 {
		t.Errorf("empty input must yield zeroed global metrics: %+v", res.Global)
	}
	if len(res.Operators) != 0 {
		t.Errorf("expected no operator buckets, got %d", len(res.Operators))
	}
}

func TestAggregateHistograms(t *testing.T) {
	// 2025-10-05 is a Sunday.
	sunday := time.Date(2025, time.October, 5, 14, 30, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)

	calls := []types.AttributedCall{
		{SanitizedCall: types.SanitizedCall{Date: types.CallDate{Time: sunday, Valid: true}}, OperatorName: "Ana Díaz"},
		{SanitizedCall: types.SanitizedCall{Date: types.CallDate{Time: monday, Valid: true}}, OperatorName: "Ana Díaz"},
		{SanitizedCall: types.SanitizedCall{}, OperatorName: "Ana Díaz"}, // unknown date: counted, no histogram entry
	}
	res := Aggregate(calls)

	if res.Global.CallsByWeekday[0] != 1 || res.Global.CallsByWeekday[1] != 1 {
		t.Errorf("weekday histogram = %v", res.Global.CallsByWeekday)
	}
	if res.Global.CallsByHour[14] != 2 {
		t.Errorf("hour histogram = %v", res.Global.CallsByHour)
	}
	if res.Global.TotalCalls != 3 {
		t.Errorf("unknown-date call dropped from totals: %d", res.Global.TotalCalls)
	}
}
