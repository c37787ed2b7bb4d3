package attribution

import (
	"testing"

	"github.com/telecuidado/backend/internal/assignment"
	"github.com/telecuidado/backend/internal/types"
)

func testIndex() *assignment.Index {
	return assignment.BuildIndex([]types.Assignment{
		{OperatorName: "Ana Díaz", Beneficiary: "Juan Perez", Phones: types.NewPhoneField("56912345678")},
		{OperatorName: "Maria Rojas", Beneficiary: "Rosa Soto", Phones: types.NewPhoneField("987654321")},
	})
}

func TestResolvePhoneBeatsName(t *testing.T) {
	// Phone points at Maria Rojas even though the name matches Ana Díaz's
	// beneficiary; phone has precedence.
	call := types.SanitizedCall{
		Beneficiary: "Juan Perez",
		Phones:      []string{"987654321"},
	}
	got := Resolve(call, testIndex())
	if got.OperatorName != "Maria Rojas" || got.Method != types.MethodPhone {
		t.Errorf("got %q via %q, want Maria Rojas via phone", got.OperatorName, got.Method)
	}
}

func TestResolveNameFallback(t *testing.T) {
	call := types.SanitizedCall{
		Beneficiary: "juan pérez", // different case and accents, no phone
	}
	got := Resolve(call, testIndex())
	if got.OperatorName != "Ana Díaz" {
		t.Errorf("got %q, want Ana Díaz", got.OperatorName)
	}
}

func TestResolveRejectedPhoneFallsToName(t *testing.T) {
	// The all-zero phone is rejected by the normalizer, so the name path
	// must carry the call.
	call := types.SanitizedCall{
		Beneficiary: "Juan Perez",
		Phones:      []string{"000000000"},
	}
	got := Resolve(call, testIndex())
	if got.OperatorName != "Ana Díaz" || got.Method != types.MethodName {
		t.Errorf("got %q via %q, want Ana Díaz via name", got.OperatorName, got.Method)
	}
}

func TestResolveOperatorFieldLastResort(t *testing.T) {
	call := types.SanitizedCall{
		Beneficiary: "Nadie Conocido",
		Operator:    "Pedro Lagos", // survived sanitization
	}
	got := Resolve(call, testIndex())
	if got.OperatorName != "Pedro Lagos" || got.Method != types.MethodOperatorField {
		t.Errorf("got %q via %q, want operator-field fallback", got.OperatorName, got.Method)
	}
}

func TestResolveOperatorlessAssignmentFallsThrough(t *testing.T) {
	// An assignment row naming the beneficiary but no operator must not
	// attribute the call to operator "".
	idx := assignment.BuildIndex([]types.Assignment{
		{OperatorName: "", Beneficiary: "Juan Perez"},
	})

	got := Resolve(types.SanitizedCall{Beneficiary: "Juan Perez"}, idx)
	if got.OperatorName != types.UnassignedOperator || got.Method != types.MethodNone {
		t.Errorf("got %q via %q, want unassigned bucket", got.OperatorName, got.Method)
	}

	// With a surviving operator field the call lands there instead.
	got = Resolve(types.SanitizedCall{Beneficiary: "Juan Perez", Operator: "Pedro Lagos"}, idx)
	if got.OperatorName != "Pedro Lagos" || got.Method != types.MethodOperatorField {
		t.Errorf("got %q via %q, want operator-field fallback", got.OperatorName, got.Method)
	}
}

func TestResolveUnassigned(t *testing.T) {
	call := types.SanitizedCall{Beneficiary: "Nadie Conocido"}
	got := Resolve(call, testIndex())
	if got.OperatorName != types.UnassignedOperator || got.Method != types.MethodNone {
		t.Errorf("got %q via %q, want unassigned bucket", got.OperatorName, got.Method)
	}
}

func TestResolveDeterministic(t *testing.T) {
	idx := testIndex()
	call := types.SanitizedCall{
		Beneficiary: "Juan Perez",
		Phones:      []string{"111", "912345678"},
	}
	first := Resolve(call, idx)
	for i := 0; i < 50; i++ {
		got := Resolve(call, idx)
		if got.OperatorName != first.OperatorName || got.Method != first.Method {
			t.Fatalf("resolution changed between runs: %q/%q vs %q/%q",
				got.OperatorName, got.Method, first.OperatorName, first.Method)
		}
	}
}

func TestResolveAllCountsEveryCall(t *testing.T) {
	calls := []types.SanitizedCall{
		{Beneficiary: "Juan Perez"},
		{Beneficiary: ""},
		{Phones: []string{"987654321"}},
	}
	out := ResolveAll(calls, testIndex())
	if len(out) != len(calls) {
		t.Fatalf("expected %d attributed calls, got %d", len(calls), len(out))
	}
}
