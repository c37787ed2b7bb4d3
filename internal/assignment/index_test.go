package assignment

import (
	"testing"

	"github.com/telecuidado/backend/internal/types"
)

func TestBuildIndexPhoneShapes(t *testing.T) {
	assignments := []types.Assignment{
		{OperatorName: "Ana Díaz", Beneficiary: "Juan Perez", Phones: types.NewPhoneField("56912345678")},
		{OperatorName: "Maria Rojas", Beneficiary: "Rosa Soto", Phones: types.NewPhoneField("987654321; 222334455")},
		{OperatorName: "Pedro Lagos", Beneficiary: "Luis Mora", Phones: types.NewPhoneField("911112222", "933334444")},
	}
	idx := BuildIndex(assignments)

	tests := []struct {
		phone string
		want  string
	}{
		{"912345678", "Ana Díaz"}, // prefix-insensitive
		{"987654321", "Maria Rojas"},
		{"222334455", "Maria Rojas"}, // split from the semicolon list
		{"933334444", "Pedro Lagos"}, // second array entry
	}
	for _, tt := range tests {
		got, ok := idx.OperatorByPhone(tt.phone)
		if !ok || got != tt.want {
			t.Errorf("OperatorByPhone(%q) = %q, %v; want %q", tt.phone, got, ok, tt.want)
		}
	}

	if _, ok := idx.OperatorByPhone("000000000"); ok {
		t.Error("all-zero phone must not resolve")
	}
}

func TestBuildIndexLastWriteWins(t *testing.T) {
	assignments := []types.Assignment{
		{OperatorName: "Ana Díaz", Beneficiary: "Juan Perez", Phones: types.NewPhoneField("912345678")},
		{OperatorName: "Maria Rojas", Beneficiary: "Rosa Soto", Phones: types.NewPhoneField("912345678")},
	}
	idx := BuildIndex(assignments)

	// The later assignment is the documented winner.
	got, ok := idx.OperatorByPhone("912345678")
	if !ok || got != "Maria Rojas" {
		t.Errorf("duplicate phone resolved to %q, want later assignment (Maria Rojas)", got)
	}

	dups := idx.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate diagnostic, got %d", len(dups))
	}
	if dups[0].Kept != "Maria Rojas" || dups[0].Replaced != "Ana Díaz" {
		t.Errorf("diagnostic = %+v", dups[0])
	}
}

func TestLookupPrecedence(t *testing.T) {
	assignments := []types.Assignment{
		{OperatorName: "Ana Díaz", Beneficiary: "Juan Pérez Soto"},
		{OperatorName: "Maria Rojas", Beneficiary: "Rosa Miranda"},
	}
	idx := BuildIndex(assignments)

	tests := []struct {
		name       string
		query      string
		wantOp     string
		wantMethod types.AttributionMethod
	}{
		{"exact normalized", "juan perez soto", "Ana Díaz", types.MethodName},
		{"accents ignored", "Juan Perez Soto", "Ana Díaz", types.MethodName},
		{"partial containment", "Juan Pérez", "Ana Díaz", types.MethodNamePartial},
		{"reverse containment", "Sra. Rosa Miranda Vda.", "Maria Rojas", types.MethodNamePartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, method, ok := idx.Lookup(tt.query)
			if !ok {
				t.Fatalf("Lookup(%q) missed", tt.query)
			}
			if a.OperatorName != tt.wantOp {
				t.Errorf("operator = %q, want %q", a.OperatorName, tt.wantOp)
			}
			if method != tt.wantMethod {
				t.Errorf("method = %q, want %q", method, tt.wantMethod)
			}
		})
	}

	if _, _, ok := idx.Lookup("Nadie Conocido"); ok {
		t.Error("unexpected match for unknown beneficiary")
	}
	if _, _, ok := idx.Lookup(""); ok {
		t.Error("empty name must not match")
	}
}

func TestLookupDeterministicOnTies(t *testing.T) {
	// Two assignments both contain the query; sorted-key order makes the
	// winner stable across runs.
	assignments := []types.Assignment{
		{OperatorName: "Op B", Beneficiary: "Maria Jose Rojas"},
		{OperatorName: "Op A", Beneficiary: "Maria Jose"},
	}
	for i := 0; i < 20; i++ {
		idx := BuildIndex(assignments)
		a, _, ok := idx.Lookup("Maria")
		if !ok {
			t.Fatal("expected a partial match")
		}
		if a.OperatorName != "Op A" {
			t.Fatalf("tie-break not deterministic: got %q", a.OperatorName)
		}
	}
}
