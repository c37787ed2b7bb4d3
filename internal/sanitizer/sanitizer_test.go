package sanitizer

import (
	"testing"
	"time"

	"github.com/telecuidado/backend/internal/types"
)

func str(s string) types.FlexValue      { return types.FlexValue{Str: s} }
func num(f float64) types.FlexValue     { return types.FlexValue{Num: f, IsNum: true} }
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateDayMonthYear(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"05-10-2025", day(2025, time.October, 5)},
		{"5/1/2024", day(2024, time.January, 5)},
		{"31-12-2023", day(2023, time.December, 31)},
	}
	for _, tt := range tests {
		got := ParseDate(str(tt.input))
		if !got.Valid {
			t.Errorf("ParseDate(%q) not valid", tt.input)
			continue
		}
		if !got.Time.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got.Time, tt.want)
		}
	}
}

func TestParseDateDayMonthPrecedence(t *testing.T) {
	// 05-10-2025 is October 5th under the local convention, never May 10th.
	got := ParseDate(str("05-10-2025"))
	if !got.Valid || got.Time.Month() != time.October {
		t.Errorf("expected October, got %v", got.Time)
	}
}

func TestParseDateExcelSerial(t *testing.T) {
	// Serial 25569 is the Unix epoch itself.
	got := ParseDate(num(25569))
	if !got.Valid || !got.Time.Equal(time.Unix(0, 0).UTC()) {
		t.Errorf("serial 25569 = %v, want unix epoch", got.Time)
	}

	// 45000 days -> 2023-03-15.
	got = ParseDate(num(45000))
	if !got.Valid || !got.Time.Equal(day(2023, time.March, 15)) {
		t.Errorf("serial 45000 = %v, want 2023-03-15", got.Time)
	}

	// Numeric strings are serials too.
	got = ParseDate(str("45000"))
	if !got.Valid || !got.Time.Equal(day(2023, time.March, 15)) {
		t.Errorf("string serial 45000 = %v, want 2023-03-15", got.Time)
	}
}

func TestParseDateGenericFallback(t *testing.T) {
	got := ParseDate(str("2025-10-05"))
	if !got.Valid || !got.Time.Equal(day(2025, time.October, 5)) {
		t.Errorf("ISO date = %v, want 2025-10-05", got.Time)
	}
}

func TestParseDateUnparseable(t *testing.T) {
	inputs := []types.FlexValue{
		str(""),
		str("N/A"),
		str("sin fecha"),
		str("32-13-2024"), // impossible components must not roll over
		num(0),
		num(-3),
	}
	for _, in := range inputs {
		if got := ParseDate(in); got.Valid {
			t.Errorf("ParseDate(%v) = %v, want invalid", in, got.Time)
		}
	}
}

func TestClassifyResult(t *testing.T) {
	tests := []struct {
		result string
		want   bool
	}{
		{"Llamado exitoso", true},
		{"exitosa", true},
		{"Contactado", true},
		{"Contestó", true},
		{"Atendida por familiar", true},
		{"Llamada completada", true},
		{"Llamado fallido", false},
		{"Sin respuesta", false}, // contains "respuesta" but failure token vetoes
		{"No contesta", false},
		{"Ocupado", false},
		{"HANGUP", false},
		{"Buzón de voz", false},
		{"", false},
		{"derivado", false},
	}
	for _, tt := range tests {
		if got := ClassifyResult(tt.result); got != tt.want {
			t.Errorf("ClassifyResult(%q) = %v, want %v", tt.result, got, tt.want)
		}
	}
}

func TestSanitizeOperatorRejection(t *testing.T) {
	rejected := []string{
		"Llamado exitoso",
		"LLAMADO FALLIDO",
		"HANGUP",
		"Ocupado",
		"Sin respuesta",
		"No contesta",
		"No identificado",
		"14:30",
		"9:05:33",
		"07-10-2024",
		"2024/10/07",
		"12345",
		"ab",
		" ",
	}
	for _, in := range rejected {
		if got := SanitizeOperator(in); got != "" {
			t.Errorf("SanitizeOperator(%q) = %q, want rejection", in, got)
		}
	}

	accepted := []string{"Ana Díaz", "maria rojas", "J. Soto"}
	for _, in := range accepted {
		if got := SanitizeOperator(in); got == "" {
			t.Errorf("SanitizeOperator(%q) rejected a plausible name", in)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   types.FlexValue
		want float64
	}{
		{num(125), 125},
		{num(-4), 0},
		{str("90"), 90},
		{str("12,5"), 12.5},
		{str("n/a"), 0},
		{str(""), 0},
	}
	for _, tt := range tests {
		if got := ParseDuration(tt.in); got != tt.want {
			t.Errorf("ParseDuration(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	raw := types.RawCallRecord{
		Date:        str("05-10-2025"),
		Result:      " Llamado exitoso ",
		Duration:    num(62),
		Beneficiary: " Juan Perez ",
		Phones:      types.NewPhoneField("912345678; 987654321"),
		Operator:    "Sin respuesta",
	}
	got := Sanitize(raw)

	if !got.Date.Valid || !got.Date.Time.Equal(day(2025, time.October, 5)) {
		t.Errorf("date = %+v", got.Date)
	}
	if !got.Successful {
		t.Error("expected successful classification")
	}
	if got.Beneficiary != "Juan Perez" {
		t.Errorf("beneficiary = %q", got.Beneficiary)
	}
	if len(got.Phones) != 2 {
		t.Fatalf("expected 2 phone candidates, got %d", len(got.Phones))
	}
	if got.Operator != "" {
		t.Errorf("operator %q should have been rejected", got.Operator)
	}
	if got.DurationSec != 62 {
		t.Errorf("duration = %v", got.DurationSec)
	}
}
