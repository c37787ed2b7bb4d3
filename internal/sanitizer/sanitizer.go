package sanitizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/telecuidado/backend/internal/normalizer"
	"github.com/telecuidado/backend/internal/types"
)

// Days between the Excel epoch (1899-12-30) and the Unix epoch.
const excelEpochOffsetDays = 25569

// dmyPattern matches the Chilean day-month-year convention: D-M-YYYY with
// "-" or "/" separators. This takes precedence over any generic parse so
// 05-10-2025 reads as October 5th, not May 10th.
var dmyPattern = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`)

// genericLayouts are tried last, in order, for dates the sheet stored as
// ISO or exported timestamps.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
}

// ParseDate interprets the date cell of an imported call row. Precedence:
// D-M-YYYY string, Excel serial number, then generic layouts. Anything else
// yields an invalid CallDate; downstream code treats that as unknown recency
// and must not crash.
func ParseDate(v types.FlexValue) types.CallDate {
	if v.IsNum {
		return fromExcelSerial(v.Num)
	}

	s := strings.TrimSpace(v.Str)
	if s == "" {
		return types.CallDate{}
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (32-13-2024 would roll over), so
		// verify the components survived.
		if t.Year() == year && int(t.Month()) == month && t.Day() == day {
			return types.CallDate{Time: t, Valid: true}
		}
		return types.CallDate{}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return fromExcelSerial(serial)
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.CallDate{Time: t.UTC(), Valid: true}
		}
	}
	return types.CallDate{}
}

// fromExcelSerial converts an Excel day serial to a CallDate. Serials at or
// below zero are export artifacts, not dates.
func fromExcelSerial(serial float64) types.CallDate {
	if serial <= 0 {
		return types.CallDate{}
	}
	ms := (serial - excelEpochOffsetDays) * 86400 * 1000
	return types.CallDate{Time: time.UnixMilli(int64(ms)).UTC(), Valid: true}
}

// Success classification: single token-family policy. A result counts as a
// successful contact iff it carries a success token and no failure token.
// Failure tokens veto first because "sin respuesta" contains the success
// token "respuesta". Tokens are matched on the normalized (lower-case,
// accent-free) text, so "Contestó" matches "contest".
var (
	successTokens = []string{
		"exitos",    // llamado exitoso / llamada exitosa
		"contactad", // contactado / contactada
		"atendid",   // atendida / atendido
		"respuesta",
		"contest",  // contesta / contestó
		"respondi", // respondió
		"complet",  // completada
	}
	failureTokens = []string{
		"fallid", // llamado fallido / fallida
		"no contest",
		"sin respuesta",
		"ocupado",
		"hangup",
		"buzon", // buzón de voz
		"no identificado",
		"cortad", // cortada / cortado
	}
)

// ClassifyResult reports whether a result/status text counts as a
// successful contact.
func ClassifyResult(result string) bool {
	folded := normalizer.NormalizeName(result)
	if folded == "" {
		return false
	}
	for _, tok := range failureTokens {
		if strings.Contains(folded, tok) {
			return false
		}
	}
	for _, tok := range successTokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return false
}

// Operator-field rejection. The imported "operator" column sometimes holds
// a call result, a timestamp, or a row number instead of a teleoperator
// name; none of those may propagate as a fake operator.
var (
	bareTimePattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	bareIntPattern  = regexp.MustCompile(`^\d+$`)
	bareDatePattern = regexp.MustCompile(`^\d{1,4}[-/]\d{1,2}[-/]\d{1,4}$`)

	resultVocabulary = []string{
		"llamado exitoso",
		"llamado fallido",
		"hangup",
		"ocupado",
		"sin respuesta",
		"no contesta",
		"no identificado",
	}
)

// SanitizeOperator returns the trimmed operator value, or "" when the raw
// value is clearly not a person: a bare time, integer or date, a known
// call-result string, or fewer than 3 characters.
func SanitizeOperator(raw string) string {
	s := strings.TrimSpace(raw)
	if len([]rune(s)) < 3 {
		return ""
	}
	if bareTimePattern.MatchString(s) || bareIntPattern.MatchString(s) || bareDatePattern.MatchString(s) {
		return ""
	}
	folded := normalizer.NormalizeName(s)
	for _, v := range resultVocabulary {
		if folded == normalizer.NormalizeName(v) {
			return ""
		}
	}
	return s
}

// ParseDuration extracts a duration in seconds, 0 for missing or invalid.
func ParseDuration(v types.FlexValue) float64 {
	if v.IsNum {
		if v.Num > 0 {
			return v.Num
		}
		return 0
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil && f > 0 {
		return f
	}
	return 0
}

// Sanitize converts a raw imported row into its canonical working form.
// Total: any input shape yields a defined SanitizedCall.
func Sanitize(raw types.RawCallRecord) types.SanitizedCall {
	return types.SanitizedCall{
		Date:        ParseDate(raw.Date),
		Result:      strings.TrimSpace(raw.Result),
		Successful:  ClassifyResult(raw.Result),
		DurationSec: ParseDuration(raw.Duration),
		Beneficiary: strings.TrimSpace(raw.Beneficiary),
		Phones:      raw.Phones.Candidates(),
		Operator:    SanitizeOperator(raw.Operator),
	}
}
