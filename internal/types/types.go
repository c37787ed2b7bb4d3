package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FollowUpStatus classifies a beneficiary by how recently a teleoperator
// reached them successfully.
type FollowUpStatus string

const (
	StatusAlDia     FollowUpStatus = "al-dia"
	StatusPendiente FollowUpStatus = "pendiente"
	StatusUrgente   FollowUpStatus = "urgente"
)

// ValidStatus reports whether s is one of the three follow-up states.
func ValidStatus(s string) bool {
	switch FollowUpStatus(s) {
	case StatusAlDia, StatusPendiente, StatusUrgente:
		return true
	}
	return false
}

// UnassignedOperator is the sentinel bucket for calls that could not be
// attributed to any teleoperator. It is counted separately, never dropped.
const UnassignedOperator = "No Asignado"

// AttributionMethod identifies how a call was linked to its operator.
type AttributionMethod string

const (
	MethodPhone         AttributionMethod = "phone"
	MethodName          AttributionMethod = "name"
	MethodNameFold      AttributionMethod = "name_fold"
	MethodNamePartial   AttributionMethod = "name_partial"
	MethodOperatorField AttributionMethod = "operator_field"
	MethodNone          AttributionMethod = "none"
)

// CallDate is a tagged date parse result. Valid=false means the source value
// could not be interpreted; such records still count toward totals but carry
// unknown recency. A sentinel string never stands in for a missing date.
type CallDate struct {
	Time  time.Time `json:"time,omitempty"`
	Valid bool      `json:"valid"`
}

// FlexValue is a scalar of unknown type from a source sheet or document.
// Spreadsheet exports deliver dates as DD-MM-YYYY strings, Excel serial
// numbers, or free text, and durations as numbers or numeric strings.
type FlexValue struct {
	Str   string
	Num   float64
	IsNum bool
}

// String returns the raw value as text.
func (v FlexValue) String() string {
	if v.IsNum {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// IsZero reports whether the value is empty.
func (v FlexValue) IsZero() bool {
	return !v.IsNum && strings.TrimSpace(v.Str) == ""
}

// UnmarshalJSON accepts JSON numbers, strings, and null.
func (v *FlexValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = FlexValue{}
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*v = FlexValue{Str: str}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*v = FlexValue{Num: num, IsNum: true}
	return nil
}

// MarshalJSON writes the value back in its original shape.
func (v FlexValue) MarshalJSON() ([]byte, error) {
	if v.IsNum {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Str)
}

// PhoneField holds phone data as it appears in source records: a single
// value, a list, or a semicolon-delimited string. Modeled as an explicit
// variant so index building stays exhaustive instead of probing shapes.
type PhoneField struct {
	values []string
}

// NewPhoneField builds a PhoneField from raw values.
func NewPhoneField(values ...string) PhoneField {
	return PhoneField{values: values}
}

// Candidates returns every non-empty phone candidate, with semicolon-joined
// entries split apart. Each candidate still needs normalization.
func (p PhoneField) Candidates() []string {
	var out []string
	for _, v := range p.values {
		for _, part := range strings.Split(v, ";") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// UnmarshalJSON accepts a string, a number, an array of either, or null.
func (p *PhoneField) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*p = PhoneField{}
		return nil
	}
	if len(s) > 0 && s[0] == '[' {
		var items []FlexValue
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			values = append(values, item.String())
		}
		*p = PhoneField{values: values}
		return nil
	}
	var single FlexValue
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*p = PhoneField{values: []string{single.String()}}
	return nil
}

// MarshalJSON writes the candidates as an array.
func (p PhoneField) MarshalJSON() ([]byte, error) {
	values := p.values
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

// RawCallRecord is one imported call-result row before sanitization. Field
// provenance is unreliable: Operator may hold a result string or a timestamp
// instead of a name, and Date arrives in whatever shape the export produced.
type RawCallRecord struct {
	Date        FlexValue  `json:"fecha"`
	Result      string     `json:"resultado"`
	Duration    FlexValue  `json:"duracion,omitempty"`
	Beneficiary string     `json:"beneficiario"`
	Phones      PhoneField `json:"telefono"`
	Operator    string     `json:"operador,omitempty"`
}

// Assignment links a teleoperator to a beneficiary. Supplied externally and
// read-only to the engine.
type Assignment struct {
	OperatorID   string     `json:"operadorId,omitempty"`
	OperatorName string     `json:"operador"`
	Beneficiary  string     `json:"beneficiario"`
	Phones       PhoneField `json:"telefonos"`
	Commune      string     `json:"comuna,omitempty"`
}

// SanitizedCall is a call record after defensive parsing: tagged date,
// success classification, and an operator field that is either a plausible
// person name or empty.
type SanitizedCall struct {
	Date        CallDate `json:"date"`
	Result      string   `json:"result"`
	Successful  bool     `json:"successful"`
	DurationSec float64  `json:"durationSec"`
	Beneficiary string   `json:"beneficiary"`
	Phones      []string `json:"phones,omitempty"`
	Operator    string   `json:"operator,omitempty"`
}

// AttributedCall is a sanitized call resolved to its owning operator, or to
// the unassigned bucket. Every input record maps to exactly one of these.
type AttributedCall struct {
	SanitizedCall
	OperatorName string            `json:"operatorName"`
	Method       AttributionMethod `json:"method"`
}

// OperatorMetrics aggregates attributed calls for one operator. Recomputed
// wholesale on every analysis run.
type OperatorMetrics struct {
	OperatorName         string  `json:"operatorName"`
	TotalCalls           int     `json:"totalCalls"`
	SuccessfulCalls      int     `json:"successfulCalls"`
	FailedCalls          int     `json:"failedCalls"`
	TotalDurationSeconds float64 `json:"totalDurationSeconds"`
	AverageDuration      int     `json:"averageDuration"`
	SuccessRate          int     `json:"successRate"` // round(successful/total*100), 0 when no calls
}

// GlobalMetrics covers all calls regardless of attribution, with call-volume
// histograms keyed by the parsed call date. Weekday is indexed Sunday=0.
type GlobalMetrics struct {
	OperatorMetrics
	CallsByWeekday [7]int  `json:"callsByWeekday"`
	CallsByHour    [24]int `json:"callsByHour"`
}

// BeneficiaryFollowUp is the per-beneficiary contact-freshness record.
// Operator, phone and commune come only from the assignment list, never
// from call data. DaysSinceSuccess is -1 when no successful call is on
// record.
type BeneficiaryFollowUp struct {
	Beneficiary        string         `json:"beneficiary"`
	OperatorName       string         `json:"operatorName,omitempty"`
	Phone              string         `json:"phone,omitempty"`
	Commune            string         `json:"commune,omitempty"`
	CallCount          int            `json:"callCount"`
	LastSuccessfulCall CallDate       `json:"lastSuccessfulCall"`
	LastCall           CallDate       `json:"lastCall"`
	LastCallResult     string         `json:"lastCallResult,omitempty"`
	DaysSinceSuccess   int            `json:"daysSinceSuccess"`
	Status             FollowUpStatus `json:"status"`
}

// DuplicatePhone records a phone key claimed by more than one assignment.
// The later assignment wins; the diagnostic keeps the conflict visible.
type DuplicatePhone struct {
	PhoneKey string `json:"phoneKey"`
	Kept     string `json:"kept"`
	Replaced string `json:"replaced"`
}

// Diagnostics summarizes data-quality findings from one analysis run so
// supervisors can judge attribution coverage.
type Diagnostics struct {
	DuplicatePhones         []DuplicatePhone          `json:"duplicatePhones,omitempty"`
	UnparseableDates        int                       `json:"unparseableDates"`
	RejectedOperatorFields  int                       `json:"rejectedOperatorFields"`
	CallsWithoutBeneficiary int                       `json:"callsWithoutBeneficiary"`
	AttributionByMethod     map[AttributionMethod]int `json:"attributionByMethod"`
	AttributionCoverage     int                       `json:"attributionCoverage"` // percent of calls matched to an operator
}

// Analysis is the full output of one engine run over a snapshot.
type Analysis struct {
	GeneratedAt time.Time                   `json:"generatedAt"`
	Operators   map[string]*OperatorMetrics `json:"operators"`
	Unassigned  *OperatorMetrics            `json:"unassigned"`
	Global      GlobalMetrics               `json:"global"`
	FollowUps   []BeneficiaryFollowUp       `json:"followUps"`
	Diagnostics Diagnostics                 `json:"diagnostics"`
}

// ImportBatch describes one spreadsheet import, persisted for audit.
type ImportBatch struct {
	DateKey    string `json:"dateKey" dynamodbav:"DateKey"`   // YYYY-MM-DD (partition key)
	ImportID   string `json:"importId" dynamodbav:"ImportID"` // sort key
	Kind       string `json:"kind" dynamodbav:"Kind"`         // "calls" or "assignments"
	FileName   string `json:"fileName" dynamodbav:"FileName"`
	Rows       int    `json:"rows" dynamodbav:"Rows"`
	Skipped    int    `json:"skipped" dynamodbav:"Skipped"`
	ImportedAt string `json:"importedAt" dynamodbav:"ImportedAt"` // RFC3339
}

// AnalysisRun is the persisted summary of one analysis, keyed by day.
type AnalysisRun struct {
	DateKey             string `json:"dateKey" dynamodbav:"DateKey"` // YYYY-MM-DD (partition key)
	RunID               string `json:"runId" dynamodbav:"RunID"`     // sort key
	GeneratedAt         string `json:"generatedAt" dynamodbav:"GeneratedAt"` // RFC3339
	TotalCalls          int    `json:"totalCalls" dynamodbav:"TotalCalls"`
	SuccessfulCalls     int    `json:"successfulCalls" dynamodbav:"SuccessfulCalls"`
	Operators           int    `json:"operators" dynamodbav:"Operators"`
	UnassignedCalls     int    `json:"unassignedCalls" dynamodbav:"UnassignedCalls"`
	AttributionCoverage int    `json:"attributionCoverage" dynamodbav:"AttributionCoverage"`
	UrgenteCount        int    `json:"urgenteCount" dynamodbav:"UrgenteCount"`
	PendienteCount      int    `json:"pendienteCount" dynamodbav:"PendienteCount"`
	AlDiaCount          int    `json:"alDiaCount" dynamodbav:"AlDiaCount"`
}
