package followup

import (
	"math"
	"sort"
	"time"

	"github.com/telecuidado/backend/internal/assignment"
	"github.com/telecuidado/backend/internal/normalizer"
	"github.com/telecuidado/backend/internal/sanitizer"
	"github.com/telecuidado/backend/internal/types"
)

// Thresholds are the recency boundaries, in days since the last successful
// call. days <= AlDia is current, days <= Pendiente needs scheduling, and
// anything beyond (or no successful contact at all) is urgent.
type Thresholds struct {
	AlDia     int
	Pendiente int
}

// DefaultThresholds matches the supervision policy: 15 and 30 days.
var DefaultThresholds = Thresholds{AlDia: 15, Pendiente: 30}

// StatusFor maps days-since-success to a follow-up status. hasSuccess=false
// means no successful contact on record, which is always urgent.
func StatusFor(days int, hasSuccess bool, th Thresholds) types.FollowUpStatus {
	switch {
	case !hasSuccess:
		return types.StatusUrgente
	case days <= th.AlDia:
		return types.StatusAlDia
	case days <= th.Pendiente:
		return types.StatusPendiente
	default:
		return types.StatusUrgente
	}
}

// statusRank orders statuses by urgency for the output sort.
var statusRank = map[types.FollowUpStatus]int{
	types.StatusUrgente:   0,
	types.StatusPendiente: 1,
	types.StatusAlDia:     2,
}

type beneficiaryFold struct {
	display     string
	callCount   int
	lastSuccess types.CallDate
	lastCall    types.CallDate
	lastResult  string
}

// Classify derives one follow-up entry per distinct beneficiary seen in the
// calls. Recency is measured against asOf so runs are reproducible. Calls
// without a usable beneficiary name cannot be grouped and are skipped; the
// second return value counts them so the gap stays visible.
func Classify(calls []types.AttributedCall, idx *assignment.Index, asOf time.Time, th Thresholds) ([]types.BeneficiaryFollowUp, int) {
	folds := make(map[string]*beneficiaryFold)
	order := make([]string, 0)
	skipped := 0

	for _, call := range calls {
		key := nameKey(call.Beneficiary)
		if key == "" {
			skipped++
			continue
		}
		fold, ok := folds[key]
		if !ok {
			fold = &beneficiaryFold{display: call.Beneficiary}
			folds[key] = fold
			order = append(order, key)
		}
		fold.callCount++

		if !call.Date.Valid {
			continue
		}
		if call.Successful && (!fold.lastSuccess.Valid || call.Date.Time.After(fold.lastSuccess.Time)) {
			fold.lastSuccess = call.Date
		}
		if !fold.lastCall.Valid || call.Date.Time.After(fold.lastCall.Time) {
			fold.lastCall = call.Date
			fold.lastResult = call.Result
		}
	}

	out := make([]types.BeneficiaryFollowUp, 0, len(folds))
	for _, key := range order {
		fold := folds[key]
		entry := types.BeneficiaryFollowUp{
			Beneficiary:        fold.display,
			CallCount:          fold.callCount,
			LastSuccessfulCall: fold.lastSuccess,
			LastCall:           fold.lastCall,
			LastCallResult:     fold.lastResult,
			DaysSinceSuccess:   -1,
		}

		if fold.lastSuccess.Valid {
			entry.DaysSinceSuccess = daysBetween(fold.lastSuccess.Time, asOf)
		}
		entry.Status = StatusFor(entry.DaysSinceSuccess, fold.lastSuccess.Valid, th)

		// Contact details come only from the assignment list; call data is
		// never trusted for them. Assignment operator names pass through
		// the same rejection rules as the call operator field.
		if a, _, ok := idx.Lookup(fold.display); ok {
			entry.OperatorName = sanitizer.SanitizeOperator(a.OperatorName)
			entry.Commune = a.Commune
			if phones := a.Phones.Candidates(); len(phones) > 0 {
				entry.Phone = phones[0]
			}
		}

		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if statusRank[out[i].Status] != statusRank[out[j].Status] {
			return statusRank[out[i].Status] < statusRank[out[j].Status]
		}
		// Most recent contact first within a status; unknown dates sink.
		switch {
		case out[i].LastCall.Valid != out[j].LastCall.Valid:
			return out[i].LastCall.Valid
		case out[i].LastCall.Valid && !out[i].LastCall.Time.Equal(out[j].LastCall.Time):
			return out[i].LastCall.Time.After(out[j].LastCall.Time)
		}
		return out[i].Beneficiary < out[j].Beneficiary
	})

	return out, skipped
}

// daysBetween is the whole number of days from t to asOf, floored.
func daysBetween(t, asOf time.Time) int {
	return int(math.Floor(float64(asOf.Sub(t).Milliseconds()) / 86400000.0))
}

func nameKey(beneficiary string) string {
	return normalizer.NormalizeName(beneficiary)
}
