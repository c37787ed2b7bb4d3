package engine

import (
	"math"
	"strings"
	"time"

	"github.com/telecuidado/backend/internal/analytics"
	"github.com/telecuidado/backend/internal/assignment"
	"github.com/telecuidado/backend/internal/attribution"
	"github.com/telecuidado/backend/internal/followup"
	"github.com/telecuidado/backend/internal/sanitizer"
	"github.com/telecuidado/backend/internal/types"
)

// Options tunes one analysis run.
type Options struct {
	Thresholds followup.Thresholds
}

// Analyze runs the full pipeline over one snapshot: sanitize every call,
// build the assignment index, attribute, aggregate, and classify. The
// engine holds no state between runs and never performs I/O; identical
// inputs (including asOf) yield identical output, so callers may simply
// re-run it whenever their snapshot changes.
func Analyze(calls []types.RawCallRecord, assignments []types.Assignment, asOf time.Time, opts Options) types.Analysis {
	th := opts.Thresholds
	if th.AlDia == 0 && th.Pendiente == 0 {
		th = followup.DefaultThresholds
	}

	idx := assignment.BuildIndex(assignments)

	diag := types.Diagnostics{
		DuplicatePhones:     idx.Duplicates(),
		AttributionByMethod: make(map[types.AttributionMethod]int),
	}

	attributed := make([]types.AttributedCall, 0, len(calls))
	for _, raw := range calls {
		sc := sanitizer.Sanitize(raw)
		if !sc.Date.Valid && !raw.Date.IsZero() {
			diag.UnparseableDates++
		}
		if sc.Operator == "" && strings.TrimSpace(raw.Operator) != "" {
			diag.RejectedOperatorFields++
		}
		attributed = append(attributed, attribution.Resolve(sc, idx))
	}

	for _, call := range attributed {
		diag.AttributionByMethod[call.Method]++
	}
	if matched := len(attributed) - diag.AttributionByMethod[types.MethodNone]; len(attributed) > 0 {
		diag.AttributionCoverage = int(math.Round(float64(matched) / float64(len(attributed)) * 100))
	}

	agg := analytics.Aggregate(attributed)
	followUps, nameless := followup.Classify(attributed, idx, asOf, th)
	diag.CallsWithoutBeneficiary = nameless

	return types.Analysis{
		GeneratedAt: asOf,
		Operators:   agg.Operators,
		Unassigned:  agg.Unassigned,
		Global:      agg.Global,
		FollowUps:   followUps,
		Diagnostics: diag,
	}
}
