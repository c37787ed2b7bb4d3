package analytics

import (
	"math"

	"github.com/telecuidado/backend/internal/types"
)

// Result groups the metric folds from one snapshot. The unassigned bucket
// is reported separately from named operators but participates in every
// conservation total.
type Result struct {
	Operators  map[string]*types.OperatorMetrics
	Unassigned *types.OperatorMetrics
	Global     types.GlobalMetrics
}

// Aggregate folds attributed calls into per-operator and global metrics.
// Derived fields (averageDuration, successRate) are recomputed from the
// counters at the end; nothing is mutated incrementally between runs.
func Aggregate(calls []types.AttributedCall) Result {
	res := Result{
		Operators:  make(map[string]*types.OperatorMetrics),
		Unassigned: &types.OperatorMetrics{OperatorName: types.UnassignedOperator},
	}
	res.Global.OperatorName = "global"

	for _, call := range calls {
		bucket := res.Unassigned
		if call.OperatorName != types.UnassignedOperator {
			m, ok := res.Operators[call.OperatorName]
			if !ok {
				m = &types.OperatorMetrics{OperatorName: call.OperatorName}
				res.Operators[call.OperatorName] = m
			}
			bucket = m
		}
		addCall(bucket, call)
		addCall(&res.Global.OperatorMetrics, call)

		if call.Date.Valid {
			res.Global.CallsByWeekday[int(call.Date.Time.Weekday())]++
			res.Global.CallsByHour[call.Date.Time.Hour()]++
		}
	}

	for _, m := range res.Operators {
		finalize(m)
	}
	finalize(res.Unassigned)
	finalize(&res.Global.OperatorMetrics)

	return res
}

func addCall(m *types.OperatorMetrics, call types.AttributedCall) {
	m.TotalCalls++
	if call.Successful {
		m.SuccessfulCalls++
	}
	m.TotalDurationSeconds += call.DurationSec
}

func finalize(m *types.OperatorMetrics) {
	m.FailedCalls = m.TotalCalls - m.SuccessfulCalls
	if m.TotalCalls == 0 {
		m.AverageDuration = 0
		m.SuccessRate = 0
		return
	}
	m.AverageDuration = int(math.Round(m.TotalDurationSeconds / float64(m.TotalCalls)))
	m.SuccessRate = int(math.Round(float64(m.SuccessfulCalls) / float64(m.TotalCalls) * 100))
}
