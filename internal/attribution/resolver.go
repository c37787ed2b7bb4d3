package attribution

import (
	"strings"

	"github.com/telecuidado/backend/internal/assignment"
	"github.com/telecuidado/backend/internal/types"
)

// Resolve determines the owning operator for one sanitized call. Precedence:
//
//  1. any phone candidate hitting the assignment phone index (first hit wins)
//  2. beneficiary name lookup (exact, case-insensitive, then containment),
//     skipped when the matched assignment carries no operator name
//  3. the call's own sanitized operator field, last resort only because
//     assignment data is authoritative and the field's provenance is shaky
//  4. the unassigned bucket
//
// Pure and deterministic: the same (call, index) pair always resolves the
// same way.
func Resolve(call types.SanitizedCall, idx *assignment.Index) types.AttributedCall {
	out := types.AttributedCall{
		SanitizedCall: call,
		OperatorName:  types.UnassignedOperator,
		Method:        types.MethodNone,
	}

	for _, candidate := range call.Phones {
		if operator, ok := idx.OperatorByPhone(candidate); ok {
			out.OperatorName = operator
			out.Method = types.MethodPhone
			return out
		}
	}

	if a, method, ok := idx.Lookup(call.Beneficiary); ok {
		// An assignment row may name a beneficiary without an operator.
		// Attributing to "" would mint an anonymous metrics bucket, so the
		// call falls through to the next tier instead.
		if operator := strings.TrimSpace(a.OperatorName); operator != "" {
			out.OperatorName = operator
			out.Method = method
			return out
		}
	}

	if call.Operator != "" {
		out.OperatorName = call.Operator
		out.Method = types.MethodOperatorField
		return out
	}

	return out
}

// ResolveAll attributes a full snapshot of sanitized calls. Every input
// yields exactly one AttributedCall; nothing is dropped.
func ResolveAll(calls []types.SanitizedCall, idx *assignment.Index) []types.AttributedCall {
	out := make([]types.AttributedCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, Resolve(c, idx))
	}
	return out
}
