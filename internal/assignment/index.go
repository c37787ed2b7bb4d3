package assignment

import (
	"sort"
	"strings"

	"github.com/telecuidado/backend/internal/normalizer"
	"github.com/telecuidado/backend/internal/types"
)

// Index holds the lookup structures derived from one assignment list:
// phone key -> operator name and normalized beneficiary name -> assignment.
// Built once per analysis run and read-only afterwards.
type Index struct {
	phones      map[string]string
	names       map[string]types.Assignment
	sortedNames []string
	duplicates  []types.DuplicatePhone
}

// BuildIndex folds the assignment list into lookup maps. When two
// assignments claim the same phone key the later one wins (last-write-wins,
// kept for compatibility with the historical behavior); the conflict is
// recorded as a diagnostic instead of being silent.
func BuildIndex(assignments []types.Assignment) *Index {
	idx := &Index{
		phones: make(map[string]string),
		names:  make(map[string]types.Assignment),
	}

	for _, a := range assignments {
		operator := strings.TrimSpace(a.OperatorName)
		for _, candidate := range a.Phones.Candidates() {
			key := normalizer.PhoneKey(candidate)
			if key == "" || operator == "" {
				continue
			}
			if prev, taken := idx.phones[key]; taken && prev != operator {
				idx.duplicates = append(idx.duplicates, types.DuplicatePhone{
					PhoneKey: key,
					Kept:     operator,
					Replaced: prev,
				})
			}
			idx.phones[key] = operator
		}

		nameKey := normalizer.NormalizeName(a.Beneficiary)
		if nameKey != "" {
			idx.names[nameKey] = a
		}
	}

	idx.sortedNames = make([]string, 0, len(idx.names))
	for k := range idx.names {
		idx.sortedNames = append(idx.sortedNames, k)
	}
	sort.Strings(idx.sortedNames)

	return idx
}

// OperatorByPhone looks up the operator owning a phone candidate.
func (idx *Index) OperatorByPhone(candidate string) (string, bool) {
	key := normalizer.PhoneKey(candidate)
	if key == "" {
		return "", false
	}
	op, ok := idx.phones[key]
	return op, ok
}

// Lookup resolves a beneficiary name against the assignment list with the
// documented precedence: exact normalized match, case-insensitive match on
// the raw names, then substring containment in either direction. The
// containment pass walks names in sorted order so resolution never depends
// on map iteration order.
func (idx *Index) Lookup(beneficiary string) (types.Assignment, types.AttributionMethod, bool) {
	nameKey := normalizer.NormalizeName(beneficiary)
	if nameKey == "" {
		return types.Assignment{}, types.MethodNone, false
	}

	if a, ok := idx.names[nameKey]; ok {
		return a, types.MethodName, true
	}

	trimmed := strings.TrimSpace(beneficiary)
	for _, key := range idx.sortedNames {
		if strings.EqualFold(strings.TrimSpace(idx.names[key].Beneficiary), trimmed) {
			return idx.names[key], types.MethodNameFold, true
		}
	}

	for _, key := range idx.sortedNames {
		if strings.Contains(key, nameKey) || strings.Contains(nameKey, key) {
			return idx.names[key], types.MethodNamePartial, true
		}
	}

	return types.Assignment{}, types.MethodNone, false
}

// Duplicates returns the phone-key conflicts found while building.
func (idx *Index) Duplicates() []types.DuplicatePhone {
	return idx.duplicates
}

// PhoneCount returns the number of indexed phone keys.
func (idx *Index) PhoneCount() int { return len(idx.phones) }

// NameCount returns the number of indexed beneficiaries.
func (idx *Index) NameCount() int { return len(idx.names) }
