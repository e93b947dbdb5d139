package profile

import (
	"strings"

	"github.com/prepdeck/prepdeck/internal/tabular"
)

// InferType classifies a column from its raw string values.
//
// Rules are checked in order and the first to clear the confidence
// threshold wins: numeric, then boolean, then datetime. The order is
// significant: a column of "0"/"1" strings is numeric, never boolean,
// because the numeric rule fires first. Columns matching no rule fall back
// to categorical when their unique/non-null ratio is low, else text.
// Missing values are excluded from every denominator; an all-missing column
// defaults to text.
func InferType(values []string, policy Policy) ColumnType {
	policy = policy.normalize()

	var (
		nonNull  int
		numbers  int
		bools    int
		dates    int
		distinct = make(map[string]struct{})
	)

	for _, v := range values {
		if tabular.IsMissing(v) {
			continue
		}
		nonNull++
		distinct[strings.TrimSpace(v)] = struct{}{}

		if _, ok := tabular.ParseNumber(v); ok {
			numbers++
		}
		if tabular.IsBoolToken(v) {
			bools++
		}
		if _, ok := tabular.ParseDate(v); ok {
			dates++
		}
	}

	if nonNull == 0 {
		return TypeText
	}

	n := float64(nonNull)
	switch {
	case float64(numbers)/n > policy.TypeConfidence:
		return TypeNumeric
	case float64(bools)/n > policy.TypeConfidence:
		return TypeBoolean
	case float64(dates)/n > policy.TypeConfidence:
		return TypeDatetime
	}

	if float64(len(distinct))/n < policy.CategoricalUniqueRatio {
		return TypeCategorical
	}
	return TypeText
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
