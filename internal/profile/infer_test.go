package profile

import "testing"

func TestInferType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{
			name:   "integers",
			values: []string{"1", "2", "3", "4", "5"},
			want:   TypeNumeric,
		},
		{
			name:   "decimals with noise",
			values: []string{"1.5", "2.25", "3.0", "oops", "4.75", "5.5"},
			want:   TypeNumeric,
		},
		{
			// Low cardinality must not matter: the numeric rule is
			// checked before the categorical fallback.
			name:   "numeric looking low cardinality",
			values: []string{"5", "3", "7", "2", "9"},
			want:   TypeNumeric,
		},
		{
			// "0"/"1" columns are numeric because the numeric rule
			// fires before the boolean rule.
			name:   "zero one flags",
			values: []string{"0", "1", "1", "0", "1"},
			want:   TypeNumeric,
		},
		{
			name:   "boolean literals",
			values: []string{"true", "false", "true", "true", "false"},
			want:   TypeBoolean,
		},
		{
			name:   "boolean mixed case",
			values: []string{"TRUE", "False", "true", "false", "FALSE"},
			want:   TypeBoolean,
		},
		{
			name:   "dates",
			values: []string{"2024-01-01", "2024-02-15", "2024-03-31", "2024-04-10", "2024-05-05"},
			want:   TypeDatetime,
		},
		{
			name: "repeated labels are categorical",
			values: []string{
				"red", "blue", "red", "green", "blue", "red", "green", "blue",
				"red", "blue", "red", "green", "blue", "red", "green", "blue",
			},
			want: TypeCategorical,
		},
		{
			name:   "high cardinality strings are text",
			values: []string{"alpha", "beta", "gamma", "delta", "epsilon"},
			want:   TypeText,
		},
		{
			name:   "all missing defaults to text",
			values: []string{"", "  ", "", ""},
			want:   TypeText,
		},
		{
			name:   "missing values excluded from denominator",
			values: []string{"1", "", "2", "", "3", "", "4", ""},
			want:   TypeNumeric,
		},
		{
			// 4 of 6 numeric is 0.67, under the 0.8 threshold.
			name:   "below confidence threshold",
			values: []string{"1", "2", "3", "4", "abc", "xyz"},
			want:   TypeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferType(tt.values, DefaultPolicy()); got != tt.want {
				t.Errorf("InferType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferTypeOrderIsSignificant(t *testing.T) {
	// Every value parses as a number AND is a valid date layout token; the
	// numeric rule must win because it is checked first.
	values := []string{"20240101", "20240202", "20240303", "20240404", "20240505"}
	if got := InferType(values, DefaultPolicy()); got != TypeNumeric {
		t.Errorf("InferType() = %q, want %q (numeric rule checked first)", got, TypeNumeric)
	}
}
