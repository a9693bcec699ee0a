package rules

import "testing"

func TestDetectColumnType(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		samples []string
		ratio   float64 // full-column unique ratio; negative means unknown
		want    ColumnType
	}{
		{
			name:    "numeric ids",
			column:  "user_id",
			samples: []string{"1", "2", "3", "4", "5"},
			ratio:   -1,
			want:    TypeNumeric,
		},
		{
			name:    "currency values",
			column:  "revenue",
			samples: []string{"$1,200.50", "$980.00", "$1,500.75", "$2,100.00", "$640.25"},
			ratio:   -1,
			want:    TypeNumeric,
		},
		{
			name:    "datetime by name and pattern",
			column:  "created_at",
			samples: []string{"2023-01-01", "2023-01-02", "2023-01-03"},
			ratio:   -1,
			want:    TypeDatetime,
		},
		{
			name:    "datetime name with non-date values falls through",
			column:  "update_note",
			samples: []string{"pending", "pending", "done", "pending", "done"},
			ratio:   -1,
			want:    TypeCategorical,
		},
		{
			name:    "boolean prefix",
			column:  "is_active",
			samples: []string{"true", "false", "true", "true"},
			ratio:   -1,
			want:    TypeBoolean,
		},
		{
			name:    "boolean values without keyword name",
			column:  "churned",
			samples: []string{"yes", "no", "no", "yes"},
			ratio:   -1,
			want:    TypeBoolean,
		},
		{
			name:    "zero-one values are numeric before boolean",
			column:  "label",
			samples: []string{"0", "1", "0", "1", "1"},
			ratio:   -1,
			want:    TypeNumeric,
		},
		{
			name:    "low uniqueness is categorical",
			column:  "product_category",
			samples: []string{"A", "A", "B", "A", "C", "B", "A", "A"},
			ratio:   -1,
			want:    TypeCategorical,
		},
		{
			name:    "high uniqueness is text",
			column:  "comment",
			samples: []string{"great product", "slow shipping", "would buy again", "meh"},
			ratio:   -1,
			want:    TypeText,
		},
		{
			name:    "empty samples default to text",
			column:  "anything",
			samples: []string{"", "  ", ""},
			ratio:   -1,
			want:    TypeText,
		},
		{
			name:    "numeric below 80 percent threshold",
			column:  "mixed",
			samples: []string{"1", "2", "x", "y", "3"},
			ratio:   -1,
			want:    TypeText,
		},
		{
			// A leading sample of a big low-cardinality column can look
			// mostly distinct; the full-column ratio must win.
			name:    "column ratio overrides unique-looking sample",
			column:  "city",
			samples: []string{"Lisbon", "Porto", "Faro", "Braga", "Evora"},
			ratio:   0.002,
			want:    TypeCategorical,
		},
		{
			name:    "column ratio keeps genuinely unique values as text",
			column:  "comment",
			samples: []string{"great", "great", "great", "slow shipping"},
			ratio:   0.97,
			want:    TypeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectColumnType(tt.column, tt.samples, tt.ratio)
			if got != tt.want {
				t.Errorf("DetectColumnType(%q) = %q, want %q", tt.column, got, tt.want)
			}
		})
	}
}

func TestParseSuccessRate(t *testing.T) {
	tests := []struct {
		name    string
		colType ColumnType
		samples []string
		want    float64
	}{
		{"all numeric", TypeNumeric, []string{"1", "2", "3", "4"}, 1.0},
		{"partial numeric", TypeNumeric, []string{"1", "2", "x", "y"}, 0.5},
		{"boolean", TypeBoolean, []string{"true", "false", "maybe", "true"}, 0.75},
		{"datetime", TypeDatetime, []string{"2023-01-01", "not a date"}, 0.5},
		{"text always parses", TypeText, []string{"a", "b"}, 1.0},
		{"empty", TypeNumeric, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSuccessRate(tt.colType, tt.samples)
			if got != tt.want {
				t.Errorf("ParseSuccessRate(%v) = %v, want %v", tt.samples, got, tt.want)
			}
		})
	}
}
