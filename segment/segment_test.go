package segment

import (
	"reflect"
	"strings"
	"testing"
)

func isHeading(s string) bool { return strings.HasPrefix(s, "h") }

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  [][]string
	}{
		{"empty", nil, nil},
		{"no boundary", []string{"p", "p", "ul"}, nil},
		{"boundary first", []string{"h2", "p"}, [][]string{{"h2", "p"}}},
		{"preamble dropped", []string{"p", "ul", "h2", "p", "h3", "ol"}, [][]string{{"h2", "p"}, {"h3", "ol"}}},
		{"adjacent boundaries", []string{"h2", "h3", "h4"}, [][]string{{"h2"}, {"h3"}, {"h4"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.input, isHeading)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitProperties(t *testing.T) {
	inputs := [][]string{
		{"p", "h1", "p", "p", "h2", "h2", "p"},
		{"h1"},
		{"p", "p", "p", "h6"},
		{"h1", "p", "ul", "table", "h2", "p", "h3"},
	}

	for _, input := range inputs {
		runs := Split(input, isHeading)

		first := len(input)
		for i, s := range input {
			if isHeading(s) {
				first = i
				break
			}
		}

		total := 0
		for _, run := range runs {
			if len(run) == 0 {
				t.Fatalf("Split(%v) produced an empty run", input)
			}
			if !isHeading(run[0]) {
				t.Errorf("Split(%v): run %v does not start at a boundary", input, run)
			}
			total += len(run)
		}
		if total != len(input)-first {
			t.Errorf("Split(%v): runs cover %d items, want %d", input, total, len(input)-first)
		}
	}
}
