package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSorted(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want []string
	}{
		{
			name: "interleaved",
			a:    []string{"FOOD", "TRAVEL"},
			b:    []string{"GYM"},
			want: []string{"FOOD", "GYM", "TRAVEL"},
		},
		{
			name: "empty right",
			a:    []string{"A", "B"},
			b:    nil,
			want: []string{"A", "B"},
		},
		{
			name: "empty left",
			a:    nil,
			b:    []string{"A", "B"},
			want: []string{"A", "B"},
		},
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: []string{},
		},
		{
			name: "duplicates preserved",
			a:    []string{"A", "C"},
			b:    []string{"A", "B"},
			want: []string{"A", "A", "B", "C"},
		},
		{
			name: "one side exhausted early",
			a:    []string{"A"},
			b:    []string{"B", "C", "D"},
			want: []string{"A", "B", "C", "D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeSorted(tt.a, tt.b))
		})
	}
}

func TestMergeSortedInts(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4}, mergeSorted([]int{1, 3}, []int{2, 4}))
}
