package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: []string{}},
		{name: "trims and keeps order", in: []string{" b ", "a"}, want: []string{"b", "a"}},
		{name: "drops empties and repeats", in: []string{"a", "", "  ", "a ", "b"}, want: []string{"a", "b"}},
		{name: "case sensitive", in: []string{"A", "a"}, want: []string{"A", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.in))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , ,"))
	assert.Equal(t,
		[]string{"http://localhost:3000", "https://app.example.com"},
		SplitList("http://localhost:3000, https://app.example.com,http://localhost:3000"))
}
