package dbx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextArray(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{name: "empty", in: nil, want: "{}"},
		{name: "single", in: []string{"a"}, want: `{"a"}`},
		{name: "many", in: []string{"a", "b c"}, want: `{"a","b c"}`},
		{name: "escapes", in: []string{`q"x`, `back\slash`}, want: `{"q\"x","back\\slash"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextArray(tt.in))
		})
	}
}
