package pathnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a/b/c.go", "a/b/c.go"},
		{`a\b\c.go`, "a/b/c.go"},
		{"./a/b.go", "a/b.go"},
		{"a//b.go", "a/b.go"},
		{`.\a\\b.go`, "a/b.go"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "input %q", c.in)
	}
}
