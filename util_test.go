package redispb

import "testing"

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"", "", true},
		{"", "x", false},
		{"user:*", "user:1", true},
		{"user:*", "session:1", false},
		{"user:?", "user:1", true},
		{"user:?", "user:12", false},
		{"*:1", "user:1", true},
		{"u*r:*", "user:1", true},
		{"[abc]x", "bx", true},
		{"[abc]x", "dx", false},
		{"[^abc]x", "dx", true},
		{"[a-c]x", "bx", true},
		{"[a-c]x", "dx", false},
		{`\*`, "*", true},
		{`\*`, "x", false},
		{"a**b", "ab", true},
		{"a**b", "axyzb", true},
		{"users/*/posts", "users/42/posts", true},
	}
	for _, tt := range tests {
		if got := matchGlob(tt.pattern, tt.s); got != tt.want {
			t.Errorf("** matchGlob(%q, %q) = %v, wanted %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
