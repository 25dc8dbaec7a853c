package redispb

import "strings"

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

// matchGlob matches s against a Redis-style glob pattern: '*' any sequence,
// '?' any single character, '[...]' a character set with '^' negation and
// a-z ranges, '\' escapes the next pattern character.
func matchGlob(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlob(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern, s = pattern[1:], s[1:]
		case '[':
			end := strings.IndexByte(pattern[1:], ']')
			if end < 0 {
				// unterminated class matches a literal '['
				if len(s) == 0 || s[0] != '[' {
					return false
				}
				pattern, s = pattern[1:], s[1:]
				continue
			}
			if len(s) == 0 || !matchClass(pattern[1:1+end], s[0]) {
				return false
			}
			pattern, s = pattern[2+end:], s[1:]
		case '\\':
			if len(pattern) == 1 || len(s) == 0 || pattern[1] != s[0] {
				return false
			}
			pattern, s = pattern[2:], s[1:]
		default:
			if len(s) == 0 || pattern[0] != s[0] {
				return false
			}
			pattern, s = pattern[1:], s[1:]
		}
	}
	return len(s) == 0
}

func matchClass(class string, c byte) bool {
	neg := false
	if len(class) > 0 && class[0] == '^' {
		neg = true
		class = class[1:]
	}
	match := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				match = true
			}
			i += 2
		} else if class[i] == c {
			match = true
		}
	}
	return match != neg
}
