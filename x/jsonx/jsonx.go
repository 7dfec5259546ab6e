// Package jsonx extracts single fields from small flat JSON payloads
// without allocating or building a document tree. The extractors scan
// for the literal pattern "key": and read the value that follows; they
// do not handle escape sequences or nesting, so a key name occurring
// inside a string value is matched like any other. Payloads on this
// device are machine-generated and flat, which keeps that trade
// acceptable.
//
// On any malformed or absent value the extractors return the zero
// value. The first occurrence of a key wins.
package jsonx

import "inkpanel-go/x/boundstr"

// Int returns the integer value of key, or 0 when the key is absent or
// its value does not lead with an optionally signed digit run.
func Int(p []byte, key string) int {
	i, ok := valueStart(p, key)
	if !ok {
		return 0
	}
	i = skipSpaces(p, i)

	neg := false
	if i < len(p) && (p[i] == '-' || p[i] == '+') {
		neg = p[i] == '-'
		i++
	}
	start := i
	v := 0
	for i < len(p) && p[i] >= '0' && p[i] <= '9' {
		v = v*10 + int(p[i]-'0')
		i++
	}
	if i == start {
		return 0
	}
	if neg {
		return -v
	}
	return v
}

// Bool reports whether the value of key leads with the literal true.
func Bool(p []byte, key string) bool {
	i, ok := valueStart(p, key)
	if !ok {
		return false
	}
	i = skipSpaces(p, i)
	return hasPrefix(p[i:], "true")
}

// Str copies the quoted string value of key into dst, truncated to
// dst's capacity. dst is emptied when the key is absent, the value is
// not quoted, or the closing quote is missing.
func Str(p []byte, key string, dst *boundstr.Buf) {
	dst.Reset()

	i, ok := valueStart(p, key)
	if !ok {
		return
	}
	i = skipSpaces(p, i)
	if i >= len(p) || p[i] != '"' {
		return
	}
	i++
	end := i
	for end < len(p) && p[end] != '"' {
		end++
	}
	if end >= len(p) {
		return
	}
	dst.Set(p[i:end])
}

// valueStart returns the index just past the colon of the first
// occurrence of "key": in p.
func valueStart(p []byte, key string) (int, bool) {
	// pattern: '"' key '"' ':'
	n := len(key)
	limit := len(p) - n - 3
	for i := 0; i <= limit; i++ {
		if p[i] != '"' {
			continue
		}
		if !matchAt(p, i+1, key) {
			continue
		}
		if p[i+1+n] != '"' || p[i+2+n] != ':' {
			continue
		}
		return i + 3 + n, true
	}
	return 0, false
}

func matchAt(p []byte, at int, s string) bool {
	for i := 0; i < len(s); i++ {
		if p[at+i] != s[i] {
			return false
		}
	}
	return true
}

func skipSpaces(p []byte, i int) int {
	for i < len(p) && p[i] == ' ' {
		i++
	}
	return i
}

func hasPrefix(p []byte, s string) bool {
	if len(p) < len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if p[i] != s[i] {
			return false
		}
	}
	return true
}
