package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "fallback"); got != "fallback" {
		t.Errorf("Coalesce(empty) = %q; want fallback", got)
	}
	if got := Coalesce("x", "fallback"); got != "x" {
		t.Errorf("Coalesce(x) = %q; want x", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 3, "hel"},
		{"hello", 10, "hello"},
		{"hello", 0, ""},
		{"hello", -1, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.s, c.n); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q; want %q", c.s, c.n, got, c.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight = %q; want %q", got, "ab  ")
	}
	if got := PadRight("abcdef", 4); got != "abcd" {
		t.Errorf("PadRight truncation = %q; want %q", got, "abcd")
	}
	if got := PadRight("", 2); got != "  " {
		t.Errorf("PadRight empty = %q; want two spaces", got)
	}
}
