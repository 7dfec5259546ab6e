package fmtx

import "testing"

func TestSprintfVerbs(t *testing.T) {
	for _, c := range []struct {
		fmt  string
		args []any
		want string
	}{
		{"CO2 %d ppm", []any{812}, "CO2 812 ppm"},
		{"screen %s mode %s", []any{"HOME", "full"}, "screen HOME mode full"},
		{"hex %x HEX %X", []any{uint(255), uint(255)}, "hex ff HEX FF"},
		{"bool %t %t", []any{true, false}, "bool true false"},
		{"literal %%", nil, "literal %"},
		{"q=%q", []any{`a"b\c`}, `q="a\"b\\c"`},
		{"v=%v", []any{123}, "v=123"},
		{"trim: %.3s", []any{"abcdef"}, "trim: abc"},
	} {
		got := Sprintf(c.fmt, c.args...)
		if got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestSprint(t *testing.T) {
	if got, want := Sprint(1, true), "1 true"; got != want {
		t.Fatalf("Sprint = %q, want %q", got, want)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf("poll %d failed", 3)
	if err == nil || err.Error() != "poll 3 failed" {
		t.Fatalf("Errorf = %v", err)
	}
}
