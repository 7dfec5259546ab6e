package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Fatalf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Fatalf("Clamp(-1,0,10) = %d", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Fatalf("Clamp(11,0,10) = %d", got)
	}
	// swapped bounds
	if got := Clamp(5, 10, 0); got != 5 {
		t.Fatalf("Clamp(5,10,0) = %d", got)
	}
}

func TestMapInt(t *testing.T) {
	for _, c := range []struct {
		x, want int
	}{
		{400, 0},    // bottom of CO2 range
		{2000, 100}, // top
		{1200, 50},  // midpoint
		{0, 0},      // clamped below
		{9999, 100}, // clamped above
	} {
		if got := MapInt(c.x, 400, 2000, 0, 100); got != c.want {
			t.Errorf("MapInt(%d) = %d; want %d", c.x, got, c.want)
		}
	}
	if got := MapInt(7, 3, 3, 1, 9); got != 1 {
		t.Fatalf("degenerate input range: got %d; want 1", got)
	}
}

func TestRoundDiv(t *testing.T) {
	if got := RoundDiv(234, 10); got != 23 {
		t.Fatalf("RoundDiv(234,10) = %d", got)
	}
	if got := RoundDiv(235, 10); got != 24 {
		t.Fatalf("RoundDiv(235,10) = %d", got)
	}
	if got := RoundDiv(-235, 10); got != -24 {
		t.Fatalf("RoundDiv(-235,10) = %d", got)
	}
	if got := RoundDiv(5, 0); got != 0 {
		t.Fatalf("RoundDiv(5,0) = %d", got)
	}
}
