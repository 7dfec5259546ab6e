package nav

import (
	"testing"

	"inkpanel-go/types"
)

const t0 = int64(1_000_000)

func testMachine(cadence uint32) *Machine {
	return New(Config{
		HomeRefreshMs:    60_000,
		DetailTimeoutMs:  30_000,
		MinPollSpacingMs: 5_000,
		FullRefreshEvery: cadence,
	}, t0)
}

func advance(t *testing.T, m *Machine, now int64, isolated bool) Decision {
	t.Helper()
	d := m.Step(now, Inputs{Isolated: isolated, Advance: true})
	if !d.Render {
		t.Fatalf("advance from %s did not render", m.Screen())
	}
	return d
}

func TestNormalCycleClosure(t *testing.T) {
	m := testMachine(10)
	want := []types.Screen{types.ScreenDetailA, types.ScreenDetailB, types.ScreenHome}
	for i, w := range want {
		d := advance(t, m, t0+int64(i), false)
		if d.Screen != w {
			t.Fatalf("advance %d = %s; want %s", i+1, d.Screen, w)
		}
	}
}

func TestIsolatedCycleClosure(t *testing.T) {
	m := testMachine(10)
	// Edge into isolation first.
	d := m.Step(t0, Inputs{Isolated: true, IsolationEdge: true})
	if d.Screen != types.ScreenIsolated {
		t.Fatalf("isolation edge = %s; want %s", d.Screen, types.ScreenIsolated)
	}

	want := []types.Screen{types.ScreenIsolatedHome, types.ScreenDetailA, types.ScreenDetailB, types.ScreenIsolated}
	for i, w := range want {
		d := advance(t, m, t0+int64(i)+1, true)
		if d.Screen != w {
			t.Fatalf("advance %d = %s; want %s", i+1, d.Screen, w)
		}
	}
}

func TestAdvanceThenRetreatReturns(t *testing.T) {
	m := testMachine(10)
	m.Step(t0, Inputs{Advance: true})
	d := m.Step(t0+1, Inputs{Retreat: true})
	if d.Screen != types.ScreenHome {
		t.Errorf("retreat = %s; want %s", d.Screen, types.ScreenHome)
	}
}

func TestRetreatWrapsBackwards(t *testing.T) {
	m := testMachine(10)
	d := m.Step(t0, Inputs{Retreat: true})
	if d.Screen != types.ScreenDetailB {
		t.Errorf("retreat from home = %s; want %s", d.Screen, types.ScreenDetailB)
	}
}

func TestIsolationEdgeFromDetailIsFull(t *testing.T) {
	m := testMachine(10)
	m.Step(t0, Inputs{Advance: true}) // DETAIL_A

	d := m.Step(t0+1, Inputs{Isolated: true, IsolationEdge: true})
	if d.Screen != types.ScreenIsolated {
		t.Fatalf("screen = %s; want %s", d.Screen, types.ScreenIsolated)
	}
	if d.Mode != types.RefreshFull {
		t.Errorf("mode = %s; want %s", d.Mode, types.RefreshFull)
	}
}

func TestIsolationExitReturnsHomeFull(t *testing.T) {
	m := testMachine(10)
	m.Step(t0, Inputs{Isolated: true, IsolationEdge: true})
	m.Step(t0+1, Inputs{Isolated: true, Advance: true}) // ISOLATED_HOME

	d := m.Step(t0+2, Inputs{Isolated: false, IsolationEdge: true})
	if d.Screen != types.ScreenHome {
		t.Fatalf("screen = %s; want %s", d.Screen, types.ScreenHome)
	}
	if d.Mode != types.RefreshFull {
		t.Errorf("mode = %s; want %s", d.Mode, types.RefreshFull)
	}
}

func TestIsolationEdgeBeatsButtons(t *testing.T) {
	m := testMachine(10)
	d := m.Step(t0, Inputs{Isolated: true, IsolationEdge: true, Advance: true, Retreat: true})
	if d.Screen != types.ScreenIsolated {
		t.Errorf("screen = %s; want %s (edge wins)", d.Screen, types.ScreenIsolated)
	}
}

// Flipping out of isolation while on a detail screen does not force a
// move; the detail screen times out to HOME on its own.
func TestIsolationExitOnDetailFallsThrough(t *testing.T) {
	m := testMachine(10)
	m.Step(t0, Inputs{Isolated: true, IsolationEdge: true})
	m.Step(t0+1, Inputs{Isolated: true, Advance: true}) // ISOLATED_HOME
	m.Step(t0+2, Inputs{Isolated: true, Advance: true}) // DETAIL_A

	d := m.Step(t0+3, Inputs{Isolated: false, IsolationEdge: true})
	if d.Render {
		t.Fatalf("edge on detail rendered %s; want fall-through", d.Screen)
	}
	if m.Screen() != types.ScreenDetailA {
		t.Fatalf("screen = %s; want %s", m.Screen(), types.ScreenDetailA)
	}

	d = m.Step(t0+3+30_000, Inputs{Isolated: false})
	if d.Screen != types.ScreenHome {
		t.Errorf("timeout screen = %s; want %s", d.Screen, types.ScreenHome)
	}
}

func TestRefreshCadence(t *testing.T) {
	m := testMachine(3)
	for i := 1; i <= 7; i++ {
		d := advance(t, m, t0+int64(i), false)
		want := types.RefreshPartial
		if i%3 == 0 {
			want = types.RefreshFull
		}
		if d.Mode != want {
			t.Errorf("transition %d mode = %s; want %s", i, d.Mode, want)
		}
	}
}

// An isolation full advances the counter exactly once and leaves the
// cadence alignment alone: with N=3 the third transition is still full
// even when the second was an isolation edge.
func TestIsolationFullKeepsCadenceAlignment(t *testing.T) {
	m := testMachine(3)

	d := advance(t, m, t0, false) // 1: partial
	if d.Mode != types.RefreshPartial {
		t.Fatalf("transition 1 mode = %s; want partial", d.Mode)
	}

	d = m.Step(t0+1, Inputs{Isolated: true, IsolationEdge: true}) // 2: full by edge
	if d.Mode != types.RefreshFull {
		t.Fatalf("isolation edge mode = %s; want full", d.Mode)
	}

	d = advance(t, m, t0+2, true) // 3: full by cadence
	if d.Mode != types.RefreshFull {
		t.Errorf("transition 3 mode = %s; want full by cadence", d.Mode)
	}

	d = advance(t, m, t0+3, true) // 4: partial again
	if d.Mode != types.RefreshPartial {
		t.Errorf("transition 4 mode = %s; want partial", d.Mode)
	}
}

func TestDetailTimeout(t *testing.T) {
	m := testMachine(10)
	m.Step(t0, Inputs{Advance: true}) // DETAIL_A at t0

	d := m.Step(t0+29_999, Inputs{})
	if d.Render {
		t.Fatalf("rendered %s before timeout", d.Screen)
	}

	d = m.Step(t0+30_000, Inputs{})
	if d.Screen != types.ScreenHome || !d.Render {
		t.Errorf("timeout = %s render=%v; want %s render", d.Screen, d.Render, types.ScreenHome)
	}
}

func TestDetailTimeoutWhileIsolated(t *testing.T) {
	m := testMachine(10)
	m.Step(t0, Inputs{Isolated: true, IsolationEdge: true})
	m.Step(t0+1, Inputs{Isolated: true, Retreat: true}) // DETAIL_B via wrap

	if m.Screen() != types.ScreenDetailB {
		t.Fatalf("screen = %s; want %s", m.Screen(), types.ScreenDetailB)
	}

	d := m.Step(t0+1+30_000, Inputs{Isolated: true})
	if d.Screen != types.ScreenIsolated {
		t.Errorf("timeout = %s; want %s", d.Screen, types.ScreenIsolated)
	}
}

func TestHomePeriodicRefresh(t *testing.T) {
	m := testMachine(10)

	d := m.Step(t0+59_999, Inputs{})
	if d.Render {
		t.Fatal("rendered before refresh interval")
	}

	d = m.Step(t0+60_000, Inputs{})
	if !d.Render || d.Screen != types.ScreenHome {
		t.Fatalf("refresh render=%v screen=%s; want home re-render", d.Render, d.Screen)
	}
	if !d.PollSensor {
		t.Error("PollSensor = false; want re-poll with stale reading")
	}

	d = m.Step(t0+60_001, Inputs{})
	if d.Render {
		t.Error("rendered again right after periodic refresh")
	}
}

func TestHomeRefreshCountsTowardCadence(t *testing.T) {
	m := New(Config{HomeRefreshMs: 60_000, FullRefreshEvery: 2}, t0)

	d := m.Step(t0+60_000, Inputs{})
	if d.Mode != types.RefreshPartial {
		t.Fatalf("refresh 1 mode = %s; want partial", d.Mode)
	}
	d = m.Step(t0+120_000, Inputs{})
	if d.Mode != types.RefreshFull {
		t.Errorf("refresh 2 mode = %s; want full", d.Mode)
	}
}

func TestPollSpacingGate(t *testing.T) {
	m := New(Config{HomeRefreshMs: 60_000, MinPollSpacingMs: 90_000, FullRefreshEvery: 10}, t0)

	d := m.Step(t0+60_000, Inputs{})
	if !d.Render || d.PollSensor {
		t.Fatalf("render=%v poll=%v; want render without poll inside spacing window", d.Render, d.PollSensor)
	}

	d = m.Step(t0+120_000, Inputs{})
	if !d.PollSensor {
		t.Error("PollSensor = false after spacing window; want poll")
	}
}

func TestIdleTickDoesNothing(t *testing.T) {
	m := testMachine(10)
	d := m.Step(t0+1, Inputs{})
	if d.Render || d.PollSensor {
		t.Errorf("idle tick: render=%v poll=%v; want neither", d.Render, d.PollSensor)
	}
	if m.Transitions() != 0 {
		t.Errorf("Transitions = %d; want 0", m.Transitions())
	}
}
