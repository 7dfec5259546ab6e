// Package nav holds the screen state machine: two ordered cycles over
// five screens, button and timeout transitions, and the full/partial
// refresh policy for the e-paper panel.
package nav

import "inkpanel-go/types"

// Defaults applied by New for zero Config fields.
const (
	defaultHomeRefreshMs    = 60_000
	defaultDetailTimeoutMs  = 30_000
	defaultMinPollSpacingMs = 5_000
	defaultFullRefreshEvery = 10
)

var (
	normalCycle   = []types.Screen{types.ScreenHome, types.ScreenDetailA, types.ScreenDetailB}
	isolatedCycle = []types.Screen{types.ScreenIsolated, types.ScreenIsolatedHome, types.ScreenDetailA, types.ScreenDetailB}
)

func activeCycle(isolated bool) []types.Screen {
	if isolated {
		return isolatedCycle
	}
	return normalCycle
}

// isolatedBranch reports whether s exists only on the isolated cycle.
// The detail screens belong to both cycles and are not branch screens.
func isolatedBranch(s types.Screen) bool {
	return s == types.ScreenIsolated || s == types.ScreenIsolatedHome
}

type Config struct {
	HomeRefreshMs    int64
	DetailTimeoutMs  int64
	MinPollSpacingMs int64
	FullRefreshEvery uint32
}

// Inputs carries one tick's worth of edges and status. IsolationEdge
// means the isolation flag flipped since the previous Step; Isolated is
// its current value.
type Inputs struct {
	Isolated      bool
	IsolationEdge bool
	Advance       bool
	Retreat       bool
}

// Decision tells the caller what to do after a Step. When Render is
// false the remaining fields are meaningless.
type Decision struct {
	Screen     types.Screen
	Render     bool
	Mode       types.RefreshMode
	PollSensor bool
}

// Machine is the single navigation context. It is not safe for
// concurrent use; exactly one goroutine steps it.
type Machine struct {
	cfg    Config
	screen types.Screen

	lastTransitionMs int64
	lastPeriodicMs   int64
	lastPollMs       int64
	count            uint32
}

func New(cfg Config, nowMs int64) *Machine {
	if cfg.HomeRefreshMs <= 0 {
		cfg.HomeRefreshMs = defaultHomeRefreshMs
	}
	if cfg.DetailTimeoutMs <= 0 {
		cfg.DetailTimeoutMs = defaultDetailTimeoutMs
	}
	if cfg.MinPollSpacingMs <= 0 {
		cfg.MinPollSpacingMs = defaultMinPollSpacingMs
	}
	if cfg.FullRefreshEvery == 0 {
		cfg.FullRefreshEvery = defaultFullRefreshEvery
	}
	return &Machine{
		cfg:              cfg,
		screen:           types.ScreenHome,
		lastTransitionMs: nowMs,
		lastPeriodicMs:   nowMs,
		lastPollMs:       nowMs,
	}
}

func (m *Machine) Screen() types.Screen { return m.screen }
func (m *Machine) Transitions() uint32  { return m.count }

// Step evaluates one tick. Triggers are checked in priority order:
// isolation edge, advance, retreat, then per-state auto behavior. At
// most one transition happens per call; lower-priority triggers are
// consumed by the caller this tick either way and do not queue.
func (m *Machine) Step(nowMs int64, in Inputs) Decision {
	if in.IsolationEdge {
		if in.Isolated && !isolatedBranch(m.screen) {
			return m.move(nowMs, types.ScreenIsolated, true)
		}
		if !in.Isolated && isolatedBranch(m.screen) {
			return m.move(nowMs, types.ScreenHome, true)
		}
	}
	if in.Advance {
		return m.move(nowMs, m.neighbor(in.Isolated, 1), false)
	}
	if in.Retreat {
		return m.move(nowMs, m.neighbor(in.Isolated, -1), false)
	}

	switch m.screen {
	case types.ScreenHome:
		if nowMs-m.lastPeriodicMs >= m.cfg.HomeRefreshMs {
			return m.refreshHome(nowMs)
		}
	case types.ScreenDetailA, types.ScreenDetailB:
		if nowMs-m.lastTransitionMs >= m.cfg.DetailTimeoutMs {
			to := types.ScreenHome
			if in.Isolated {
				to = types.ScreenIsolated
			}
			return m.move(nowMs, to, false)
		}
	}
	return Decision{Screen: m.screen}
}

func (m *Machine) neighbor(isolated bool, dir int) types.Screen {
	cyc := activeCycle(isolated)
	idx := -1
	for i, s := range cyc {
		if s == m.screen {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cyc[0]
	}
	n := len(cyc)
	return cyc[(idx+dir+n)%n]
}

// move performs a transition. The counter increments on every
// transition; the mode is full on an isolation edge or when the count
// hits the cadence, so the 1-based Nth, 2Nth, ... transitions repaint
// fully. Isolation fulls advance the count like any other transition.
func (m *Machine) move(nowMs int64, to types.Screen, isolationEdge bool) Decision {
	m.count++
	mode := types.RefreshPartial
	if isolationEdge || m.count%m.cfg.FullRefreshEvery == 0 {
		mode = types.RefreshFull
	}
	m.screen = to
	m.lastTransitionMs = nowMs
	if to == types.ScreenHome || isolatedBranch(to) {
		m.lastPeriodicMs = nowMs
	}
	return Decision{Screen: to, Render: true, Mode: mode}
}

// refreshHome re-renders the resting screen in place to keep displayed
// values fresh. It counts toward the refresh cadence but is not a cycle
// move. A sensor re-poll rides along unless one ran too recently.
func (m *Machine) refreshHome(nowMs int64) Decision {
	m.count++
	mode := types.RefreshPartial
	if m.count%m.cfg.FullRefreshEvery == 0 {
		mode = types.RefreshFull
	}
	m.lastPeriodicMs = nowMs
	d := Decision{Screen: m.screen, Render: true, Mode: mode}
	if nowMs-m.lastPollMs >= m.cfg.MinPollSpacingMs {
		d.PollSensor = true
		m.lastPollMs = nowMs
	}
	return d
}
