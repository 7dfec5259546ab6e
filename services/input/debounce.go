// Package input turns raw pin activity into debounced button events on
// input/button/<name>.
package input

import "inkpanel-go/types"

const defaultDebounceMs = 50

const numButtons = 3

func buttonIndex(b types.Button) int {
	switch b {
	case types.ButtonAdvance:
		return 0
	case types.ButtonSelect:
		return 1
	case types.ButtonRetreat:
		return 2
	}
	return -1
}

type buttonState struct {
	seen     bool
	active   bool  // last logical level
	lastOkMs int64 // last recognized press
}

// Debouncer recognizes presses from raw level observations. A press is
// the idle-to-active logical edge; with invert set (active-low wiring,
// pull-up idle high) that is the raw high-to-low edge. Edges inside the
// debounce window of the same button are dropped, not queued. Not safe
// for concurrent use.
type Debouncer struct {
	debounceMs int64
	invert     bool
	state      [numButtons]buttonState
}

func NewDebouncer(debounceMs int64, invert bool) *Debouncer {
	if debounceMs <= 0 {
		debounceMs = defaultDebounceMs
	}
	return &Debouncer{debounceMs: debounceMs, invert: invert}
}

// SetDebounce retunes the window for subsequent observations.
func (d *Debouncer) SetDebounce(ms int64) {
	if ms > 0 {
		d.debounceMs = ms
	}
}

// Observe feeds one raw level sample and reports whether it counts as a
// recognized press. The first sample of a button only primes its level.
func (d *Debouncer) Observe(b types.Button, rawLevel bool, nowMs int64) bool {
	i := buttonIndex(b)
	if i < 0 {
		return false
	}
	st := &d.state[i]

	active := rawLevel
	if d.invert {
		active = !rawLevel
	}

	if !st.seen {
		st.seen = true
		st.active = active
		return false
	}

	pressed := !st.active && active
	st.active = active
	if !pressed {
		return false
	}
	if st.lastOkMs != 0 && nowMs-st.lastOkMs < d.debounceMs {
		return false
	}
	st.lastOkMs = nowMs
	return true
}
