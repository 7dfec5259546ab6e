package types

// ---- Screens ----

// Screen identifies one renderable panel page.
type Screen string

const (
	ScreenHome         Screen = "home"
	ScreenDetailA      Screen = "detail_a"
	ScreenDetailB      Screen = "detail_b"
	ScreenIsolated     Screen = "isolated"
	ScreenIsolatedHome Screen = "isolated_home"
)

// RefreshMode selects the e-paper refresh strategy for one render.
type RefreshMode string

const (
	RefreshFull    RefreshMode = "full"
	RefreshPartial RefreshMode = "partial"
)

// PanelState is published retained on panel/state after every
// transition, for diagnostics and the host simulator.
type PanelState struct {
	Screen      Screen      `json:"screen"`
	Mode        RefreshMode `json:"mode"`
	Transitions int         `json:"transitions"`
	TS          int64       `json:"ts_ms"`
}

// ---- Frames ----

// Frame is the composed view-model for one screen: everything a
// surface needs to paint, with no pixel or font knowledge. Published
// retained on panel/frame so host observers can mirror the display.
type Frame struct {
	Screen   Screen   `json:"screen"`
	Title    string   `json:"title"`
	Body     []string `json:"body"`
	Footer   []string `json:"footer"`
	QR       string   `json:"qr,omitempty"`
	GaugePct int      `json:"gauge_pct"`
	HasGauge bool     `json:"has_gauge"`
}

// ---- Buttons ----

// Button names one of the three logical panel buttons.
type Button string

const (
	ButtonAdvance Button = "advance"
	ButtonSelect  Button = "select"
	ButtonRetreat Button = "retreat"
)

// ButtonEvent is one debounced press, published on
// input/button/<name>.
type ButtonEvent struct {
	Button Button `json:"button"`
	TS     int64  `json:"ts_ms"`
}
