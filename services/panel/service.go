// Package panel runs the display head: it owns the telemetry store and
// the navigation machine, steps them on a fixed tick, and paints frames
// onto whatever surface the binary wired in.
package panel

import (
	"context"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/errcode"
	"inkpanel-go/services/panel/internal/nav"
	"inkpanel-go/services/panel/internal/render"
	"inkpanel-go/services/telemetry"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
	"inkpanel-go/x/timex"
)

var (
	topicUplinkMsgAny  = bus.Topic{"uplink", "msg", bus.WildcardOne}
	topicSensorReading = bus.Topic{"sensor", "reading"}
	topicButtonAny     = bus.Topic{"input", "button", bus.WildcardOne}
	topicConfigPanel   = bus.Topic{"config", "panel"}
	topicPanelState    = bus.Topic{"panel", "state"}
	topicPanelFrame    = bus.Topic{"panel", "frame"}
	topicSensorPoll    = bus.Topic{"sensor", "poll"}
)

const defaultTickMs = 100

// Surface re-exports the render target so binaries outside this
// package tree can wire a display in. epd42.Device implements it.
type Surface = render.Surface

// NewLogSurface returns a headless surface that logs flushes; host
// binaries use it when no display or TUI is wanted.
func NewLogSurface() Surface { return render.NewLogSurface() }

// Service drives the panel. Surface may be nil (or go away); navigation
// still advances and frames still reach the bus.
type Service struct {
	Surface Surface
}

// Start the panel service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

// buttonFlags accumulates presses between ticks. Each flag is an edge:
// set on the first event, consumed by the next Step, never queued.
type buttonFlags struct {
	advance bool
	retreat bool
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	msgSub := conn.Subscribe(topicUplinkMsgAny)
	defer conn.Unsubscribe(msgSub)
	readSub := conn.Subscribe(topicSensorReading)
	defer conn.Unsubscribe(readSub)
	btnSub := conn.Subscribe(topicButtonAny)
	defer conn.Unsubscribe(btnSub)
	cfgSub := conn.Subscribe(topicConfigPanel)
	defer conn.Unsubscribe(cfgSub)

	painter := render.NewPainter(s.Surface)
	store := telemetry.NewStore()
	machine := nav.New(nav.Config{}, timex.NowMs())
	lastIsolated := false
	var flags buttonFlags

	tick := time.NewTicker(defaultTickMs * time.Millisecond)
	defer tick.Stop()

	// Boot: ask for a first reading and put the resting screen up
	// before any telemetry lands.
	conn.Publish(conn.NewMessage(topicSensorPoll, nil, false))
	renderAndPublish(conn, painter, machine, store, nav.Decision{
		Screen: machine.Screen(), Render: true, Mode: types.RefreshFull,
	}, timex.NowMs())

	for {
		select {
		case <-ctx.Done():
			logx.Info("[panel] service stopping")
			return
		case msg := <-msgSub.Channel():
			applyUplink(store, msg)
		case msg := <-readSub.Channel():
			if r, ok := msg.Payload.(types.SensorReading); ok {
				store.SetSensor(r)
			}
		case msg := <-btnSub.Channel():
			applyButton(&flags, msg)
		case msg := <-cfgSub.Channel():
			machine = applyConfig(machine, tick, msg)
		case <-tick.C:
			now := timex.NowMs()

			edge := false
			if store.IsolationChanged() {
				iso := store.Isolation()
				cur := iso.Isolated()
				edge = cur != lastIsolated
				lastIsolated = cur
			}

			d := machine.Step(now, nav.Inputs{
				Isolated:      lastIsolated,
				IsolationEdge: edge,
				Advance:       flags.advance,
				Retreat:       flags.retreat,
			})
			flags = buttonFlags{}

			if d.PollSensor {
				conn.Publish(conn.NewMessage(topicSensorPoll, nil, false))
			}
			if d.Render {
				renderAndPublish(conn, painter, machine, store, d, now)
			}
		}
	}
}

func renderAndPublish(conn *bus.Connection, painter *render.Painter, machine *nav.Machine, store *telemetry.Store, d nav.Decision, now int64) {
	frame := render.Compose(d.Screen, store, now)
	conn.Publish(conn.NewMessage(topicPanelFrame, frame, true))

	if err := painter.Render(frame, d.Mode); err != nil {
		if errcode.Of(err) == errcode.SurfaceUnavailable {
			logx.Debug("[panel] no render surface, skipped", "screen", string(d.Screen))
		} else {
			logx.Warn("[panel] render failed", "screen", string(d.Screen), "err", err.Error())
		}
	}

	conn.Publish(conn.NewMessage(topicPanelState, types.PanelState{
		Screen:      d.Screen,
		Mode:        d.Mode,
		Transitions: int(machine.Transitions()),
		TS:          now,
	}, true))
	logx.Info("[panel] render", "screen", string(d.Screen), "mode", string(d.Mode))
}

func applyUplink(store *telemetry.Store, msg *bus.Message) {
	cat, ok := msg.Topic.At(2).(string)
	if !ok {
		return
	}
	var raw []byte
	switch v := msg.Payload.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		logx.Warn("[panel] non-byte payload dropped", "category", cat)
		return
	}
	if !store.ApplyMessage(types.Category(cat), raw) {
		logx.Warn("[panel] message dropped", "category", cat, "bytes", len(raw))
	}
}

func applyButton(flags *buttonFlags, msg *bus.Message) {
	ev, ok := msg.Payload.(types.ButtonEvent)
	if !ok {
		return
	}
	switch ev.Button {
	case types.ButtonAdvance:
		flags.advance = true
	case types.ButtonRetreat:
		flags.retreat = true
	case types.ButtonSelect:
		// Reserved; recognized but unused by navigation.
	}
}

// applyConfig retunes the tick and, while navigation is still untouched,
// rebuilds the machine with the configured timings.
func applyConfig(machine *nav.Machine, tick *time.Ticker, msg *bus.Message) *nav.Machine {
	cfg, ok := msg.Payload.(types.PanelConfig)
	if !ok {
		return machine
	}
	if cfg.TickMs > 0 {
		tick.Reset(time.Duration(cfg.TickMs) * time.Millisecond)
	}
	if machine.Transitions() > 0 {
		logx.Warn("[panel] config arrived after first transition, keeping current navigation")
		return machine
	}
	logx.Info("[panel] config applied",
		"tick_ms", cfg.TickMs, "home_refresh_s", cfg.HomeRefreshS,
		"detail_timeout_s", cfg.DetailTimeoutS, "full_every", cfg.FullRefreshEvery)
	return nav.New(nav.Config{
		HomeRefreshMs:    int64(cfg.HomeRefreshS) * 1000,
		DetailTimeoutMs:  int64(cfg.DetailTimeoutS) * 1000,
		MinPollSpacingMs: 0,
		FullRefreshEvery: uint32(cfg.FullRefreshEvery),
	}, timex.NowMs())
}
