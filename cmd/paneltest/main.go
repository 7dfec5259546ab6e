// Command paneltest drives the panel stack through a scripted session
// on an in-process bus and reports PASS/FAIL per step. It needs no
// hardware; run it on the host after changes to navigation or telemetry.
package main

import (
	"context"
	"os"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/drivers/scd4x"
	"inkpanel-go/services/config"
	"inkpanel-go/services/panel"
	"inkpanel-go/services/sensor"
	"inkpanel-go/types"
)

type fixedMeasurer struct{}

func (fixedMeasurer) StartPeriodic() error { return nil }
func (fixedMeasurer) ReadMeasurement() (scd4x.Sample, error) {
	return scd4x.Sample{CO2: 820, RawTemp: 24900, RawRH: 32768}, nil
}

func main() {
	println("[paneltest] boot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	if err := (&sensor.Service{Dev: fixedMeasurer{}}).Start(ctx, b.NewConnection("sensor")); err != nil {
		println("[paneltest] FAIL: start sensor:", err.Error())
		os.Exit(1)
	}
	if err := (&panel.Service{Surface: panel.NewLogSurface()}).Start(ctx, b.NewConnection("panel")); err != nil {
		println("[paneltest] FAIL: start panel:", err.Error())
		os.Exit(1)
	}
	if err := (&config.Service{Device: "panel-01"}).Start(ctx, b.NewConnection("config")); err != nil {
		println("[paneltest] FAIL: start config:", err.Error())
		os.Exit(1)
	}

	ui := b.NewConnection("ui")
	stateSub := ui.Subscribe(bus.Topic{"panel", "state"})
	readSub := ui.Subscribe(bus.Topic{"sensor", "reading"})

	failed := 0
	step := func(name string, ok bool) {
		if ok {
			println("[paneltest] PASS:", name)
		} else {
			println("[paneltest] FAIL:", name)
			failed++
		}
	}

	press := func(btn types.Button) {
		ui.Publish(ui.NewMessage(bus.Topic{"input", "button", string(btn)},
			types.ButtonEvent{Button: btn, TS: time.Now().UnixMilli()}, false))
	}
	inject := func(cat types.Category, payload string) {
		ui.Publish(ui.NewMessage(bus.Topic{"uplink", "msg", string(cat)},
			[]byte(payload), false))
	}

	// Boot renders the resting screen.
	step("boot frame is home",
		expectState(stateSub, types.ScreenHome, "", 2*time.Second))

	// Poll explicitly in case the panel's boot poll raced the sensor's
	// subscription.
	ui.Publish(ui.NewMessage(bus.Topic{"sensor", "poll"}, nil, false))
	step("sensor reading published",
		expectReading(readSub, 820, 2*time.Second))

	// Walk the normal cycle forward and wrap.
	press(types.ButtonAdvance)
	step("advance to detail_a",
		expectState(stateSub, types.ScreenDetailA, types.RefreshPartial, time.Second))
	press(types.ButtonAdvance)
	step("advance to detail_b",
		expectState(stateSub, types.ScreenDetailB, types.RefreshPartial, time.Second))
	press(types.ButtonAdvance)
	step("advance wraps to home",
		expectState(stateSub, types.ScreenHome, "", time.Second))

	// Retreat walks backwards from home.
	press(types.ButtonRetreat)
	step("retreat to detail_b",
		expectState(stateSub, types.ScreenDetailB, types.RefreshPartial, time.Second))

	// A killswitch edge preempts everything and forces a full refresh.
	inject(types.CategoryIsolation,
		`{"state":"isolated","address":"0x7f3a91c2","ws_connected":true}`)
	step("isolation edge jumps to killswitch screen",
		expectState(stateSub, types.ScreenIsolated, types.RefreshFull, time.Second))

	press(types.ButtonAdvance)
	step("advance while isolated reaches isolated home",
		expectState(stateSub, types.ScreenIsolatedHome, types.RefreshPartial, time.Second))

	// Clearing isolation is an edge too: back to home, full refresh.
	inject(types.CategoryIsolation,
		`{"state":"operational","address":"0x7f3a91c2","ws_connected":true}`)
	step("clearing isolation returns home",
		expectState(stateSub, types.ScreenHome, types.RefreshFull, time.Second))

	if failed > 0 {
		println("[paneltest] FAILED steps:", failed)
		os.Exit(1)
	}
	println("[paneltest] all steps passed")
}

// expectState drains panel/state until a record matches or the deadline
// passes. An empty wantMode matches any refresh mode.
func expectState(sub *bus.Subscription, want types.Screen, wantMode types.RefreshMode, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-sub.Channel():
			st, ok := msg.Payload.(types.PanelState)
			if !ok {
				continue
			}
			if st.Screen == want && (wantMode == "" || st.Mode == wantMode) {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func expectReading(sub *bus.Subscription, wantCO2 int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-sub.Channel():
			r, ok := msg.Payload.(types.SensorReading)
			if ok && r.OK && r.CO2 == wantCO2 {
				return true
			}
		case <-deadline:
			return false
		}
	}
}
