package input

import (
	"context"
	"testing"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/types"
)

type fakeSource struct{ ch chan RawEdge }

func (f *fakeSource) Events() <-chan RawEdge { return f.ch }

func startService(t *testing.T) (*bus.Bus, *fakeSource) {
	t.Helper()
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	src := &fakeSource{ch: make(chan RawEdge, 16)}
	svc := &Service{Source: src}
	if err := svc.Start(ctx, b.NewConnection("input")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b, src
}

func waitEvent(t *testing.T, sub *bus.Subscription) types.ButtonEvent {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		ev, ok := msg.Payload.(types.ButtonEvent)
		if !ok {
			t.Fatalf("payload type = %T; want ButtonEvent", msg.Payload)
		}
		return ev
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for button event")
		return types.ButtonEvent{}
	}
}

func expectQuiet(t *testing.T, sub *bus.Subscription) {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected message on %v: %v", msg.Topic, msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPressPublishesButtonEvent(t *testing.T) {
	b, src := startService(t)
	c := b.NewConnection("test")
	sub := c.Subscribe(bus.Topic{"input", "button", "advance"})

	src.ch <- RawEdge{Button: types.ButtonAdvance, Level: true, TSMs: 0} // prime idle
	src.ch <- RawEdge{Button: types.ButtonAdvance, Level: false, TSMs: 1000}

	ev := waitEvent(t, sub)
	if ev.Button != types.ButtonAdvance || ev.TS != 1000 {
		t.Errorf("event = %+v; want advance at 1000", ev)
	}
}

func TestBouncedEdgesPublishOnce(t *testing.T) {
	b, src := startService(t)
	c := b.NewConnection("test")
	sub := c.Subscribe(bus.Topic{"input", "button", bus.WildcardOne})

	src.ch <- RawEdge{Button: types.ButtonRetreat, Level: true, TSMs: 0}
	src.ch <- RawEdge{Button: types.ButtonRetreat, Level: false, TSMs: 1000}
	src.ch <- RawEdge{Button: types.ButtonRetreat, Level: true, TSMs: 1010}
	src.ch <- RawEdge{Button: types.ButtonRetreat, Level: false, TSMs: 1020}

	waitEvent(t, sub)
	expectQuiet(t, sub)
}

func TestSelectButtonStillPublished(t *testing.T) {
	// Select is reserved by navigation but the service reports it like
	// any other button; consumers decide what to do with it.
	b, src := startService(t)
	c := b.NewConnection("test")
	sub := c.Subscribe(bus.Topic{"input", "button", "select"})

	src.ch <- RawEdge{Button: types.ButtonSelect, Level: true, TSMs: 0}
	src.ch <- RawEdge{Button: types.ButtonSelect, Level: false, TSMs: 500}

	ev := waitEvent(t, sub)
	if ev.Button != types.ButtonSelect {
		t.Errorf("event = %+v; want select", ev)
	}
}

func TestConfigRetunesDebounce(t *testing.T) {
	b, src := startService(t)
	c := b.NewConnection("test")
	sub := c.Subscribe(bus.Topic{"input", "button", "advance"})

	c.Publish(c.NewMessage(bus.Topic{"config", "input"},
		types.InputConfig{DebounceMs: 200, ActiveLow: true}, true))
	// Config and edges share the select loop, so an edge queued after
	// the publish is observed after the new window applies.
	time.Sleep(20 * time.Millisecond)

	src.ch <- RawEdge{Button: types.ButtonAdvance, Level: true, TSMs: 0}
	src.ch <- RawEdge{Button: types.ButtonAdvance, Level: false, TSMs: 1000}
	waitEvent(t, sub)

	src.ch <- RawEdge{Button: types.ButtonAdvance, Level: true, TSMs: 1050}
	src.ch <- RawEdge{Button: types.ButtonAdvance, Level: false, TSMs: 1100} // inside 200ms window
	expectQuiet(t, sub)
}
