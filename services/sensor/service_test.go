package sensor

import (
	"context"
	"testing"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/drivers/scd4x"
	"inkpanel-go/types"
)

type fakeMeasurer struct {
	started bool
	sample  scd4x.Sample
	err     error
	reads   int
}

func (f *fakeMeasurer) StartPeriodic() error { f.started = true; return nil }

func (f *fakeMeasurer) ReadMeasurement() (scd4x.Sample, error) {
	f.reads++
	if f.err != nil {
		return scd4x.Sample{}, f.err
	}
	return f.sample, nil
}

func startService(t *testing.T, dev Measurer) *bus.Bus {
	t.Helper()
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := &Service{Dev: dev}
	if err := svc.Start(ctx, b.NewConnection("sensor")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b
}

func waitMessage(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		return msg
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
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

// disableSpacing turns the rate limit off so back-to-back test polls
// are all serviced.
func disableSpacing(t *testing.T, c *bus.Connection) {
	t.Helper()
	c.Publish(c.NewMessage(bus.Topic{"config", "sensor"},
		types.SensorConfig{MinSpacingS: -1}, true))
	time.Sleep(20 * time.Millisecond)
}

func TestPollPublishesReadingAndValues(t *testing.T) {
	dev := &fakeMeasurer{sample: scd4x.Sample{CO2: 612, RawTemp: 26215, RawRH: 32768}}
	b := startService(t, dev)
	c := b.NewConnection("test")
	disableSpacing(t, c)

	readSub := c.Subscribe(bus.Topic{"sensor", "reading"})
	pubSub := c.Subscribe(bus.Topic{"uplink", "pub", bus.WildcardOne})

	c.Publish(c.NewMessage(bus.Topic{"sensor", "poll"}, nil, false))

	msg := waitMessage(t, readSub)
	r, ok := msg.Payload.(types.SensorReading)
	if !ok {
		t.Fatalf("payload type = %T; want SensorReading", msg.Payload)
	}
	if !r.OK || r.CO2 != 612 || r.TempDeci != 250 || r.RHDeci != 500 {
		t.Errorf("reading = %+v; want ok, 612 ppm, 250 deci-C, 500 deci-RH", r)
	}
	if !msg.Retained {
		t.Error("reading not retained")
	}

	want := map[string]string{
		"sensor/co2":         "612",
		"sensor/temperature": "25.0",
		"sensor/humidity":    "50",
	}
	for i := 0; i < 3; i++ {
		p, ok := waitMessage(t, pubSub).Payload.(types.Publish)
		if !ok {
			t.Fatal("uplink pub payload is not a Publish")
		}
		if got := string(p.Payload); want[p.Topic] != got {
			t.Errorf("channel %q = %q; want %q", p.Topic, got, want[p.Topic])
		}
		delete(want, p.Topic)
	}
	if len(want) != 0 {
		t.Errorf("channels never published: %v", want)
	}
}

func TestNotReadyPublishesNothing(t *testing.T) {
	dev := &fakeMeasurer{err: scd4x.ErrNotReady}
	b := startService(t, dev)
	c := b.NewConnection("test")
	disableSpacing(t, c)

	readSub := c.Subscribe(bus.Topic{"sensor", "reading"})
	c.Publish(c.NewMessage(bus.Topic{"sensor", "poll"}, nil, false))
	expectQuiet(t, readSub)
	if dev.reads != 1 {
		t.Errorf("reads = %d; want 1", dev.reads)
	}
}

func TestPollRateLimited(t *testing.T) {
	dev := &fakeMeasurer{sample: scd4x.Sample{CO2: 700}}
	b := startService(t, dev)
	c := b.NewConnection("test")

	// Default 5s spacing; two immediate polls collapse to one read.
	readSub := c.Subscribe(bus.Topic{"sensor", "reading"})
	poll := bus.Topic{"sensor", "poll"}
	c.Publish(c.NewMessage(poll, nil, false))
	c.Publish(c.NewMessage(poll, nil, false))

	waitMessage(t, readSub)
	expectQuiet(t, readSub)
	if dev.reads != 1 {
		t.Errorf("reads = %d; want 1", dev.reads)
	}
}

func TestNoDeviceIgnoresPolls(t *testing.T) {
	b := startService(t, nil)
	c := b.NewConnection("test")

	readSub := c.Subscribe(bus.Topic{"sensor", "reading"})
	c.Publish(c.NewMessage(bus.Topic{"sensor", "poll"}, nil, false))
	expectQuiet(t, readSub)
}

func TestStartPeriodicCalledOnce(t *testing.T) {
	dev := &fakeMeasurer{}
	startService(t, dev)
	time.Sleep(20 * time.Millisecond)
	if !dev.started {
		t.Error("StartPeriodic never called")
	}
}
