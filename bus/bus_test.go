package bus

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(Topic{"telemetry", "health"})

	conn.Publish(conn.NewMessage(Topic{"telemetry", "health"}, "hello", false))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("payload = %v; want hello", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(Topic{"panel", "state"}, "persist", true))

	sub := conn.Subscribe(Topic{"panel", "state"})

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "persist" {
			t.Errorf("retained payload = %v; want persist", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"uplink", "state"}, "up", true))
	c.Publish(b.NewMessage(Topic{"uplink", "state"}, nil, true))

	sub := c.Subscribe(Topic{"uplink", "state"})
	expectNoMessage(t, sub)
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcardSingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(Topic{"input", "+", "edge"})
	s2 := c.Subscribe(Topic{"input", "+", "+"})
	s3 := c.Subscribe(Topic{"input", "advance", "+"})
	sNo := c.Subscribe(Topic{"input", "+", "held"})

	c.Publish(b.NewMessage(Topic{"input", "advance", "edge"}, "m1", false))

	expectPayload(t, s1, "m1")
	expectPayload(t, s2, "m1")
	expectPayload(t, s3, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(Topic{"input", "retreat", "release"}, "m2", false))

	expectPayload(t, s2, "m2")
	expectNoMessage(t, s1)
	expectNoMessage(t, s3)
	expectNoMessage(t, sNo)

	// Short topics never match a longer pattern.
	c.Publish(b.NewMessage(Topic{"input", "edge"}, "m3", false))
	expectNoMessage(t, s1)
	expectNoMessage(t, s2)
	expectNoMessage(t, s3)
	expectNoMessage(t, sNo)
}

func TestWildcardMultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sTele := c.Subscribe(Topic{"telemetry", "#"})
	sAll := c.Subscribe(Topic{"#"})
	sDeep := c.Subscribe(Topic{"telemetry", "isolation", "#"})
	sExact := c.Subscribe(Topic{"telemetry"})

	c.Publish(b.NewMessage(Topic{"telemetry"}, "p1", false))
	expectPayload(t, sTele, "p1")
	expectPayload(t, sAll, "p1")
	expectPayload(t, sExact, "p1")
	expectNoMessage(t, sDeep)

	c.Publish(b.NewMessage(Topic{"telemetry", "isolation"}, "p2", false))
	expectPayload(t, sTele, "p2")
	expectPayload(t, sAll, "p2")
	expectPayload(t, sDeep, "p2")
	expectNoMessage(t, sExact)

	c.Publish(b.NewMessage(Topic{"telemetry", "isolation", "changed"}, "p3", false))
	expectPayload(t, sTele, "p3")
	expectPayload(t, sAll, "p3")
	expectPayload(t, sDeep, "p3")
	expectNoMessage(t, sExact)
}

func TestWildcardRetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"config"}, "r0", true))
	c.Publish(b.NewMessage(Topic{"config", "panel"}, "r1", true))
	c.Publish(b.NewMessage(Topic{"config", "panel", "tick"}, "r2", true))
	c.Publish(b.NewMessage(Topic{"config", "sensor"}, "r3", true))

	sAll := c.Subscribe(Topic{"config", "#"})
	gotAll := drainPayloads(t, sAll, 4)
	assertSameSet(t, gotAll, []string{"r0", "r1", "r2", "r3"})

	sPlusHash := c.Subscribe(Topic{"config", "+", "#"})
	gotPH := drainPayloads(t, sPlusHash, 3)
	assertSameSet(t, gotPH, []string{"r1", "r2", "r3"})

	sPlus := c.Subscribe(Topic{"config", "+"})
	gotP := drainPayloads(t, sPlus, 2)
	assertSameSet(t, gotP, []string{"r1", "r3"})
}

func TestWildcardRetainedClear(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"config", "panel"}, "keep", true))
	c.Publish(b.NewMessage(Topic{"config", "sensor"}, "other", true))
	c.Publish(b.NewMessage(Topic{"config", "panel"}, nil, true))

	s := c.Subscribe(Topic{"config", "#"})
	got := drainPayloads(t, s, 1)

	if len(got) != 1 || got[0] != "other" {
		t.Fatalf("after clear got %v; want [other]", got)
	}
}

// -----------------------------------------------------------------------------
// Request and reply
// -----------------------------------------------------------------------------

func TestRequestWait(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	reqTopic := Topic{"sensor", "poll"}
	respSub := respConn.Subscribe(reqTopic)
	defer respConn.Unsubscribe(respSub)

	go func() {
		if msg, ok := <-respSub.Channel(); ok {
			respConn.Reply(msg, "OK", false)
		}
	}()

	req := b.NewMessage(reqTopic, nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := reqConn.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if got, ok := reply.Payload.(string); !ok || got != "OK" {
		t.Fatalf("reply payload = %#v; want OK", reply.Payload)
	}
	if len(req.ReplyTo) == 0 {
		t.Fatal("request lacks ReplyTo after RequestWait")
	}
	if !reply.Topic.Equal(req.ReplyTo) {
		t.Fatalf("reply topic %v != request ReplyTo %v", reply.Topic, req.ReplyTo)
	}
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")

	req := b.NewMessage(Topic{"nobody", "home"}, nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := reqConn.RequestWait(ctx, req); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestRequestManualSubscription(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	reqTopic := Topic{"sensor", "poll"}
	reqSub := respConn.Subscribe(reqTopic)
	defer respConn.Unsubscribe(reqSub)

	reqMsg := b.NewMessage(reqTopic, nil, false)
	replySub := reqConn.Request(reqMsg)
	defer reqConn.Unsubscribe(replySub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if msg, ok := <-reqSub.Channel(); ok {
			respConn.Reply(msg, map[string]any{"co2": 640}, false)
		}
	}()

	select {
	case got := <-replySub.Channel():
		m, ok := got.Payload.(map[string]any)
		if !ok {
			t.Fatalf("reply type = %#v; want map", got.Payload)
		}
		if m["co2"] != 640 {
			t.Fatalf("reply content = %#v", m)
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for manual reply")
	}

	<-done
}

func TestReplySequenceUnique(t *testing.T) {
	b := NewBus(8)
	c1 := b.NewConnection("a")
	c2 := b.NewConnection("a")

	m1 := b.NewMessage(Topic{"x"}, nil, false)
	m2 := b.NewMessage(Topic{"x"}, nil, false)
	s1 := c1.Request(m1)
	s2 := c2.Request(m2)
	defer c1.Unsubscribe(s1)
	defer c2.Unsubscribe(s2)

	if m1.ReplyTo.Equal(m2.ReplyTo) {
		t.Fatalf("reply topics collide: %v", m1.ReplyTo)
	}
}

// -----------------------------------------------------------------------------
// Queue overflow and topic construction
// -----------------------------------------------------------------------------

func TestQueueOverflowDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	sub := c.Subscribe(Topic{"burst"})

	for i := 1; i <= 4; i++ {
		c.Publish(b.NewMessage(Topic{"burst"}, i, false))
	}

	got := []int{}
	for len(got) < 2 {
		select {
		case m := <-sub.Channel():
			got = append(got, m.Payload.(int))
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("drained only %v", got)
		}
	}
	if got[0] != 3 || got[1] != 4 {
		t.Fatalf("survivors = %v; want [3 4]", got)
	}
}

func TestTopicInvalidTokenPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-comparable token, got none")
		}
	}()
	_ = T([]byte{1, 2, 3})
}

func TestTopicHelpers(t *testing.T) {
	base := T("hal", "cap")
	full := base.Append("sensor", 3)

	if base.Len() != 2 {
		t.Fatalf("Append mutated receiver: %v", base)
	}
	if full.Len() != 4 || full.At(3) != 3 {
		t.Fatalf("Append result = %v", full)
	}
	if full.At(9) != nil {
		t.Fatal("At out of range should be nil")
	}
	if got := full.String(); got != "hal/cap/sensor/3" {
		t.Fatalf("String() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectPayload(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("payload = %v; want %q", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(60 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload in drain: %#v", m.Payload)
			}
			out = append(out, s)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("drained %d messages, want %d (%v)", len(out), n, out)
	}
	return out
}

func assertSameSet(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v; want %v", got, want)
		}
	}
}
