// Package uplink owns the broker link: it routes inbound status
// topics onto the bus as raw category payloads, forwards outbound
// publish requests, and announces the device's sensor channels on
// every (re)connect. The transport behind the link is pluggable; host
// builds register MQTT, MCU builds register a framed UART bridge.
package uplink

import (
	"context"
	"sync"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
	"inkpanel-go/x/timex"
)

var (
	topicConfigUplink = bus.Topic{"config", "uplink"}
	topicPubAny       = bus.Topic{"uplink", "pub", bus.WildcardAll}
	topicMsg          = bus.Topic{"uplink", "msg"}
	topicState        = bus.Topic{"uplink", "state"}
)

// Inbound payloads above this size are dropped here, with a warning,
// before they reach any store.
const maxInbound = 512

// Service supervises one transport at a time.
type Service struct {
	mu sync.Mutex
	tr Transport
	up bool
}

// Start the uplink service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigUplink)
	defer conn.Unsubscribe(cfgSub)
	pubSub := conn.Subscribe(topicPubAny)
	defer conn.Unsubscribe(pubSub)

	s.publishState(conn, types.LinkDown, "")

	var linkCancel context.CancelFunc
	defer func() {
		if linkCancel != nil {
			linkCancel()
		}
	}()

	var cfg types.UplinkConfig

	for {
		select {
		case <-ctx.Done():
			logx.Info("[uplink] service stopping")
			return
		case msg := <-cfgSub.Channel():
			c, ok := msg.Payload.(types.UplinkConfig)
			if !ok {
				continue
			}
			cfg = c
			if linkCancel != nil {
				linkCancel()
			}
			var linkCtx context.Context
			linkCtx, linkCancel = context.WithCancel(ctx)
			go s.runLink(linkCtx, conn, cfg)
		case msg := <-pubSub.Channel():
			p, ok := msg.Payload.(types.Publish)
			if !ok {
				continue
			}
			s.publishOut(cfg, p)
		}
	}
}

// runLink dials, services, and redials one transport until its context
// is cancelled by shutdown or reconfiguration.
func (s *Service) runLink(ctx context.Context, conn *bus.Connection, cfg types.UplinkConfig) {
	backoff := backoffSeq(250*time.Millisecond, 30*time.Second)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tr, err := newTransport(cfg)
		if err != nil {
			logx.Error("[uplink] transport init failed", "err", err.Error())
			s.publishState(conn, types.LinkDown, cfg.Transport)
			return
		}
		if err := tr.Connect(ctx); err != nil {
			delay := backoff()
			logx.Warn("[uplink] connect failed", "err", err.Error(), "retry_in", delay.String())
			s.publishState(conn, types.LinkDegraded, tr.String())
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		backoff = backoffSeq(250*time.Millisecond, 30*time.Second)

		s.setTransport(tr)
		s.onConnect(conn, tr, cfg)
		s.publishState(conn, types.LinkUp, tr.String())
		logx.Info("[uplink] link up", "transport", tr.String())

		select {
		case <-ctx.Done():
			s.clearTransport()
			_ = tr.Close()
			return
		case err := <-tr.Lost():
			s.clearTransport()
			_ = tr.Close()
			delay := backoff()
			if err != nil {
				logx.Warn("[uplink] link lost", "err", err.Error(), "retry_in", delay.String())
			} else {
				logx.Warn("[uplink] link lost", "retry_in", delay.String())
			}
			s.publishState(conn, types.LinkDegraded, tr.String())
			if !sleep(ctx, delay) {
				return
			}
		}
	}
}

// onConnect wires inbound routes and announces the device. Runs on
// every successful (re)connect since subscriptions and retained
// discovery do not survive a broker restart.
func (s *Service) onConnect(conn *bus.Connection, tr Transport, cfg types.UplinkConfig) {
	for _, route := range cfg.Routes {
		cat := route.Category
		err := tr.Subscribe(route.Topic, func(topic string, payload []byte) {
			s.inbound(conn, cat, payload)
		})
		if err != nil {
			logx.Warn("[uplink] subscribe failed", "topic", route.Topic, "err", err.Error())
		}
	}

	for _, d := range discoveryMessages(cfg) {
		if err := tr.Publish(d.Topic, d.Payload, d.Retain); err != nil {
			logx.Warn("[uplink] discovery publish failed", "topic", d.Topic, "err", err.Error())
		}
	}
	if err := tr.Publish(cfg.DeviceID+"/status", []byte("online"), true); err != nil {
		logx.Warn("[uplink] availability publish failed", "err", err.Error())
	}
}

// inbound republishes a broker payload as a raw category message.
// Parsing is the store's job; size policing is ours.
func (s *Service) inbound(conn *bus.Connection, cat types.Category, payload []byte) {
	if len(payload) > maxInbound {
		logx.Warn("[uplink] oversized message dropped",
			"category", string(cat), "bytes", len(payload))
		return
	}
	// Copy: the transport may reuse its receive buffer.
	raw := make([]byte, len(payload))
	copy(raw, payload)
	conn.Publish(conn.NewMessage(topicMsg.Append(string(cat)), raw, false))
}

// publishOut forwards one publish request over the live transport.
// With the link down the request is dropped; every sensor poll
// produces fresh values, so there is nothing worth queueing.
func (s *Service) publishOut(cfg types.UplinkConfig, p types.Publish) {
	s.mu.Lock()
	tr, up := s.tr, s.up
	s.mu.Unlock()
	if !up {
		logx.Debug("[uplink] publish dropped, link down", "channel", p.Topic)
		return
	}
	topic := p.Topic
	if cfg.DeviceID != "" {
		topic = cfg.DeviceID + "/" + p.Topic
	}
	if err := tr.Publish(topic, p.Payload, p.Retain); err != nil {
		logx.Warn("[uplink] publish failed", "topic", topic, "err", err.Error())
	}
}

func (s *Service) setTransport(tr Transport) {
	s.mu.Lock()
	s.tr, s.up = tr, true
	s.mu.Unlock()
}

func (s *Service) clearTransport() {
	s.mu.Lock()
	s.tr, s.up = nil, false
	s.mu.Unlock()
}

func (s *Service) publishState(conn *bus.Connection, link types.Link, transport string) {
	conn.Publish(conn.NewMessage(topicState, types.UplinkState{
		Link:      link,
		Transport: transport,
		TS:        timex.NowMs(),
	}, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
