// Package heartbeat publishes device liveness: a retained
// system/heartbeat record on the bus and a keepalive for the broker's
// availability topic.
package heartbeat

import (
	"context"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
	"inkpanel-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicHeartbeat       = bus.Topic{"system", "heartbeat"}
	topicPubStatus       = bus.Topic{"uplink", "pub", "status"}
)

const defaultInterval = 30 * time.Second

type Service struct{}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	started := time.Now()
	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("[heartbeat] service stopping")
			return
		case msg := <-cfgSub.Channel():
			if cfg, ok := msg.Payload.(types.HeartbeatConfig); ok && cfg.IntervalS > 0 {
				tick.Reset(time.Duration(cfg.IntervalS) * time.Second)
				logx.Info("[heartbeat] config applied", "interval_s", cfg.IntervalS)
			}
		case <-tick.C:
			hb := types.Heartbeat{
				UptimeS: int64(time.Since(started).Seconds()),
				TS:      timex.NowMs(),
			}
			conn.Publish(conn.NewMessage(topicHeartbeat, hb, true))
			conn.Publish(conn.NewMessage(topicPubStatus, types.Publish{
				Topic: "status", Payload: []byte("online"), Retain: true,
			}, false))
			logx.Debug("[heartbeat] beat", "uptime_s", hb.UptimeS)
		}
	}
}
