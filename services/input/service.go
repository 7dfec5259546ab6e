package input

import (
	"context"

	"inkpanel-go/bus"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
)

var (
	topicConfigInput = bus.Topic{"config", "input"}
	topicButton      = bus.Topic{"input", "button"}
)

// RawEdge is one pin level change as captured at the source (ISR on
// hardware, keystroke translation on the host). Level is the raw
// electrical level; inversion happens in the debouncer.
type RawEdge struct {
	Button types.Button
	Level  bool
	TSMs   int64
}

// Source delivers raw edges. Implementations must never block the
// producer; a full queue drops the edge.
type Source interface {
	Events() <-chan RawEdge
}

// Service debounces raw edges into button events on
// input/button/<name>. A nil Source is fine: the host simulator
// publishes the same events directly and this service just idles.
type Service struct {
	Source Source
}

// Start the input service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigInput)
	defer conn.Unsubscribe(cfgSub)

	deb := NewDebouncer(0, true)

	var events <-chan RawEdge
	if s.Source != nil {
		events = s.Source.Events()
	}

	for {
		select {
		case <-ctx.Done():
			logx.Info("[input] service stopping")
			return
		case msg := <-cfgSub.Channel():
			if cfg, ok := msg.Payload.(types.InputConfig); ok {
				deb.SetDebounce(int64(cfg.DebounceMs))
				deb.invert = cfg.ActiveLow
				logx.Info("[input] config applied",
					"debounce_ms", cfg.DebounceMs, "active_low", cfg.ActiveLow)
			}
		case ev := <-events:
			if !deb.Observe(ev.Button, ev.Level, ev.TSMs) {
				continue
			}
			conn.Publish(conn.NewMessage(
				topicButton.Append(string(ev.Button)),
				types.ButtonEvent{Button: ev.Button, TS: ev.TSMs},
				false,
			))
			logx.Debug("[input] press", "button", string(ev.Button))
		}
	}
}
