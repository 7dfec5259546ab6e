package uplink

import (
	"context"
	"sync"

	"inkpanel-go/errcode"
	"inkpanel-go/types"
)

// MessageHandler receives one inbound broker message.
type MessageHandler func(topic string, payload []byte)

// Transport is a pluggable broker link. Implementations own the
// physical connection; the service owns reconnect policy and routing.
type Transport interface {
	// Connect establishes the link. It returns once the link is usable
	// or the context is cancelled.
	Connect(ctx context.Context) error
	// Subscribe registers interest in a broker topic. Valid after
	// Connect; subscriptions do not survive a reconnect.
	Subscribe(topic string, h MessageHandler) error
	// Publish sends one message. Topic is absolute.
	Publish(topic string, payload []byte, retain bool) error
	// Lost yields when the link drops. The service closes the
	// transport and dials a fresh one.
	Lost() <-chan error
	Close() error
	String() string
}

// Factory builds a transport from the uplink config.
type Factory func(cfg types.UplinkConfig) (Transport, error)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// RegisterTransport adds a transport implementation. Platform files
// register "mqtt" (host) and "uart" (MCU) from their init functions;
// tests register fakes.
func RegisterTransport(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg types.UplinkConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Transport]
	regMu.RUnlock()
	if !ok {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "uplink", Msg: "unknown transport " + cfg.Transport}
	}
	return f(cfg)
}
