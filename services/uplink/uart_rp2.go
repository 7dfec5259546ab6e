//go:build rp2040 || rp2350

package uplink

import (
	"context"
	"sync"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"inkpanel-go/types"
)

func init() {
	RegisterTransport("uart", newUARTTransport)
}

const uartBaud = 115200

// uartTransport frames bus traffic over UART0; a companion process on
// the other end of the wire bridges frames to the real broker.
type uartTransport struct {
	cfg  types.UplinkConfig
	u    *uartx.UART
	lost chan error

	wmu  sync.Mutex
	smu  sync.Mutex
	subs map[string]MessageHandler

	cancel context.CancelFunc
}

func newUARTTransport(cfg types.UplinkConfig) (Transport, error) {
	return &uartTransport{
		cfg:  cfg,
		u:    uartx.UART0,
		lost: make(chan error, 1),
		subs: map[string]MessageHandler{},
	}, nil
}

func (t *uartTransport) Connect(ctx context.Context) error {
	if err := t.u.Configure(uartx.UARTConfig{BaudRate: uartBaud}); err != nil {
		return err
	}
	rctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.readLoop(rctx)
	return nil
}

// readLoop parses frames off the wire until the link context ends or a
// read fails.
func (t *uartTransport) readLoop(ctx context.Context) {
	r := &uartReader{ctx: ctx, u: t.u}
	for {
		f, err := readFrame(r)
		if err != nil {
			if ctx.Err() == nil {
				select {
				case t.lost <- err:
				default:
				}
			}
			return
		}
		switch f.Kind() {
		case framePub:
			t.smu.Lock()
			h := t.subs[f.Topic]
			t.smu.Unlock()
			if h != nil {
				h(f.Topic, f.Payload)
			}
		case framePing:
			_ = t.write(Frame{Type: framePong})
		}
	}
}

func (t *uartTransport) Subscribe(topic string, h MessageHandler) error {
	t.smu.Lock()
	t.subs[topic] = h
	t.smu.Unlock()
	return t.write(Frame{Type: frameSub, Topic: topic})
}

func (t *uartTransport) Publish(topic string, payload []byte, retain bool) error {
	typ := framePub
	if retain {
		typ |= flagRetain
	}
	return t.write(Frame{Type: typ, Topic: topic, Payload: payload})
}

func (t *uartTransport) write(f Frame) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	return writeFrame(t.u, f)
}

func (t *uartTransport) Lost() <-chan error { return t.lost }

func (t *uartTransport) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

func (t *uartTransport) String() string { return "uart" }

// uartReader adapts uartx's context-aware receive to io.Reader so the
// frame codec can run over it.
type uartReader struct {
	ctx context.Context
	u   *uartx.UART
}

func (r *uartReader) Read(p []byte) (int, error) {
	return r.u.RecvSomeContext(r.ctx, p)
}
