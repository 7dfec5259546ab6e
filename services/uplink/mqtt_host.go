//go:build !(rp2040 || rp2350)

package uplink

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"inkpanel-go/errcode"
	"inkpanel-go/types"
)

func init() {
	RegisterTransport("mqtt", newMQTTTransport)
}

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// mqttTransport links to a broker with paho. Reconnects are left to
// the service's supervision loop, so auto-reconnect stays off and a
// lost connection surfaces on Lost.
type mqttTransport struct {
	cfg    types.UplinkConfig
	client mqtt.Client
	lost   chan error
}

func newMQTTTransport(cfg types.UplinkConfig) (Transport, error) {
	if cfg.Broker == "" {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "uplink/mqtt", Msg: "broker not set"}
	}
	return &mqttTransport{cfg: cfg, lost: make(chan error, 1)}, nil
}

func (t *mqttTransport) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.DeviceID).
		SetAutoReconnect(false).
		SetConnectTimeout(mqttConnectTimeout).
		SetWill(t.cfg.DeviceID+"/status", "offline", 0, true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			select {
			case t.lost <- err:
			default:
			}
		})

	t.client = mqtt.NewClient(opts)
	token := t.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return errcode.Timeout
	}
	return token.Error()
}

func (t *mqttTransport) Subscribe(topic string, h MessageHandler) error {
	token := t.client.Subscribe(topic, 0, func(_ mqtt.Client, m mqtt.Message) {
		h(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errcode.Timeout
	}
	return token.Error()
}

func (t *mqttTransport) Publish(topic string, payload []byte, retain bool) error {
	token := t.client.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errcode.Timeout
	}
	return token.Error()
}

func (t *mqttTransport) Lost() <-chan error { return t.lost }

func (t *mqttTransport) Close() error {
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(250)
	}
	return nil
}

func (t *mqttTransport) String() string { return "mqtt" }
