package telemetry

import (
	"context"

	"inkpanel-go/bus"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
)

var (
	topicUplinkMsgAny     = bus.Topic{"uplink", "msg", bus.WildcardOne}
	topicSensorReading    = bus.Topic{"sensor", "reading"}
	topicIsolationChanged = bus.Topic{"telemetry", "isolation", "changed"}
)

// Service mirrors the normalized records onto the bus so observers
// (simulator, smoke tests, uplink diagnostics) see typed telemetry
// without parsing raw payloads themselves. The panel keeps its own
// Store; this one exists for everyone else.
type Service struct{}

// Start the telemetry service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	store := NewStore()

	msgSub := conn.Subscribe(topicUplinkMsgAny)
	defer conn.Unsubscribe(msgSub)
	readingSub := conn.Subscribe(topicSensorReading)
	defer conn.Unsubscribe(readingSub)

	for {
		select {
		case <-ctx.Done():
			logx.Info("[telemetry] service stopping")
			return
		case msg := <-msgSub.Channel():
			cat, ok := msg.Topic.At(2).(string)
			if !ok {
				continue
			}
			raw, ok := rawPayload(msg.Payload)
			if !ok {
				logx.Warn("[telemetry] non-byte payload dropped", "category", cat)
				continue
			}
			if !store.ApplyMessage(types.Category(cat), raw) {
				logx.Warn("[telemetry] message dropped", "category", cat, "bytes", len(raw))
				continue
			}
			publishRecord(conn, store, types.Category(cat))
			if store.IsolationChanged() {
				conn.Publish(conn.NewMessage(topicIsolationChanged, store.Isolation(), false))
			}
		case msg := <-readingSub.Channel():
			if r, ok := msg.Payload.(types.SensorReading); ok {
				store.SetSensor(r)
			}
		}
	}
}

func publishRecord(conn *bus.Connection, store *Store, cat types.Category) {
	var payload any
	switch cat {
	case types.CategoryHealth:
		payload = store.Health()
	case types.CategoryIsolation:
		payload = store.Isolation()
	case types.CategorySecondaryPeer:
		payload = store.Peer()
	default:
		return
	}
	conn.Publish(conn.NewMessage(bus.Topic{"telemetry", string(cat)}, payload, true))
}

func rawPayload(p any) ([]byte, bool) {
	switch v := p.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
