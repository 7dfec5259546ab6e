// Package config owns device configuration: an embedded JSON document
// per device, decoded once at startup and published section by section
// as retained bus messages on config/<section>. Services never read
// files or flags; they subscribe to their own section.
package config

import (
	"context"
	"encoding/json"

	"inkpanel-go/bus"
	"inkpanel-go/errcode"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
	"inkpanel-go/x/mathx"
)

const configPrefix = "config"

// deviceConfig is the embedded document's shape: one section per
// service.
type deviceConfig struct {
	Panel     types.PanelConfig     `json:"panel"`
	Sensor    types.SensorConfig    `json:"sensor"`
	Input     types.InputConfig     `json:"input"`
	Uplink    types.UplinkConfig    `json:"uplink"`
	Heartbeat types.HeartbeatConfig `json:"heartbeat"`
}

// Service publishes the configuration. Raw overrides the embedded
// lookup when set; otherwise Device selects an embedded document.
type Service struct {
	Device string
	Raw    []byte
}

// Start decodes and publishes the configuration, then returns. The
// retained bus copies serve late subscribers; there is nothing to
// supervise afterwards.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	raw := s.Raw
	if raw == nil {
		b, ok := embeddedConfigs[s.Device]
		if !ok {
			return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "no embedded config for device " + s.Device}
		}
		raw = b
	}

	var cfg deviceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Err: err}
	}
	applyEnvOverrides(&cfg)
	clamp(&cfg)

	publish := func(section string, payload any) {
		conn.Publish(conn.NewMessage(bus.Topic{configPrefix, section}, payload, true))
	}
	publish("panel", cfg.Panel)
	publish("sensor", cfg.Sensor)
	publish("input", cfg.Input)
	publish("uplink", cfg.Uplink)
	publish("heartbeat", cfg.Heartbeat)

	logx.Info("[config] published", "device", s.Device, "transport", cfg.Uplink.Transport)
	return nil
}

// clamp pulls every interval into a sane range so a bad embedded value
// cannot wedge a service. Zeroes pass through: they mean "use the
// service's default".
func clamp(c *deviceConfig) {
	if c.Panel.TickMs != 0 {
		c.Panel.TickMs = mathx.Clamp(c.Panel.TickMs, 20, 5_000)
	}
	if c.Panel.HomeRefreshS != 0 {
		c.Panel.HomeRefreshS = mathx.Clamp(c.Panel.HomeRefreshS, 5, 3_600)
	}
	if c.Panel.DetailTimeoutS != 0 {
		c.Panel.DetailTimeoutS = mathx.Clamp(c.Panel.DetailTimeoutS, 5, 3_600)
	}
	if c.Panel.FullRefreshEvery != 0 {
		c.Panel.FullRefreshEvery = mathx.Clamp(c.Panel.FullRefreshEvery, 2, 1_000)
	}
	if c.Sensor.PollS != 0 {
		c.Sensor.PollS = mathx.Clamp(c.Sensor.PollS, 5, 3_600)
	}
	if c.Input.DebounceMs != 0 {
		c.Input.DebounceMs = mathx.Clamp(c.Input.DebounceMs, 10, 1_000)
	}
	if c.Heartbeat.IntervalS != 0 {
		c.Heartbeat.IntervalS = mathx.Clamp(c.Heartbeat.IntervalS, 5, 3_600)
	}
}
