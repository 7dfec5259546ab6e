package types

// Configuration sections. The config service decodes the embedded
// per-device JSON and publishes each section retained on
// config/<section>; services decode their own section from the bus.

type PanelConfig struct {
	TickMs           int `json:"tick_ms"`
	HomeRefreshS     int `json:"home_refresh_s"`
	DetailTimeoutS   int `json:"detail_timeout_s"`
	FullRefreshEvery int `json:"full_refresh_every"`
}

type SensorConfig struct {
	PollS       int `json:"poll_s"`
	JitterMs    int `json:"jitter_ms"`
	MinSpacingS int `json:"min_spacing_s"`
}

type InputConfig struct {
	DebounceMs int  `json:"debounce_ms"`
	PinAdvance int  `json:"pin_advance"`
	PinSelect  int  `json:"pin_select"`
	PinRetreat int  `json:"pin_retreat"`
	ActiveLow  bool `json:"active_low"`
}

// TopicRoute maps one broker topic to a telemetry category.
type TopicRoute struct {
	Topic    string   `json:"topic"`
	Category Category `json:"category"`
}

type UplinkConfig struct {
	Transport       string       `json:"transport"` // "mqtt" or "uart"
	Broker          string       `json:"broker,omitempty"`
	DeviceID        string       `json:"device_id"`
	Routes          []TopicRoute `json:"routes"`
	DiscoveryPrefix string       `json:"discovery_prefix,omitempty"`
}

type HeartbeatConfig struct {
	IntervalS int `json:"interval_s"`
}
