package types

// ---- Uplink ----

// Link is the reported state of the broker link.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

// UplinkState is published retained on uplink/state.
type UplinkState struct {
	Link      Link   `json:"link"`
	Transport string `json:"transport"`
	TS        int64  `json:"ts_ms"`
}

// Publish asks the uplink to send a payload to the broker. Services
// put these on uplink/pub/<channel>; the channel token is
// informational, Topic is authoritative.
type Publish struct {
	Topic   string
	Payload []byte
	Retain  bool
}

// Heartbeat is published retained on system/heartbeat.
type Heartbeat struct {
	UptimeS int64 `json:"uptime_s"`
	TS      int64 `json:"ts_ms"`
}
