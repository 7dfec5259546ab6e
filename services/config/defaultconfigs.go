package config

// Embedded per-device configuration documents. Keyed by the device ID
// handed to the Service; raw JSON lives in flash, not RAM.

const cfgPanel01 = `{
  "panel": {
    "tick_ms": 100,
    "home_refresh_s": 60,
    "detail_timeout_s": 30,
    "full_refresh_every": 10
  },
  "sensor": {
    "poll_s": 60,
    "jitter_ms": 500,
    "min_spacing_s": 5
  },
  "input": {
    "debounce_ms": 50,
    "pin_advance": 2,
    "pin_select": 3,
    "pin_retreat": 4,
    "active_low": true
  },
  "uplink": {
    "transport": "uart",
    "device_id": "panel-01",
    "routes": [
      {"topic": "agent/health", "category": "health"},
      {"topic": "killswitch/status", "category": "isolation-status"},
      {"topic": "gateway/health", "category": "secondary-peer-health"}
    ]
  },
  "heartbeat": {
    "interval_s": 30
  }
}`

var embeddedConfigs = map[string][]byte{
	"panel-01": []byte(cfgPanel01),
}
