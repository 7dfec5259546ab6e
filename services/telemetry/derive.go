package telemetry

import "inkpanel-go/types"

// CO2 thresholds in ppm. Elevated doubles as the any-problem trigger,
// critical picks the urgent mood line.
const (
	co2Excellent = 600
	co2Good      = 1000
	co2Stuffy    = 1500
)

// Daily message volume bands for the mood line.
const (
	quietDayMsgs = 20
	busyDayMsgs  = 200
)

// AirQuality maps a CO2 reading to its display label. Callers gate on
// SensorReading.OK; the label is meaningless without a valid reading.
func AirQuality(co2 int) string {
	switch {
	case co2 < co2Excellent:
		return "Excellent"
	case co2 < co2Good:
		return "Good"
	case co2 < co2Stuffy:
		return "Stuffy"
	default:
		return "Ventilate!"
	}
}

// AnyProblem reports whether anything on the panel warrants attention:
// the hub is isolated, a peer is unreachable, or the air is bad.
func AnyProblem(s *Store) bool {
	if s.isolation.Isolated() {
		return true
	}
	h := &s.health
	if h.Received && !(h.HubOK && h.GatewayOK && h.InetOK) {
		return true
	}
	return s.sensor.OK && s.sensor.CO2 > co2Good
}

// Mood picks the situational line for the resting screen. Checks run in
// severity order; the first match wins.
func Mood(s *Store) string {
	if s.isolation.Isolated() {
		return "Isolated from the world"
	}
	h := &s.health
	if h.Received && !(h.HubOK && h.GatewayOK && h.InetOK) {
		return "Some peers unreachable"
	}
	if s.sensor.OK && s.sensor.CO2 > co2Stuffy {
		return "Ventilate the room now"
	}
	if s.sensor.OK && s.sensor.CO2 > co2Good {
		return "Air is getting thick"
	}
	if h.Received && h.Messages24h < quietDayMsgs {
		return "A quiet day so far"
	}
	if h.Received && h.Messages24h >= busyDayMsgs {
		return "A busy day in chat"
	}
	if h.Received && justBooted(h) {
		return "Agent just woke up"
	}
	return "All systems nominal"
}

// justBooted is true while the uptime string has no day or hour
// component, e.g. "14m 2s" but not "3h 1m" or "2d 5h".
func justBooted(h *types.HealthReport) bool {
	up := h.Uptime.Bytes()
	if len(up) == 0 {
		return false
	}
	for _, c := range up {
		if c == 'd' || c == 'h' {
			return false
		}
	}
	return true
}
