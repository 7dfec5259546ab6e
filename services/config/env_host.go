//go:build !(rp2040 || rp2350)

package config

import "os"

// Host binaries may override the embedded uplink settings from the
// environment, so a simulator can point at a local broker without a
// rebuild. Empty variables leave the embedded values alone.
func applyEnvOverrides(c *deviceConfig) {
	if v := os.Getenv("UPLINK_TRANSPORT"); v != "" {
		c.Uplink.Transport = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.Uplink.Broker = v
	}
	if v := os.Getenv("DEVICE_ID"); v != "" {
		c.Uplink.DeviceID = v
	}
	if v := os.Getenv("DISCOVERY_PREFIX"); v != "" {
		c.Uplink.DiscoveryPrefix = v
	}
}
