//go:build rp2040 || rp2350

package config

// No environment on the MCU; the embedded document is authoritative.
func applyEnvOverrides(*deviceConfig) {}
