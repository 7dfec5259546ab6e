package uplink

import (
	"encoding/json"

	"inkpanel-go/types"
)

// Home-Assistant-style discovery: one retained config document per
// sensor channel, published on every (re)connect so a restarted broker
// relearns the device.

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

type discoveryConfig struct {
	Name              string          `json:"name"`
	DeviceClass       string          `json:"device_class"`
	StateTopic        string          `json:"state_topic"`
	UnitOfMeasurement string          `json:"unit_of_measurement"`
	UniqueID          string          `json:"unique_id"`
	AvailabilityTopic string          `json:"availability_topic"`
	Device            discoveryDevice `json:"device"`
}

type channelSpec struct {
	channel string // broker-relative value topic, e.g. "sensor/co2"
	name    string
	class   string
	unit    string
}

var sensorChannels = []channelSpec{
	{channel: "sensor/co2", name: "CO2", class: "carbon_dioxide", unit: "ppm"},
	{channel: "sensor/temperature", name: "Temperature", class: "temperature", unit: "°C"},
	{channel: "sensor/humidity", name: "Humidity", class: "humidity", unit: "%"},
}

// discoveryMessages renders the per-channel config documents plus
// their topics. The default prefix is "homeassistant".
func discoveryMessages(cfg types.UplinkConfig) []types.Publish {
	prefix := cfg.DiscoveryPrefix
	if prefix == "" {
		prefix = "homeassistant"
	}
	dev := discoveryDevice{
		Identifiers:  []string{cfg.DeviceID},
		Name:         cfg.DeviceID,
		Model:        "inkpanel",
		Manufacturer: "torii",
	}

	out := make([]types.Publish, 0, len(sensorChannels))
	for _, ch := range sensorChannels {
		uid := cfg.DeviceID + "_" + ch.class
		doc := discoveryConfig{
			Name:              ch.name,
			DeviceClass:       ch.class,
			StateTopic:        cfg.DeviceID + "/" + ch.channel,
			UnitOfMeasurement: ch.unit,
			UniqueID:          uid,
			AvailabilityTopic: cfg.DeviceID + "/status",
			Device:            dev,
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		out = append(out, types.Publish{
			Topic:   prefix + "/sensor/" + uid + "/config",
			Payload: payload,
			Retain:  true,
		})
	}
	return out
}
