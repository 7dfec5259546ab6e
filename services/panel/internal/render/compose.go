// Package render turns telemetry into display frames and paints them
// onto an e-paper style surface.
package render

import (
	"inkpanel-go/services/telemetry"
	"inkpanel-go/types"
	"inkpanel-go/x/fmtx"
	"inkpanel-go/x/mathx"
	"inkpanel-go/x/strconvx"
)

// Identity card shown on the resting screens. The model line prefers
// the hub-reported value.
const (
	agentName    = "Hiki"
	agentRole    = "Smart Home AI"
	agentNode    = "RPi 4B"
	agentChannel = "Telegram"
)

// CO2 gauge input range in ppm; readings outside clamp to the ends.
const (
	gaugeCO2Min = 400
	gaugeCO2Max = 2000
)

// Sensor readings older than this get an age marker on the detail view.
const staleReadingMs = 5 * 60 * 1000

// Compose builds the view-model for a screen from the current records.
// It is pure: no bus, no pixels, no clock reads.
func Compose(screen types.Screen, s *telemetry.Store, nowMs int64) types.Frame {
	f := types.Frame{Screen: screen}
	switch screen {
	case types.ScreenHome, types.ScreenIsolatedHome:
		f.Title = "HIKI HOME"
		f.Body = homeBody(s)
	case types.ScreenDetailA:
		f.Title = "NETWORK"
		f.Body = networkBody(s)
	case types.ScreenDetailB:
		f.Title = "ENVIRONMENT"
		f.Body = environmentBody(s, nowMs)
		if r := s.Sensor(); r.OK {
			f.GaugePct = mathx.MapInt(r.CO2, gaugeCO2Min, gaugeCO2Max, 0, 100)
			f.HasGauge = true
		}
	case types.ScreenIsolated:
		f.Title = "KILLSWITCH"
		f.Body = isolationBody(s)
		if iso := s.Isolation(); iso.Received && !iso.Address.IsEmpty() {
			f.QR = iso.Address.String()
		}
	}
	f.Footer = footer(s)
	return f
}

func homeBody(s *telemetry.Store) []string {
	h := s.Health()
	model := "--"
	if !h.Model.IsEmpty() {
		model = h.Model.String()
	}
	up := "--"
	if h.Received && !h.Uptime.IsEmpty() {
		up = h.Uptime.String()
	}

	body := []string{
		"Name:    " + agentName,
		"Role:    " + agentRole,
		"Model:   " + model,
		"Node:    " + agentNode,
		"Channel: " + agentChannel,
		"Uptime:  " + up,
	}
	if r := s.Sensor(); r.OK {
		body = append(body, fmtx.Sprintf("Air:     %s (%d ppm)", telemetry.AirQuality(r.CO2), r.CO2))
	}
	return append(body, "", telemetry.Mood(s))
}

func networkBody(s *telemetry.Store) []string {
	h := s.Health()
	body := []string{"[GW]-->[Agent]-->[HA]"}
	if h.Received {
		agent := "--"
		if !h.Uptime.IsEmpty() {
			agent = "ok"
		}
		body = append(body, fmtx.Sprintf(" %s       %s        %s",
			okDash(h.GatewayOK), agent, okDash(h.HubOK)))
	}
	body = append(body,
		"",
		fmtx.Sprintf("HA:%s  GW:%s  NET:%s", okDash(h.HubOK), okDash(h.GatewayOK), okDash(h.InetOK)),
	)
	if h.Received {
		body = append(body,
			fmtx.Sprintf("%dms  %dms  %dms", h.HubMs, h.GatewayMs, h.InetMs),
			fmtx.Sprintf("HA API: %s", okDash(h.HubAPIOK)),
			"",
			fmtx.Sprintf("Mem: %dM free   Disk: %d%% used", h.MemFreeMB, h.DiskUsedPct),
		)
	}
	return body
}

func environmentBody(s *telemetry.Store, nowMs int64) []string {
	r := s.Sensor()
	if !r.OK {
		return []string{"Sensor: no reading"}
	}
	body := []string{
		fmtx.Sprintf("CO2:  %d ppm", r.CO2),
		"Temp: " + strconvx.FormatDeci(r.TempDeci) + " C",
		"Hum:  " + strconvx.FormatDeci(r.RHDeci) + " %",
		"",
		"Air:  " + telemetry.AirQuality(r.CO2),
	}
	if age := nowMs - r.TS; age >= staleReadingMs {
		body = append(body, fmtx.Sprintf("(reading %dm old)", age/60_000))
	}
	return body
}

func isolationBody(s *telemetry.Store) []string {
	iso := s.Isolation()
	if !iso.Received {
		return []string{"Killswitch: no data", "Waiting for uplink..."}
	}
	if !iso.Isolated() {
		return []string{
			"STATUS: CONNECTED",
			"",
			"Agent has access to",
			"internet and HA",
		}
	}
	body := []string{"STATUS: ISOLATED"}
	if !iso.IsolatedAt.IsEmpty() {
		body = append(body, "Isolated at "+iso.IsolatedAt.String())
	}
	if iso.BlockNumber > 0 {
		body = append(body, "Block: "+strconvx.Itoa(iso.BlockNumber))
	}
	return body
}

// footer mirrors the two status lines every screen carries: link
// summary and agent activity.
func footer(s *telemetry.Store) []string {
	iso := s.Isolation()
	h := s.Health()
	p := s.Peer()

	web3 := "--"
	if iso.WSConnected {
		web3 = "ok"
	}
	smartHome := "--"
	if p.Received && p.HubReachable {
		if p.HubErrors == 0 {
			smartHome = "no error"
		} else if p.HubErrors == 1 {
			smartHome = "1 error"
		} else {
			smartHome = strconvx.Itoa(p.HubErrors) + " errors"
		}
	}

	agent := "AI:--"
	if iso.Isolated() {
		agent = "AI: ISOLATED"
	} else if h.Received {
		agent = fmtx.Sprintf("AI:online (%d msg/24h)", h.Messages24h)
	}

	return []string{
		fmtx.Sprintf("Web3:%s  Smart home:%s", web3, smartHome),
		agent,
	}
}

func okDash(ok bool) string {
	if ok {
		return "ok"
	}
	return "--"
}
