// Package telemetry normalizes raw uplink payloads into typed records
// and derives display state from them. The Store is single-owner: each
// consumer builds its own instance and feeds it from one goroutine.
package telemetry

import (
	"inkpanel-go/types"
	"inkpanel-go/x/jsonx"
)

// Payloads above this size are dropped without touching any record.
const maxPayload = 512

// Wire field names, as emitted by the hub's reporting jobs.
const (
	keyHub         = "ha"
	keyGateway     = "gw"
	keyInet        = "inet"
	keyHubAPI      = "ha_api"
	keyHubMs       = "ha_ms"
	keyGatewayMs   = "gw_ms"
	keyInetMs      = "inet_ms"
	keyMemFree     = "mem"
	keyDiskUsed    = "disk"
	keyMessages24h = "msgs_24h"
	keyUptime      = "up"
	keyModel       = "model"

	keyState       = "state"
	keyAddress     = "address"
	keyIsolatedAt  = "isolated_at"
	keyWSConnected = "ws_connected"
	keyBlockNumber = "block_number"

	keyHubErrors    = "ha_errors"
	keyHubReachable = "ha_reachable"
)

// Store holds the current value of every telemetry record. Records are
// overwritten wholesale on each message; absent fields reset to zero.
type Store struct {
	health    types.HealthReport
	isolation types.IsolationStatus
	peer      types.SecondaryPeerHealth
	sensor    types.SensorReading

	isolationChanged bool
}

func NewStore() *Store {
	return &Store{
		health:    types.NewHealthReport(),
		isolation: types.NewIsolationStatus(),
	}
}

// ApplyMessage rebuilds the record for cat from raw. It reports false, with
// no record mutation, when the payload is oversized or the category is
// unknown. Logging a drop is the caller's business.
func (s *Store) ApplyMessage(cat types.Category, raw []byte) bool {
	if len(raw) > maxPayload {
		return false
	}
	switch cat {
	case types.CategoryHealth:
		s.applyHealth(raw)
	case types.CategoryIsolation:
		s.applyIsolation(raw)
	case types.CategorySecondaryPeer:
		s.applyPeer(raw)
	default:
		return false
	}
	return true
}

func (s *Store) applyHealth(raw []byte) {
	rec := types.NewHealthReport()
	rec.Received = true
	rec.HubOK = jsonx.Int(raw, keyHub) != 0
	rec.GatewayOK = jsonx.Int(raw, keyGateway) != 0
	rec.InetOK = jsonx.Int(raw, keyInet) != 0
	rec.HubAPIOK = jsonx.Int(raw, keyHubAPI) != 0
	rec.HubMs = jsonx.Int(raw, keyHubMs)
	rec.GatewayMs = jsonx.Int(raw, keyGatewayMs)
	rec.InetMs = jsonx.Int(raw, keyInetMs)
	rec.MemFreeMB = jsonx.Int(raw, keyMemFree)
	rec.DiskUsedPct = jsonx.Int(raw, keyDiskUsed)
	rec.Messages24h = jsonx.Int(raw, keyMessages24h)
	jsonx.Str(raw, keyUptime, &rec.Uptime)
	jsonx.Str(raw, keyModel, &rec.Model)
	s.health = rec
}

func (s *Store) applyIsolation(raw []byte) {
	rec := types.NewIsolationStatus()
	rec.Received = true
	jsonx.Str(raw, keyState, &rec.State)
	jsonx.Str(raw, keyAddress, &rec.Address)
	jsonx.Str(raw, keyIsolatedAt, &rec.IsolatedAt)
	rec.WSConnected = jsonx.Bool(raw, keyWSConnected)
	rec.BlockNumber = jsonx.Int(raw, keyBlockNumber)
	if !rec.State.Equal(&s.isolation.State) {
		s.isolationChanged = true
	}
	s.isolation = rec
}

func (s *Store) applyPeer(raw []byte) {
	rec := types.SecondaryPeerHealth{Received: true}
	rec.HubErrors = jsonx.Int(raw, keyHubErrors)
	rec.HubReachable = jsonx.Bool(raw, keyHubReachable)
	s.peer = rec
}

// SetSensor records a poll result. Poll failures keep the previous
// reading; callers pass a new reading only on success.
func (s *Store) SetSensor(r types.SensorReading) { s.sensor = r }

// IsolationChanged reports whether the isolation state string changed
// since the last call, and clears the flag. The Store tracks the byte
// change only; what "isolated" means is the consumer's concern.
func (s *Store) IsolationChanged() bool {
	c := s.isolationChanged
	s.isolationChanged = false
	return c
}

func (s *Store) Health() types.HealthReport        { return s.health }
func (s *Store) Isolation() types.IsolationStatus  { return s.isolation }
func (s *Store) Peer() types.SecondaryPeerHealth   { return s.peer }
func (s *Store) Sensor() types.SensorReading       { return s.sensor }
