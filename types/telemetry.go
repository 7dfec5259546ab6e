package types

import "inkpanel-go/x/boundstr"

// ---- Telemetry categories ----

// Category names a kind of inbound telemetry. Categories double as
// topic tokens: the uplink republishes broker payloads on
// uplink/msg/<category>.
type Category string

const (
	CategoryHealth        Category = "health"
	CategoryIsolation     Category = "isolation-status"
	CategorySecondaryPeer Category = "secondary-peer-health"
)

// Bounded-string capacities for wire-sourced text fields. Each stores
// capacity-1 bytes.
const (
	UptimeCap     = 16
	ModelCap      = 24
	StateCap      = 16
	AddressCap    = 64
	IsolatedAtCap = 24
)

// ---- Records ----

// HealthReport is the normalized form of a hub health payload. A zero
// report with Received=false renders as placeholders.
type HealthReport struct {
	Received bool

	HubOK     bool
	GatewayOK bool
	InetOK    bool
	HubAPIOK  bool

	HubMs     int
	GatewayMs int
	InetMs    int

	MemFreeMB   int
	DiskUsedPct int
	Messages24h int

	Uptime boundstr.Buf
	Model  boundstr.Buf
}

func NewHealthReport() HealthReport {
	return HealthReport{
		Uptime: boundstr.New(UptimeCap),
		Model:  boundstr.New(ModelCap),
	}
}

// IsolationStatus is the normalized form of a killswitch payload.
type IsolationStatus struct {
	Received bool

	State       boundstr.Buf
	Address     boundstr.Buf
	IsolatedAt  boundstr.Buf
	WSConnected bool
	BlockNumber int
}

func NewIsolationStatus() IsolationStatus {
	return IsolationStatus{
		State:      boundstr.New(StateCap),
		Address:    boundstr.New(AddressCap),
		IsolatedAt: boundstr.New(IsolatedAtCap),
	}
}

// Isolated reports whether the state field holds the literal "isolated".
// Everything else, including an empty field, counts as not isolated.
func (s *IsolationStatus) Isolated() bool {
	return s.State.EqualString("isolated")
}

// SecondaryPeerHealth is the normalized form of a gateway health
// payload.
type SecondaryPeerHealth struct {
	Received bool

	HubErrors    int
	HubReachable bool
}

// SensorReading is the last completed CO2/temperature/humidity
// measurement. Temperatures and humidities are fixed-point tenths.
type SensorReading struct {
	OK bool

	CO2      int // ppm
	TempDeci int // 0.1 degC units
	RHDeci   int // 0.1 %RH units

	TS int64 // unix ms of the poll that produced this reading
}
