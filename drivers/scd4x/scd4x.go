// Package scd4x provides a driver for the SCD40/SCD41 CO2, temperature
// and humidity sensor. The sensor samples on its own once periodic
// measurement is started; the driver exposes a two-phase poll API:
//
//	d.StartPeriodic()            // once, at boot
//	ok, _ := d.DataReady()       // cheap status poll
//	s, err := d.ReadMeasurement() // fetch; ErrNotReady while sampling
//
// Every 16-bit word on the wire is followed by a CRC-8 (poly 0x31,
// init 0xFF); frames failing the check are rejected with ErrCRC.
//
// The driver avoids floating-point: conversions return tenths of units
// (deci-°C and deci-%RH), CO2 is whole ppm.
package scd4x

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x62

// Command words (big-endian on the wire).
const (
	cmdStartPeriodic     = 0x21B1
	cmdStopPeriodic      = 0x3F86
	cmdReadMeasurement   = 0xEC05
	cmdGetDataReady      = 0xE4B8
	cmdReinit            = 0x3646
	cmdMeasureSingleShot = 0x219D
)

// Errors returned by the driver.
var (
	ErrNotReady = errors.New("scd4x: not ready")
	ErrCRC      = errors.New("scd4x: crc mismatch")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x62 if zero.
	Address uint16
	// CommandDelay is the pause between a command write and its read
	// phase. Default 1 ms (datasheet execution time for reads).
	CommandDelay time.Duration
}

// Device wraps an I2C connection to an SCD4x sensor.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	buf [9]byte // reused for read frames, avoids allocations
}

// New creates the Device object. The I2C bus must already be
// configured; the sensor itself is not touched.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config. It may be called with no cfg.
func (d *Device) Configure(cfgs ...Config) {
	c := Config{}
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.CommandDelay <= 0 {
		c.CommandDelay = time.Millisecond
	}
	d.cfg = c
}

// StartPeriodic begins the sensor's autonomous 5-second sampling loop.
// The first measurement is available roughly 5 seconds later.
func (d *Device) StartPeriodic() error {
	return d.writeCommand(cmdStartPeriodic)
}

// StopPeriodic halts sampling. The sensor needs ~500 ms before it
// accepts further commands; the driver sleeps that out.
func (d *Device) StopPeriodic() error {
	if err := d.writeCommand(cmdStopPeriodic); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)
	return nil
}

// Reinit reloads factory calibration. Only valid while stopped.
func (d *Device) Reinit() error {
	if err := d.writeCommand(cmdReinit); err != nil {
		return err
	}
	time.Sleep(20 * time.Millisecond)
	return nil
}

// MeasureSingleShot triggers one on-demand sample (SCD41 only). The
// result is readable after ~5 s via DataReady/ReadMeasurement.
func (d *Device) MeasureSingleShot() error {
	return d.writeCommand(cmdMeasureSingleShot)
}

// DataReady reports whether a fresh measurement is waiting.
func (d *Device) DataReady() (bool, error) {
	if err := d.writeCommand(cmdGetDataReady); err != nil {
		return false, err
	}
	d.delay()
	frame := d.buf[:3]
	if err := d.bus.Tx(d.Address, nil, frame); err != nil {
		return false, err
	}
	word, ok := checkWord(frame)
	if !ok {
		return false, ErrCRC
	}
	// Lower 11 bits zero means no data yet.
	return word&0x07FF != 0, nil
}

// ReadMeasurement fetches the current sample. It returns ErrNotReady
// when no fresh data is available, leaving the sensor's sample intact
// for a later attempt.
func (d *Device) ReadMeasurement() (Sample, error) {
	ready, err := d.DataReady()
	if err != nil {
		return Sample{}, err
	}
	if !ready {
		return Sample{}, ErrNotReady
	}

	if err := d.writeCommand(cmdReadMeasurement); err != nil {
		return Sample{}, err
	}
	d.delay()
	frame := d.buf[:9]
	if err := d.bus.Tx(d.Address, nil, frame); err != nil {
		return Sample{}, err
	}

	var words [3]uint16
	for i := 0; i < 3; i++ {
		w, ok := checkWord(frame[i*3 : i*3+3])
		if !ok {
			return Sample{}, ErrCRC
		}
		words[i] = w
	}
	return Sample{CO2: words[0], RawTemp: words[1], RawRH: words[2]}, nil
}

func (d *Device) writeCommand(cmd uint16) error {
	return d.bus.Tx(d.Address, []byte{byte(cmd >> 8), byte(cmd)}, nil)
}

func (d *Device) delay() {
	if d.cfg.CommandDelay > 0 {
		time.Sleep(d.cfg.CommandDelay)
	} else {
		time.Sleep(time.Millisecond)
	}
}

// Sample holds one raw measurement frame.
type Sample struct {
	CO2     uint16 // ppm, no conversion needed
	RawTemp uint16
	RawRH   uint16
}

// DeciCelsius converts the raw temperature word to tenths of °C:
// t = -45 + 175 * raw / 65535.
func (s Sample) DeciCelsius() int32 {
	return (int32(s.RawTemp)*1750)/65535 - 450
}

// DeciRelHumidity converts the raw humidity word to tenths of %RH:
// rh = 100 * raw / 65535.
func (s Sample) DeciRelHumidity() int32 {
	return (int32(s.RawRH) * 1000) / 65535
}

// crc8 implements the sensor's checksum: poly 0x31, init 0xFF, no
// reflection, no final XOR.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// checkWord validates a 3-byte word+CRC group.
func checkWord(p []byte) (uint16, bool) {
	if crc8(p[:2]) != p[2] {
		return 0, false
	}
	return uint16(p[0])<<8 | uint16(p[1]), true
}
