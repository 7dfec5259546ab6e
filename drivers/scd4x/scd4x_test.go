package scd4x

import (
	"errors"
	"testing"
)

// fakeI2C answers reads according to the last command written, framing
// words with real CRCs unless told to corrupt them.
type fakeI2C struct {
	lastCmd uint16
	ready   bool
	sample  [3]uint16
	corrupt bool

	writes []uint16
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if len(w) >= 2 {
		f.lastCmd = uint16(w[0])<<8 | uint16(w[1])
		f.writes = append(f.writes, f.lastCmd)
	}
	if len(r) == 0 {
		return nil
	}
	switch f.lastCmd {
	case cmdGetDataReady:
		word := uint16(0)
		if f.ready {
			word = 0x0001
		}
		f.putWord(r[0:3], word)
	case cmdReadMeasurement:
		for i, w := range f.sample {
			f.putWord(r[i*3:i*3+3], w)
		}
	}
	return nil
}

func (f *fakeI2C) putWord(dst []byte, w uint16) {
	dst[0] = byte(w >> 8)
	dst[1] = byte(w)
	dst[2] = crc8(dst[:2])
	if f.corrupt {
		dst[2] ^= 0xFF
	}
}

func newDevice(f *fakeI2C) Device {
	d := New(f)
	d.Configure(Config{CommandDelay: 1})
	return d
}

func TestCRC8KnownVector(t *testing.T) {
	// Sensirion's documented check value.
	if got := crc8([]byte{0xBE, 0xEF}); got != 0x92 {
		t.Errorf("crc8(BEEF) = %#x; want 0x92", got)
	}
}

func TestDataReady(t *testing.T) {
	f := &fakeI2C{}
	d := newDevice(f)

	ok, err := d.DataReady()
	if err != nil || ok {
		t.Errorf("DataReady = %v, %v; want false, nil", ok, err)
	}

	f.ready = true
	ok, err = d.DataReady()
	if err != nil || !ok {
		t.Errorf("DataReady = %v, %v; want true, nil", ok, err)
	}
}

func TestReadMeasurementNotReady(t *testing.T) {
	f := &fakeI2C{}
	d := newDevice(f)

	if _, err := d.ReadMeasurement(); !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v; want ErrNotReady", err)
	}
}

func TestReadMeasurementConversions(t *testing.T) {
	f := &fakeI2C{ready: true, sample: [3]uint16{1234, 26215, 32768}}
	d := newDevice(f)

	s, err := d.ReadMeasurement()
	if err != nil {
		t.Fatalf("ReadMeasurement: %v", err)
	}
	if s.CO2 != 1234 {
		t.Errorf("CO2 = %d; want 1234", s.CO2)
	}
	if got := s.DeciCelsius(); got != 250 {
		t.Errorf("DeciCelsius = %d; want 250", got)
	}
	if got := s.DeciRelHumidity(); got != 500 {
		t.Errorf("DeciRelHumidity = %d; want 500", got)
	}
}

func TestReadMeasurementRejectsBadCRC(t *testing.T) {
	f := &fakeI2C{ready: true, sample: [3]uint16{600, 0, 0}}
	d := newDevice(f)
	f.corrupt = true

	if _, err := d.ReadMeasurement(); !errors.Is(err, ErrCRC) {
		t.Errorf("err = %v; want ErrCRC", err)
	}
}

func TestStartPeriodicWritesCommand(t *testing.T) {
	f := &fakeI2C{}
	d := newDevice(f)

	if err := d.StartPeriodic(); err != nil {
		t.Fatalf("StartPeriodic: %v", err)
	}
	if len(f.writes) != 1 || f.writes[0] != cmdStartPeriodic {
		t.Errorf("writes = %#x; want [%#x]", f.writes, uint16(cmdStartPeriodic))
	}
}
