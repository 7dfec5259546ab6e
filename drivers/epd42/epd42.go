// Package epd42 drives a UC8176-based 4.2" 400x300 e-paper panel over
// SPI. The driver keeps a 1-bit framebuffer and flushes it with either
// a full refresh (clean repaint, slow, high contrast) or a partial
// refresh (fast, may ghost over repeated use).
//
// Pins are passed as small interfaces so host tests can observe the
// control sequence; machine.Pin satisfies both on hardware.
package epd42

import (
	"errors"
	"image/color"
	"time"

	"tinygo.org/x/drivers"

	"inkpanel-go/types"
)

// Panel geometry.
const (
	Width  = 400
	Height = 300
)

const bufLen = Width * Height / 8

// UC8176 command set (the subset this driver uses).
const (
	cmdPanelSetting     = 0x00
	cmdPowerOff         = 0x02
	cmdPowerOn          = 0x04
	cmdBoosterSoftStart = 0x06
	cmdDeepSleep        = 0x07
	cmdDataOld          = 0x10
	cmdDisplayRefresh   = 0x12
	cmdDataNew          = 0x13
	cmdVcomDataInterval = 0x50
	cmdResolution       = 0x61
	cmdPartialWindow    = 0x90
	cmdPartialIn        = 0x91
	cmdPartialOut       = 0x92
)

// ErrBusyTimeout means the panel never released its busy line; the
// surface is effectively gone until a reset.
var ErrBusyTimeout = errors.New("epd42: busy timeout")

// OutputPin is a settable GPIO; machine.Pin satisfies it.
type OutputPin interface {
	Set(high bool)
}

// InputPin is a readable GPIO; machine.Pin satisfies it.
type InputPin interface {
	Get() bool
}

// Config controls non-hardware behaviour.
type Config struct {
	// BusyTimeout bounds each wait on the busy line. Full refreshes on
	// this panel take up to ~4 s. Default 10 s.
	BusyTimeout time.Duration
}

// Device is one panel. Not safe for concurrent use.
type Device struct {
	bus  drivers.SPI
	dc   OutputPin
	cs   OutputPin
	rst  OutputPin
	busy InputPin

	cfg     Config
	buf     [bufLen]byte
	powered bool
}

// New creates the Device object; the SPI bus must already be
// configured. The panel is not touched until Configure.
func New(bus drivers.SPI, dc, cs, rst OutputPin, busy InputPin) *Device {
	return &Device{bus: bus, dc: dc, cs: cs, rst: rst, busy: busy}
}

// Configure resets and initializes the panel and clears the buffer to
// white.
func (d *Device) Configure(cfgs ...Config) error {
	c := Config{}
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 10 * time.Second
	}
	d.cfg = c

	d.reset()
	d.command(cmdBoosterSoftStart, 0x17, 0x17, 0x17)
	d.command(cmdPowerOn)
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.powered = true
	// KW mode, LUT from OTP, scan settings for 400x300.
	d.command(cmdPanelSetting, 0x1F)
	d.command(cmdResolution, Width>>8, Width&0xFF, Height>>8, Height&0xFF)
	d.command(cmdVcomDataInterval, 0x97)
	d.ClearBuffer()
	return nil
}

// Size returns the display dimensions.
func (d *Device) Size() (int16, int16) { return Width, Height }

// SetPixel writes one pixel into the framebuffer. Anything darker than
// mid-grey is black. Out-of-range coordinates are ignored.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	idx := int(y)*(Width/8) + int(x)/8
	mask := byte(0x80 >> (uint(x) % 8))
	// 1 = white on this controller.
	if int(c.R)+int(c.G)+int(c.B) < 3*128 {
		d.buf[idx] &^= mask
	} else {
		d.buf[idx] |= mask
	}
}

// ClearBuffer sets the framebuffer to all white without touching the
// panel.
func (d *Device) ClearBuffer() {
	for i := range d.buf {
		d.buf[i] = 0xFF
	}
}

// Display sends the framebuffer and performs a full refresh. It exists
// to satisfy the drivers.Displayer interface; Flush is the richer way.
func (d *Device) Display() error { return d.flushFull() }

// Flush pushes the framebuffer to the panel using the requested
// refresh strategy.
func (d *Device) Flush(mode types.RefreshMode) error {
	if mode == types.RefreshFull {
		return d.flushFull()
	}
	return d.flushPartial()
}

// flushFull repaints the whole panel: old data, new data, refresh.
func (d *Device) flushFull() error {
	d.command(cmdDataOld)
	d.data(d.buf[:])
	d.command(cmdDataNew)
	d.data(d.buf[:])
	d.command(cmdDisplayRefresh)
	return d.waitIdle()
}

// flushPartial updates inside a full-panel partial window, skipping
// the old-data pass. Faster, but residue accumulates until the next
// full refresh.
func (d *Device) flushPartial() error {
	d.command(cmdPartialIn)
	d.command(cmdPartialWindow,
		0, 0, // x start
		(Width-1)>>8, (Width-1)&0xFF,
		0, 0, // y start
		(Height-1)>>8, (Height-1)&0xFF,
		0x01) // scan inside window only
	d.command(cmdDataNew)
	d.data(d.buf[:])
	d.command(cmdDisplayRefresh)
	err := d.waitIdle()
	d.command(cmdPartialOut)
	return err
}

// Sleep powers the panel down into deep sleep. Configure wakes it.
func (d *Device) Sleep() error {
	d.command(cmdPowerOff)
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.command(cmdDeepSleep, 0xA5)
	d.powered = false
	return nil
}

func (d *Device) reset() {
	d.rst.Set(false)
	time.Sleep(10 * time.Millisecond)
	d.rst.Set(true)
	time.Sleep(10 * time.Millisecond)
}

// command sends one command byte and optional parameter bytes.
func (d *Device) command(cmd byte, params ...byte) {
	d.cs.Set(false)
	d.dc.Set(false)
	_, _ = d.bus.Transfer(cmd)
	if len(params) > 0 {
		d.dc.Set(true)
		_ = d.bus.Tx(params, nil)
	}
	d.cs.Set(true)
}

// data sends a bulk data block under an already-issued data command.
func (d *Device) data(p []byte) {
	d.cs.Set(false)
	d.dc.Set(true)
	_ = d.bus.Tx(p, nil)
	d.cs.Set(true)
}

// waitIdle blocks until the busy line releases (high = idle on this
// controller) or the timeout passes.
func (d *Device) waitIdle() error {
	deadline := time.Now().Add(d.cfg.BusyTimeout)
	for !d.busy.Get() {
		if time.Now().After(deadline) {
			return ErrBusyTimeout
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
