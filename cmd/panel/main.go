//go:build rp2040 || rp2350

// Firmware entrypoint: wires the bus, the SCD4x sensor, the e-paper
// panel and the UART uplink, then parks. Pin assignments follow the
// Waveshare Pico e-paper carrier.
package main

import (
	"context"
	"machine"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/drivers/epd42"
	"inkpanel-go/drivers/scd4x"
	"inkpanel-go/services/config"
	"inkpanel-go/services/heartbeat"
	"inkpanel-go/services/input"
	"inkpanel-go/services/panel"
	"inkpanel-go/services/sensor"
	"inkpanel-go/services/uplink"
	"inkpanel-go/types"
)

const device = "panel-01"

// Display wiring.
const (
	pinEpdDC   = machine.GP8
	pinEpdCS   = machine.GP9
	pinEpdSCK  = machine.GP10
	pinEpdSDO  = machine.GP11
	pinEpdRST  = machine.GP12
	pinEpdBUSY = machine.GP13
)

func main() {
	// Give a freshly flashed board time to enumerate serial.
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] bootstrapping bus")
	b := bus.NewBus(8)

	surface := setupDisplay()
	src := setupButtons()
	scd := setupSensor()

	start := func(name string, err error) {
		if err != nil {
			println("[main] service failed:", name, err.Error())
		}
	}

	start("panel", (&panel.Service{Surface: surface}).Start(ctx, b.NewConnection("panel")))
	start("input", (&input.Service{Source: src}).Start(ctx, b.NewConnection("input")))
	start("sensor", (&sensor.Service{Dev: scd}).Start(ctx, b.NewConnection("sensor")))
	start("uplink", (&uplink.Service{}).Start(ctx, b.NewConnection("uplink")))
	start("heartbeat", (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")))

	// Config last: every service is subscribed and the retained
	// sections land exactly once.
	start("config", (&config.Service{Device: device}).Start(ctx, b.NewConnection("config")))

	println("[main] up")
	select {}
}

// setupDisplay brings up SPI and the panel. A dead panel returns nil;
// navigation runs headless until reboot.
func setupDisplay() panel.Surface {
	err := machine.SPI1.Configure(machine.SPIConfig{
		Frequency: 4_000_000,
		SCK:       pinEpdSCK,
		SDO:       pinEpdSDO,
	})
	if err != nil {
		println("[main] spi configure failed:", err.Error())
		return nil
	}

	pinEpdDC.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinEpdCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinEpdRST.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinEpdBUSY.Configure(machine.PinConfig{Mode: machine.PinInput})

	dev := epd42.New(machine.SPI1, pinEpdDC, pinEpdCS, pinEpdRST, pinEpdBUSY)
	if err := dev.Configure(); err != nil {
		println("[main] display configure failed:", err.Error())
		return nil
	}
	return dev
}

func setupButtons() input.Source {
	src, err := input.NewPinSource(types.InputConfig{
		PinAdvance: 2,
		PinSelect:  3,
		PinRetreat: 4,
		ActiveLow:  true,
	})
	if err != nil {
		println("[main] button irq setup failed:", err.Error())
		return nil
	}
	return src
}

func setupSensor() sensor.Measurer {
	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 100_000}); err != nil {
		println("[main] i2c configure failed:", err.Error())
		return nil
	}
	dev := scd4x.New(machine.I2C0)
	dev.Configure()
	return &dev
}
