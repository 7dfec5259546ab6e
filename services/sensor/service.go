// Package sensor polls the CO2 sensor and publishes readings. Polls
// run on a jittered self-schedule and on demand via sensor/poll; a
// poll that finds no fresh data leaves the previous reading in place
// and publishes nothing.
package sensor

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"inkpanel-go/bus"
	"inkpanel-go/drivers/scd4x"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
	"inkpanel-go/x/strconvx"
	"inkpanel-go/x/timex"
)

var (
	topicConfigSensor  = bus.Topic{"config", "sensor"}
	topicSensorPoll    = bus.Topic{"sensor", "poll"}
	topicSensorReading = bus.Topic{"sensor", "reading"}
	topicPubCO2        = bus.Topic{"uplink", "pub", "co2"}
	topicPubTemp       = bus.Topic{"uplink", "pub", "temperature"}
	topicPubHumidity   = bus.Topic{"uplink", "pub", "humidity"}
)

// Broker-relative value channels; the uplink prefixes the device id.
const (
	channelCO2      = "sensor/co2"
	channelTemp     = "sensor/temperature"
	channelHumidity = "sensor/humidity"
)

const (
	defaultPollEvery  = 60 * time.Second
	defaultMinSpacing = 5 * time.Second
)

// Measurer is the slice of the SCD4x driver the service needs.
// scd4x.Device satisfies it; tests and the simulator substitute fakes.
type Measurer interface {
	StartPeriodic() error
	ReadMeasurement() (scd4x.Sample, error)
}

// Service owns the sensor. A nil Dev means no sensor is fitted; polls
// are acknowledged by doing nothing.
type Service struct {
	Dev Measurer
}

// Start the sensor service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigSensor)
	defer conn.Unsubscribe(cfgSub)
	pollSub := conn.Subscribe(topicSensorPoll)
	defer conn.Unsubscribe(pollSub)

	pollEvery := defaultPollEvery
	minSpacing := defaultMinSpacing
	jitterMs := 0

	if s.Dev != nil {
		if err := s.Dev.StartPeriodic(); err != nil {
			logx.Warn("[sensor] start periodic failed", "err", err.Error())
		}
	}

	var lastPollMs int64
	timer := time.NewTimer(pollEvery)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("[sensor] service stopping")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.SensorConfig)
			if !ok {
				continue
			}
			if cfg.PollS > 0 {
				pollEvery = time.Duration(cfg.PollS) * time.Second
			}
			switch {
			case cfg.MinSpacingS > 0:
				minSpacing = time.Duration(cfg.MinSpacingS) * time.Second
			case cfg.MinSpacingS < 0:
				minSpacing = 0
			}
			if cfg.JitterMs > 0 {
				jitterMs = cfg.JitterMs
			}
			logx.Info("[sensor] config applied",
				"poll_s", cfg.PollS, "min_spacing_s", cfg.MinSpacingS, "jitter_ms", cfg.JitterMs)
			timex.ResetTimer(timer, withJitter(pollEvery, jitterMs))
		case <-pollSub.Channel():
			lastPollMs = s.poll(conn, lastPollMs, minSpacing)
		case <-timer.C:
			lastPollMs = s.poll(conn, lastPollMs, minSpacing)
			timer.Reset(withJitter(pollEvery, jitterMs))
		}
	}
}

// poll attempts one measurement, honoring the minimum spacing. It
// returns the updated last-poll timestamp.
func (s *Service) poll(conn *bus.Connection, lastPollMs int64, minSpacing time.Duration) int64 {
	now := timex.NowMs()
	if s.Dev == nil {
		return lastPollMs
	}
	if lastPollMs != 0 && now-lastPollMs < minSpacing.Milliseconds() {
		logx.Debug("[sensor] poll rate-limited")
		return lastPollMs
	}

	sample, err := s.Dev.ReadMeasurement()
	if err != nil {
		if errors.Is(err, scd4x.ErrNotReady) {
			logx.Debug("[sensor] no new data")
		} else {
			logx.Warn("[sensor] read failed", "err", err.Error())
		}
		return now
	}

	r := types.SensorReading{
		OK:       true,
		CO2:      int(sample.CO2),
		TempDeci: int(sample.DeciCelsius()),
		RHDeci:   int(sample.DeciRelHumidity()),
		TS:       now,
	}
	conn.Publish(conn.NewMessage(topicSensorReading, r, true))
	publishValues(conn, r)
	logx.Info("[sensor] reading",
		"co2", r.CO2, "temp_deci", r.TempDeci, "rh_deci", r.RHDeci)
	return now
}

// publishValues hands the three channels to the uplink as plain
// decimal strings: CO2 and humidity whole units, temperature one
// decimal place.
func publishValues(conn *bus.Connection, r types.SensorReading) {
	conn.Publish(conn.NewMessage(topicPubCO2, types.Publish{
		Topic: channelCO2, Payload: []byte(strconvx.Itoa(r.CO2)),
	}, false))
	conn.Publish(conn.NewMessage(topicPubTemp, types.Publish{
		Topic: channelTemp, Payload: []byte(strconvx.FormatDeci(r.TempDeci)),
	}, false))
	conn.Publish(conn.NewMessage(topicPubHumidity, types.Publish{
		Topic: channelHumidity, Payload: []byte(strconvx.Itoa(r.RHDeci / 10)),
	}, false))
}

func withJitter(d time.Duration, jitterMs int) time.Duration {
	if jitterMs <= 0 {
		return d
	}
	return d + time.Duration(rand.Intn(jitterMs))*time.Millisecond
}
