//go:build rp2040 || rp2350

package input

import (
	"machine"

	"inkpanel-go/types"
	"inkpanel-go/x/timex"
)

// PinSource watches three GPIOs with pin interrupts and queues raw
// edges for the service. The ISR does a register read and a
// non-blocking send; a full queue drops the edge rather than stall the
// interrupt path.
type PinSource struct {
	ch    chan RawEdge
	drops uint32
}

// NewPinSource configures the button pins as pull-up inputs and arms
// toggle interrupts on them.
func NewPinSource(cfg types.InputConfig) (*PinSource, error) {
	s := &PinSource{ch: make(chan RawEdge, 16)}

	pins := []struct {
		n int
		b types.Button
	}{
		{cfg.PinAdvance, types.ButtonAdvance},
		{cfg.PinSelect, types.ButtonSelect},
		{cfg.PinRetreat, types.ButtonRetreat},
	}
	for _, pb := range pins {
		pin := machine.Pin(pb.n)
		button := pb.b
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		err := pin.SetInterrupt(machine.PinToggle, func(p machine.Pin) {
			select {
			case s.ch <- RawEdge{Button: button, Level: p.Get(), TSMs: timex.NowMs()}:
			default:
				s.drops++
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PinSource) Events() <-chan RawEdge { return s.ch }

// Drops reports how many edges the ISR discarded on a full queue.
func (s *PinSource) Drops() uint32 { return s.drops }
