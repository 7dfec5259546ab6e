package uplink

import (
	"errors"
	"io"
)

// Wire framing for the UART link. One frame is:
//
//	[type:1][topicLen:1][topic][payloadLen:2 BE][payload]
//
// The far end of the serial link bridges frames to the real broker.

const (
	framePing byte = 0x01
	framePong byte = 0x02
	framePub  byte = 0x10
	frameSub  byte = 0x11

	// flagRetain is OR'd into framePub for retained publishes.
	flagRetain byte = 0x80
)

// maxFramePayload bounds a single frame. Inbound telemetry is at most
// 512 bytes; discovery payloads are the largest outbound frames.
const maxFramePayload = 1024

var ErrFrameTooLarge = errors.New("uplink: frame too large")

// Frame is one unit on the serial link.
type Frame struct {
	Type    byte
	Topic   string
	Payload []byte
}

// Retained reports whether a pub frame carries the retain flag.
func (f Frame) Retained() bool { return f.Type&flagRetain != 0 }

// Kind strips the flag bits off the type.
func (f Frame) Kind() byte { return f.Type &^ flagRetain }

func writeFrame(w io.Writer, f Frame) error {
	if len(f.Topic) > 0xFF || len(f.Payload) > maxFramePayload {
		return ErrFrameTooLarge
	}
	hdr := make([]byte, 0, 2+len(f.Topic)+2)
	hdr = append(hdr, f.Type, byte(len(f.Topic)))
	hdr = append(hdr, f.Topic...)
	hdr = append(hdr, byte(len(f.Payload)>>8), byte(len(f.Payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func readFrame(r io.Reader) (Frame, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	f := Frame{Type: hdr[0]}

	topicLen := int(hdr[1])
	buf := make([]byte, topicLen+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Frame{}, err
	}
	f.Topic = string(buf[:topicLen])

	n := int(buf[topicLen])<<8 | int(buf[topicLen+1])
	if n > maxFramePayload {
		return Frame{}, ErrFrameTooLarge
	}
	if n > 0 {
		f.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return Frame{}, err
		}
	}
	return f, nil
}
