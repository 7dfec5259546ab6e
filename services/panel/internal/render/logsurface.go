package render

import (
	"image/color"

	"inkpanel-go/types"
	"inkpanel-go/x/logx"
)

// LogSurface is a headless surface for host binaries: it counts inked
// pixels and logs one line per flush. Useful when watching navigation
// without a display or a TUI.
type LogSurface struct {
	inked int
}

func NewLogSurface() *LogSurface { return &LogSurface{} }

func (s *LogSurface) Size() (int16, int16) { return 400, 300 }

func (s *LogSurface) SetPixel(x, y int16, c color.RGBA) {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		s.inked++
	}
}

func (s *LogSurface) Display() error { return nil }

func (s *LogSurface) Flush(mode types.RefreshMode) error {
	logx.Info("[render] flush", "mode", string(mode), "inked_px", s.inked)
	s.inked = 0
	return nil
}
